package cmd

import (
	"fmt"

	"github.com/spf13/pflag"
)

// applyConfigDefaults merges the config file's `defaults` block into the
// check command's flags, unless the user set the flag explicitly. Flags win
// over the file; the file wins over compiled-in defaults.
func applyConfigDefaults(defaults map[string]any) {
	if len(defaults) == 0 {
		return
	}
	flags := checkCmd.Flags()

	if v, ok := defaults["rate"]; ok {
		applyFloatDefault(flags, "rate", v, func(val float64) {
			rateLimit = val
		})
	}
	if v, ok := defaults["timeout"]; ok {
		applyValueDefault(flags, "timeout", v)
	}
	if v, ok := defaults["env"]; ok {
		if s, isString := v.(string); isString {
			setStringFlagIfUnset(rootCmd.PersistentFlags(), "env", s)
		}
	}
}

func applyFloatDefault(flags *pflag.FlagSet, name string, value any, setter func(float64)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	switch n := value.(type) {
	case float64:
		setter(n)
	case int:
		setter(float64(n))
	}
}

// applyValueDefault sets a flag from its string form, leaving user-set
// flags alone. Unparseable values are ignored; the compiled-in default
// stands.
func applyValueDefault(flags *pflag.FlagSet, name string, value any) {
	if flags == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag == nil || flag.Changed {
		return
	}
	_ = flag.Value.Set(fmt.Sprintf("%v", value))
}

func setStringFlagIfUnset(flags *pflag.FlagSet, name, value string) {
	if flags == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag == nil || flag.Changed {
		return
	}
	envName = value
	_ = flag.Value.Set(value)
}
