package cmd

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestApplyFloatDefault_RespectsUserFlag(t *testing.T) {
	var target float64
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64Var(&target, "rate", 0, "")

	if err := flags.Parse([]string{"--rate", "5"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	applyFloatDefault(flags, "rate", 2.5, func(v float64) { target = v })

	if target != 5 {
		t.Errorf("user flag should win over config default, got %f", target)
	}
}

func TestApplyFloatDefault_AppliesWhenUnset(t *testing.T) {
	var target float64
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64Var(&target, "rate", 0, "")

	applyFloatDefault(flags, "rate", 2.5, func(v float64) { target = v })

	if target != 2.5 {
		t.Errorf("config default should apply, got %f", target)
	}

	// Ints from the config file coerce too.
	applyFloatDefault(flags, "rate", 3, func(v float64) { target = v })
	if target != 3 {
		t.Errorf("int config default should apply, got %f", target)
	}
}

func TestApplyValueDefault_SetsDuration(t *testing.T) {
	var target time.Duration
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.DurationVar(&target, "timeout", 0, "")

	applyValueDefault(flags, "timeout", "90s")

	if target != 90*time.Second {
		t.Errorf("expected 90s, got %s", target)
	}
}

func TestApplyValueDefault_IgnoresGarbage(t *testing.T) {
	var target time.Duration
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.DurationVar(&target, "timeout", 0, "")

	applyValueDefault(flags, "timeout", "not-a-duration")

	if target != 0 {
		t.Errorf("unparseable default should leave the flag alone, got %s", target)
	}
}
