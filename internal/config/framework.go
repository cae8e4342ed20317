package config

import "strings"

// Framework identifies the web framework a site reports itself as running.
// Adding a value here forces the switch statements below to be revisited,
// which is the point: a new framework is a deliberate decision, not a
// silent fallback.
type Framework int

const (
	FrameworkUnknown Framework = iota
	FrameworkLaravel
	FrameworkExpress
	FrameworkNext
	FrameworkDjango
	FrameworkRails
	FrameworkWordpress
	FrameworkStatic
)

var frameworkNames = map[Framework]string{
	FrameworkUnknown:   "unknown",
	FrameworkLaravel:   "laravel",
	FrameworkExpress:   "express",
	FrameworkNext:      "nextjs",
	FrameworkDjango:    "django",
	FrameworkRails:     "rails",
	FrameworkWordpress: "wordpress",
	FrameworkStatic:    "static",
}

// ParseFramework maps a config string to a Framework. Unrecognized values
// map to FrameworkUnknown explicitly.
func ParseFramework(s string) Framework {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "laravel":
		return FrameworkLaravel
	case "express", "node", "nodejs":
		return FrameworkExpress
	case "next", "nextjs", "next.js":
		return FrameworkNext
	case "django":
		return FrameworkDjango
	case "rails", "ruby":
		return FrameworkRails
	case "wordpress", "wp":
		return FrameworkWordpress
	case "static", "html":
		return FrameworkStatic
	default:
		return FrameworkUnknown
	}
}

func (f Framework) String() string {
	if name, ok := frameworkNames[f]; ok {
		return name
	}
	return "unknown"
}

// MarshalText lets Framework serialize as its name in JSON reports.
func (f Framework) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// DefaultHealthPath returns the conventional health endpoint for the
// framework. Sites with an explicit health_check override this.
func (f Framework) DefaultHealthPath() string {
	switch f {
	case FrameworkLaravel:
		return "/up"
	case FrameworkExpress, FrameworkNext:
		return "/api/health"
	case FrameworkDjango:
		return "/healthz"
	case FrameworkRails:
		return "/up"
	case FrameworkWordpress:
		return "/wp-json"
	case FrameworkStatic:
		return "/"
	default:
		return "/health"
	}
}

// DefaultLoginPath returns the conventional login page for the framework.
func (f Framework) DefaultLoginPath() string {
	switch f {
	case FrameworkWordpress:
		return "/wp-login.php"
	case FrameworkDjango:
		return "/accounts/login/"
	case FrameworkRails:
		return "/users/sign_in"
	case FrameworkLaravel, FrameworkExpress, FrameworkNext, FrameworkStatic:
		return "/login"
	default:
		return "/login"
	}
}
