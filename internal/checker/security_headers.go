package checker

import (
	"fmt"
	"net/http"
	"strings"
)

// headerRule describes one expected security header. Required headers fail
// when absent; optional ones warn.
type headerRule struct {
	name     string
	required bool
	validate func(value string) string // non-empty return = shape problem
}

// securityHeaderRules is the fixed header table checked on every site,
// regardless of the per-category toggles.
var securityHeaderRules = []headerRule{
	{
		name:     "Strict-Transport-Security",
		required: true,
		validate: func(v string) string {
			if !strings.Contains(strings.ToLower(v), "max-age=") {
				return "missing max-age directive"
			}
			return ""
		},
	},
	{
		name:     "X-Content-Type-Options",
		required: true,
		validate: func(v string) string {
			if !strings.EqualFold(strings.TrimSpace(v), "nosniff") {
				return fmt.Sprintf("expected nosniff, got %q", v)
			}
			return ""
		},
	},
	{
		name:     "X-Frame-Options",
		required: true,
		validate: func(v string) string {
			upper := strings.ToUpper(strings.TrimSpace(v))
			if upper != "DENY" && upper != "SAMEORIGIN" {
				return fmt.Sprintf("unexpected value %q", v)
			}
			return ""
		},
	},
	{name: "Content-Security-Policy", required: false},
	{name: "Referrer-Policy", required: false},
	{name: "Permissions-Policy", required: false},
}

// checkSecurityHeaders evaluates the response headers of the site homepage
// against the fixed table.
func checkSecurityHeaders(domain string, headers http.Header) []TestResult {
	var tests []TestResult
	for _, rule := range securityHeaderRules {
		value := headers.Get(rule.name)
		label := "Security Header: " + rule.name

		if value == "" {
			if rule.required {
				tests = append(tests, Fail(domain, "Headers", label, "header not present"))
			} else {
				tests = append(tests, Warn(domain, "Headers", label, "header not present"))
			}
			continue
		}
		if rule.validate != nil {
			if problem := rule.validate(value); problem != "" {
				tests = append(tests, Warn(domain, "Headers", label, problem).
					WithDetail("value", value))
				continue
			}
		}
		tests = append(tests, Pass(domain, "Headers", label).WithDetail("value", value))
	}
	return tests
}
