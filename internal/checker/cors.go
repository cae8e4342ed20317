package checker

import (
	"context"
	"net/http"
	"strings"
)

// corsProbeOrigin is a cross-origin value no real deployment should trust.
// A response echoing it back accepts arbitrary origins.
const corsProbeOrigin = "https://sitecheck-probe.example"

// checkCORS issues a cross-origin GET and grades the Access-Control
// response headers for insecure defaults (OWASP A5:2021). Sites that never
// set CORS headers pass: same-origin-only is the safe default.
func checkCORS(ctx context.Context, client *http.Client, domain, baseURL string) TestResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/", nil)
	if err != nil {
		return Fail(domain, "CORS", "CORS Configuration", err.Error())
	}
	req.Header.Set("Origin", corsProbeOrigin)

	resp, err := client.Do(req)
	if err != nil {
		return Skip(domain, "CORS", "CORS Configuration", "site unreachable")
	}
	defer drainAndClose(resp.Body)

	headers := resp.Header
	allowOrigin := headers.Get("Access-Control-Allow-Origin")
	allowCredentials := strings.EqualFold(headers.Get("Access-Control-Allow-Credentials"), "true")

	switch {
	case allowOrigin == "*" && allowCredentials:
		return Fail(domain, "CORS", "CORS Configuration",
			"wildcard origin combined with credentials")
	case allowOrigin == "*":
		return Warn(domain, "CORS", "CORS Configuration",
			"CORS allows any origin")
	case allowOrigin == corsProbeOrigin:
		return Fail(domain, "CORS", "CORS Configuration",
			"arbitrary origin reflected without validation")
	}

	if allowOrigin != "" && !varyIncludesOrigin(headers.Values("Vary")) {
		return Warn(domain, "CORS", "CORS Configuration",
			"Access-Control-Allow-Origin set without Vary: Origin (responses may cache incorrectly)").
			WithDetail("allow_origin", allowOrigin)
	}
	result := Pass(domain, "CORS", "CORS Configuration")
	if allowOrigin != "" {
		result = result.WithDetail("allow_origin", allowOrigin)
	}
	return result
}

func varyIncludesOrigin(values []string) bool {
	for _, value := range values {
		for _, token := range strings.Split(value, ",") {
			if strings.EqualFold(strings.TrimSpace(token), "origin") {
				return true
			}
		}
	}
	return false
}
