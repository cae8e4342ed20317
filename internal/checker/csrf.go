package checker

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// csrfTokenMarkers are substrings whose presence in a login page indicates
// a CSRF token is embedded in the form.
var csrfTokenMarkers = []string{
	"csrf",
	"_token",
	"authenticity_token",
	"csrfmiddlewaretoken",
	"xsrf",
	"__requestverificationtoken",
}

// csrfRejectStatuses are the statuses a token-less POST should earn.
var csrfRejectStatuses = map[int]bool{
	http.StatusBadRequest:          true,
	http.StatusForbidden:           true,
	419:                            true, // Laravel page-expired
	http.StatusUnprocessableEntity: true,
}

var csrfRejectKeywords = []string{"csrf", "token", "forbidden", "expired", "invalid"}

func containsCSRFToken(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range csrfTokenMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// checkCSRF fetches the login page for a token marker, then submits a
// token-less login POST and expects a rejection status or error keyword.
func checkCSRF(ctx context.Context, client *http.Client, domain, loginURL string) []TestResult {
	var tests []TestResult

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return []TestResult{Fail(domain, "CSRF", "CSRF Token Present", err.Error())}
	}
	resp, err := client.Do(req)
	if err != nil {
		return []TestResult{Fail(domain, "CSRF", "CSRF Token Present", err.Error())}
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyProbeBytes))
	drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		tests = append(tests, Skip(domain, "CSRF", "CSRF Token Present",
			"login page not reachable"))
	} else if containsCSRFToken(string(body)) {
		tests = append(tests, Pass(domain, "CSRF", "CSRF Token Present"))
	} else {
		tests = append(tests, Warn(domain, "CSRF", "CSRF Token Present",
			"no token marker found in login page"))
	}

	tests = append(tests, checkTokenlessSubmission(ctx, client, domain, loginURL))
	return tests
}

// checkTokenlessSubmission POSTs login credentials with no token. A server
// that accepts it (2xx) is not enforcing CSRF protection.
func checkTokenlessSubmission(ctx context.Context, client *http.Client, domain, loginURL string) TestResult {
	form := url.Values{
		"username": {"sitecheck-probe"},
		"email":    {"probe@example.invalid"},
		"password": {"not-a-real-password"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return Fail(domain, "CSRF", "Token-less Submission Rejected", err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		// Connection-level rejection still means the POST did not land.
		return Pass(domain, "CSRF", "Token-less Submission Rejected").
			WithDetail("note", "request rejected at transport level")
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyProbeBytes))
	drainAndClose(resp.Body)

	if csrfRejectStatuses[resp.StatusCode] {
		return Pass(domain, "CSRF", "Token-less Submission Rejected").
			WithDetail("status", resp.StatusCode)
	}

	lower := strings.ToLower(string(body))
	for _, kw := range csrfRejectKeywords {
		if strings.Contains(lower, kw) {
			return Pass(domain, "CSRF", "Token-less Submission Rejected").
				WithDetail("status", resp.StatusCode).
				WithDetail("keyword", kw)
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Fail(domain, "CSRF", "Token-less Submission Rejected",
			"server accepted a POST without a CSRF token")
	}
	return Warn(domain, "CSRF", "Token-less Submission Rejected",
		"ambiguous response to token-less POST").
		WithDetail("status", resp.StatusCode)
}
