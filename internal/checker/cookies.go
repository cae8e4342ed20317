package checker

import (
	"fmt"
	"net/http"
	"strings"
)

// sessionCookieHints identify cookies that carry a session. Attribute
// problems on these are graded harder than on ordinary cookies.
var sessionCookieHints = []string{
	"session", "sess", "sid", "auth", "token", "remember",
}

// sensitiveCookieHints are names that suggest a secret is being shipped to
// the browser in the clear.
var sensitiveCookieHints = []string{
	"password", "passwd", "secret", "apikey", "api_key", "private",
}

// Session cookies living longer than this are flagged.
const maxSessionCookieAge = 30 * 24 * 60 * 60 // seconds

func isSessionCookie(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range sessionCookieHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func isSensitiveCookieName(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range sensitiveCookieHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// checkCookies grades every Set-Cookie in the response. For session-named
// cookies, missing HttpOnly or Secure is a failure; SameSite and path
// problems are warnings. Other cookies only get the sensitive-name and
// lifetime checks.
func checkCookies(domain string, resp *http.Response) []TestResult {
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return []TestResult{
			Pass(domain, "Cookies", "Cookie Attributes").WithDetail("note", "no cookies set"),
		}
	}

	var tests []TestResult
	for _, c := range cookies {
		tests = append(tests, gradeCookie(domain, c)...)
	}
	return tests
}

func gradeCookie(domain string, c *http.Cookie) []TestResult {
	var tests []TestResult
	label := func(check string) string { return fmt.Sprintf("Cookie %s: %s", check, c.Name) }

	if isSensitiveCookieName(c.Name) {
		tests = append(tests, Warn(domain, "Cookies", label("Name"),
			"cookie name suggests sensitive content"))
	}

	if !isSessionCookie(c.Name) {
		return tests
	}

	if c.HttpOnly {
		tests = append(tests, Pass(domain, "Cookies", label("HttpOnly")))
	} else {
		tests = append(tests, Fail(domain, "Cookies", label("HttpOnly"),
			"session cookie readable from script"))
	}

	if c.Secure {
		tests = append(tests, Pass(domain, "Cookies", label("Secure")))
	} else {
		tests = append(tests, Fail(domain, "Cookies", label("Secure"),
			"session cookie sent over plain http"))
	}

	if c.SameSite == http.SameSiteLaxMode || c.SameSite == http.SameSiteStrictMode {
		tests = append(tests, Pass(domain, "Cookies", label("SameSite")))
	} else {
		tests = append(tests, Warn(domain, "Cookies", label("SameSite"),
			"no SameSite attribute on session cookie"))
	}

	if c.Path != "" && c.Path != "/" {
		tests = append(tests, Pass(domain, "Cookies", label("Path")).WithDetail("path", c.Path))
	} else if c.Path == "" {
		tests = append(tests, Warn(domain, "Cookies", label("Path"),
			"no explicit path on session cookie"))
	}

	if c.MaxAge > maxSessionCookieAge {
		tests = append(tests, Warn(domain, "Cookies", label("Lifetime"),
			fmt.Sprintf("session cookie lives %d seconds", c.MaxAge)))
	}

	return tests
}
