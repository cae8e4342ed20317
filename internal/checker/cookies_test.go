package checker

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func responseWithCookie(t *testing.T, setCookie string) *http.Response {
	t.Helper()
	rec := httptest.NewRecorder()
	rec.Header().Add("Set-Cookie", setCookie)
	return rec.Result()
}

func findResult(results []TestResult, name string) *TestResult {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

func TestGradeCookie_MissingHttpOnlyFails(t *testing.T) {
	resp := responseWithCookie(t, "session_id=abc; Secure; SameSite=Lax")

	results := checkCookies("a.example", resp)

	r := findResult(results, "Cookie HttpOnly: session_id")
	if r == nil {
		t.Fatal("no HttpOnly result for session cookie")
	}
	if r.Outcome != OutcomeFail {
		t.Errorf("expected fail for missing HttpOnly, got %s", r.Outcome)
	}
}

func TestGradeCookie_MissingSameSiteWarns(t *testing.T) {
	resp := responseWithCookie(t, "session_id=abc; HttpOnly; Secure")

	results := checkCookies("a.example", resp)

	r := findResult(results, "Cookie SameSite: session_id")
	if r == nil {
		t.Fatal("no SameSite result for session cookie")
	}
	if r.Outcome != OutcomeWarn {
		t.Errorf("expected warn for missing SameSite, got %s", r.Outcome)
	}

	// The same cookie's HttpOnly check must be a pass, not merged in.
	if h := findResult(results, "Cookie HttpOnly: session_id"); h == nil || h.Outcome != OutcomePass {
		t.Error("HttpOnly should pass independently of SameSite")
	}
}

func TestGradeCookie_MissingSecureFails(t *testing.T) {
	resp := responseWithCookie(t, "auth_token=abc; HttpOnly; SameSite=Strict")

	results := checkCookies("a.example", resp)

	r := findResult(results, "Cookie Secure: auth_token")
	if r == nil {
		t.Fatal("no Secure result for session cookie")
	}
	if r.Outcome != OutcomeFail {
		t.Errorf("expected fail for missing Secure, got %s", r.Outcome)
	}
}

func TestGradeCookie_SensitiveNameWarns(t *testing.T) {
	resp := responseWithCookie(t, "api_key=topsecret; HttpOnly; Secure; SameSite=Lax")

	results := checkCookies("a.example", resp)

	r := findResult(results, "Cookie Name: api_key")
	if r == nil {
		t.Fatal("no name result for sensitive cookie")
	}
	if r.Outcome != OutcomeWarn {
		t.Errorf("expected warn for sensitive cookie name, got %s", r.Outcome)
	}
}

func TestGradeCookie_ExcessiveLifetimeWarns(t *testing.T) {
	resp := responseWithCookie(t, "session_id=abc; HttpOnly; Secure; SameSite=Lax; Max-Age=31536000")

	results := checkCookies("a.example", resp)

	r := findResult(results, "Cookie Lifetime: session_id")
	if r == nil {
		t.Fatal("no lifetime result for long-lived session cookie")
	}
	if r.Outcome != OutcomeWarn {
		t.Errorf("expected warn for year-long session cookie, got %s", r.Outcome)
	}
}

func TestGradeCookie_NonSessionCookieSkipsAttributeChecks(t *testing.T) {
	resp := responseWithCookie(t, "locale=en")

	results := checkCookies("a.example", resp)

	if r := findResult(results, "Cookie HttpOnly: locale"); r != nil {
		t.Error("attribute checks should not run on non-session cookies")
	}
}

func TestCheckCookies_NoCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	results := checkCookies("a.example", rec.Result())

	if len(results) != 1 || results[0].Outcome != OutcomePass {
		t.Errorf("expected single passing result for cookie-less response, got %+v", results)
	}
}
