package checker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ndhoang91/sitecheck-cli/internal/config"
)

func httpOnlyFunctionalModule() *FunctionalModule {
	client := newHTTPClient(5*time.Second, true)
	return &FunctionalModule{
		renderer: &NullRenderer{client: client},
		client:   client,
	}
}

func TestCheckLoginPage_SSOSkipsWholeBattery(t *testing.T) {
	m := httpOnlyFunctionalModule()
	site := config.Site{Domain: "a.example", Type: "platform", Auth: "sso"}

	results := m.checkLoginPage(context.Background(), site)

	if len(results) != 3 {
		t.Fatalf("expected 3 skip records, got %d", len(results))
	}
	for _, r := range results {
		if r.Outcome != OutcomeSkip {
			t.Errorf("%s: expected skip for sso site, got %s", r.Name, r.Outcome)
		}
		reason, _ := r.Details["reason"].(string)
		if !strings.Contains(reason, "SSO") {
			t.Errorf("%s: skip reason should mention SSO, got %q", r.Name, reason)
		}
	}
}

func TestCheckLoginPage_FormStructureAndCSRFWarn(t *testing.T) {
	// A login form with password and submit but no CSRF token marker.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><form method="post">
			<input name="email">
			<input type="password" name="password">
			<button type="submit">Sign in</button>
		</form></html>`))
	}))
	defer server.Close()

	m := httpOnlyFunctionalModule()
	site := config.Site{
		Domain:    strings.TrimPrefix(server.URL, "http://"),
		Protocol:  "http",
		Type:      "platform",
		Auth:      "local",
		LoginPath: "/login",
	}

	results := m.checkLoginPage(context.Background(), site)

	if r := findResult(results, "Login Form Structure"); r == nil || r.Outcome != OutcomePass {
		t.Errorf("expected form structure pass, got %+v", r)
	}
	if r := findResult(results, "CSRF Token In Form"); r == nil || r.Outcome != OutcomeWarn {
		t.Errorf("expected CSRF-in-form warning, got %+v", r)
	}
}

func TestCheckLoginFormStructure_MissingPieces(t *testing.T) {
	result := checkLoginFormStructure("a.example", `<html><p>nothing here</p></html>`)

	if result.Outcome != OutcomeFail {
		t.Errorf("expected fail for missing form, got %s", result.Outcome)
	}
	if !strings.Contains(result.Error, "form element") {
		t.Errorf("error should name the missing pieces, got %q", result.Error)
	}
}

func TestCheckServerErrorLeak(t *testing.T) {
	if r := checkServerErrorLeak("a.example", "<html>Fatal error: Uncaught</html>"); r.Outcome != OutcomeFail {
		t.Errorf("expected fail for leaked error string, got %s", r.Outcome)
	}
	if r := checkServerErrorLeak("a.example", "<html>all good</html>"); r.Outcome != OutcomePass {
		t.Errorf("expected pass for clean page, got %s", r.Outcome)
	}
}

func TestCheckConsoleErrors_HTTPFallbackSkips(t *testing.T) {
	m := httpOnlyFunctionalModule()
	site := config.Site{Domain: "a.example"}

	result := m.checkConsoleErrors(site, &RenderedPage{})

	if result.Outcome != OutcomeSkip {
		t.Errorf("expected skip without a browser, got %s", result.Outcome)
	}
}

func TestCheckNotFoundHandling_CustomErrorPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<html><body>" + strings.Repeat("We could not find that page. ", 40) + "</body></html>"))
	}))
	defer server.Close()

	m := httpOnlyFunctionalModule()
	site := config.Site{Domain: strings.TrimPrefix(server.URL, "http://"), Protocol: "http"}

	result := m.checkNotFoundHandling(context.Background(), site)

	if result.Outcome != OutcomePass {
		t.Errorf("expected pass for custom 404 page, got %s (%s)", result.Outcome, result.Error)
	}
}

func TestCheckNotFoundHandling_DefaultServerPageWarns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<html><center>nginx/1.25.3</center></html>"))
	}))
	defer server.Close()

	m := httpOnlyFunctionalModule()
	site := config.Site{Domain: strings.TrimPrefix(server.URL, "http://"), Protocol: "http"}

	result := m.checkNotFoundHandling(context.Background(), site)

	if result.Outcome != OutcomeWarn {
		t.Errorf("expected warn for default webserver page, got %s", result.Outcome)
	}
}

func TestCheckMobileMarkup_ViewportMissingWarns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head></head><body>desktop only</body></html>"))
	}))
	defer server.Close()

	m := httpOnlyFunctionalModule()
	site := config.Site{Domain: strings.TrimPrefix(server.URL, "http://"), Protocol: "http"}

	result := m.checkMobileMarkup(context.Background(), site, nil)

	if result.Outcome != OutcomeWarn {
		t.Errorf("expected warn for missing viewport meta, got %s", result.Outcome)
	}
}

func TestCheckAdminSurfaces_ProtectedStatusPasses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	m := httpOnlyFunctionalModule()
	site := config.Site{Domain: strings.TrimPrefix(server.URL, "http://"), Protocol: "http", Type: "platform"}

	results := m.checkAdminSurfaces(context.Background(), site)

	if len(results) != len(adminProbePaths) {
		t.Fatalf("expected %d admin probes, got %d", len(adminProbePaths), len(results))
	}
	for _, r := range results {
		if r.Outcome != OutcomePass {
			t.Errorf("%s: expected pass for 401 on admin path, got %s", r.Name, r.Outcome)
		}
	}
}
