package checker

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ndhoang91/sitecheck-cli/internal/config"
)

// serverErrorPatterns are strings that indicate the backend leaked an error
// into the page.
var serverErrorPatterns = []string{
	"internal server error",
	"fatal error",
	"stack trace",
	"exception",
	"sqlstate",
	"traceback (most recent call last)",
	"undefined index",
	"whoops, looks like something went wrong",
}

// webserverSignatures mark a default error page straight from the server,
// rather than an application-rendered one.
var webserverSignatures = []string{
	"nginx", "apache", "openresty", "microsoft-iis", "cloudflare",
}

var (
	formTagPattern      = regexp.MustCompile(`(?i)<form[\s>]`)
	passwordPattern     = regexp.MustCompile(`(?i)type\s*=\s*["']?password`)
	submitPattern       = regexp.MustCompile(`(?i)(type\s*=\s*["']?submit|<button)`)
	viewportMetaPattern = regexp.MustCompile(`(?i)<meta[^>]+name\s*=\s*["']viewport`)
)

// adminProbePaths are the operator surfaces probed on platform sites.
var adminProbePaths = []string{"/admin", "/manage"}

var adminExpectedStatuses = statusSet(200, 301, 302, 401, 403)

// FunctionalModule drives full-page checks through a PageRenderer picked
// once per run: a real browser when one launches, plain HTTP otherwise.
type FunctionalModule struct {
	cfg      *config.Config
	renderer PageRenderer
	client   *http.Client
}

// NewFunctionalModule builds the functional check module. The renderer
// choice happens here and holds for the whole run.
func NewFunctionalModule(ctx context.Context, cfg *config.Config) *FunctionalModule {
	return &FunctionalModule{
		cfg:      cfg,
		renderer: NewPageRenderer(ctx),
		client:   newHTTPClient(rendererTimeout, true),
	}
}

func (m *FunctionalModule) Name() string { return "sites" }

// Close releases the renderer's browser session, if any.
func (m *FunctionalModule) Close() {
	m.renderer.Close()
}

func (m *FunctionalModule) RunAll(ctx context.Context) (ModuleResult, error) {
	if !m.cfg.TestConfig("functional").Enabled {
		return NewModuleResult([]TestResult{
			Skip("", "Functional", "Functional Checks", "disabled in config"),
		}), nil
	}

	var tests []TestResult
	for _, site := range m.cfg.Sites() {
		tests = append(tests, m.checkSite(ctx, site)...)
	}
	return NewModuleResult(tests), nil
}

func (m *FunctionalModule) checkSite(ctx context.Context, site config.Site) []TestResult {
	var tests []TestResult

	home, homeResult := m.checkHomepage(ctx, site)
	tests = append(tests, homeResult)
	tests = append(tests, m.checkLoginPage(ctx, site)...)
	if home != nil {
		tests = append(tests, m.checkConsoleErrors(site, home))
	}
	tests = append(tests, m.checkMobileMarkup(ctx, site, home))
	tests = append(tests, m.checkNotFoundHandling(ctx, site))
	if strings.EqualFold(site.Type, "platform") {
		tests = append(tests, m.checkAdminSurfaces(ctx, site)...)
	}

	return tests
}

// checkHomepage renders the homepage and verifies reachability and an HTML
// content type. The rendered page is reused by the console-error and mobile
// comparisons.
func (m *FunctionalModule) checkHomepage(ctx context.Context, site config.Site) (*RenderedPage, TestResult) {
	start := time.Now()
	page, err := m.renderer.Render(ctx, site.BaseURL()+"/")
	if err != nil {
		return nil, Fail(site.Domain, "Functional", "Homepage Reachable", err.Error())
	}
	if page.Status < 200 || page.Status >= 400 {
		return page, Fail(site.Domain, "Functional", "Homepage Reachable",
			fmt.Sprintf("status %d", page.Status))
	}
	if page.ContentType != "" && !strings.Contains(strings.ToLower(page.ContentType), "text/html") {
		return page, Warn(site.Domain, "Functional", "Homepage Reachable",
			"unexpected content type "+page.ContentType)
	}
	return page, Pass(site.Domain, "Functional", "Homepage Reachable").
		WithLatency(time.Since(start))
}

// checkLoginPage runs the login battery: reachability, leaked-error scan,
// form structure and in-form CSRF token. SSO and auth-less sites skip the
// whole battery; there is no form of ours to exercise there.
func (m *FunctionalModule) checkLoginPage(ctx context.Context, site config.Site) []TestResult {
	if !site.HasLogin() {
		reason := "no local login"
		if strings.EqualFold(site.Auth, "sso") {
			reason = "authentication delegated to SSO provider"
		}
		return []TestResult{
			Skip(site.Domain, "Functional", "Login Page Reachable", reason),
			Skip(site.Domain, "Forms", "Login Form Structure", reason),
			Skip(site.Domain, "Forms", "CSRF Token In Form", reason),
		}
	}

	loginURL := joinURL(site.BaseURL(), site.ResolvedLoginPath())
	page, err := m.renderer.Render(ctx, loginURL)
	if err != nil {
		return []TestResult{Fail(site.Domain, "Functional", "Login Page Reachable", err.Error())}
	}

	var tests []TestResult
	if page.Status >= 200 && page.Status < 400 {
		tests = append(tests, Pass(site.Domain, "Functional", "Login Page Reachable"))
	} else {
		tests = append(tests, Fail(site.Domain, "Functional", "Login Page Reachable",
			fmt.Sprintf("status %d", page.Status)))
	}

	tests = append(tests, checkServerErrorLeak(site.Domain, page.Body))
	tests = append(tests, checkLoginFormStructure(site.Domain, page.Body))
	tests = append(tests, checkCSRFTokenInForm(site.Domain, page.Body))
	return tests
}

func checkServerErrorLeak(domain, body string) TestResult {
	lower := strings.ToLower(body)
	for _, pattern := range serverErrorPatterns {
		if strings.Contains(lower, pattern) {
			return Fail(domain, "Functional", "Server Error Strings",
				"page contains "+fmt.Sprintf("%q", pattern))
		}
	}
	return Pass(domain, "Functional", "Server Error Strings")
}

func checkLoginFormStructure(domain, body string) TestResult {
	var missing []string
	if !formTagPattern.MatchString(body) {
		missing = append(missing, "form element")
	}
	if !passwordPattern.MatchString(body) {
		missing = append(missing, "password field")
	}
	if !submitPattern.MatchString(body) {
		missing = append(missing, "submit control")
	}
	if len(missing) > 0 {
		return Fail(domain, "Forms", "Login Form Structure",
			"missing "+strings.Join(missing, ", "))
	}
	return Pass(domain, "Forms", "Login Form Structure")
}

// A form without a token marker is a warning here, not a failure: the token
// may ride in a cookie or header the markup scan cannot see.
func checkCSRFTokenInForm(domain, body string) TestResult {
	if containsCSRFToken(body) {
		return Pass(domain, "Forms", "CSRF Token In Form")
	}
	return Warn(domain, "Forms", "CSRF Token In Form",
		"no token marker found in login form")
}

// checkConsoleErrors reports JS errors captured while the homepage loaded.
// Only meaningful on the browser renderer.
func (m *FunctionalModule) checkConsoleErrors(site config.Site, page *RenderedPage) TestResult {
	if !m.renderer.SupportsConsole() {
		return Skip(site.Domain, "Functional", "Console Errors", "no browser available")
	}
	if len(page.ConsoleErrors) > 0 {
		return Warn(site.Domain, "Functional", "Console Errors",
			fmt.Sprintf("%d console errors during page load", len(page.ConsoleErrors))).
			WithDetail("errors", page.ConsoleErrors)
	}
	return Pass(site.Domain, "Functional", "Console Errors")
}

// checkMobileMarkup fetches the homepage with a mobile user agent and
// compares it against the desktop render: a viewport meta tag must exist,
// and the two bodies should not diverge by more than half.
func (m *FunctionalModule) checkMobileMarkup(ctx context.Context, site config.Site, desktop *RenderedPage) TestResult {
	mobile, err := fetchWithAgent(ctx, m.client, site.BaseURL()+"/", mobileUserAgent)
	if err != nil {
		return Fail(site.Domain, "Functional", "Mobile Markup", err.Error())
	}

	if !viewportMetaPattern.MatchString(mobile.Body) {
		return Warn(site.Domain, "Functional", "Mobile Markup",
			"no viewport meta tag in mobile response")
	}

	if desktop != nil && len(desktop.Body) > 0 {
		ratio := float64(len(mobile.Body)) / float64(len(desktop.Body))
		if ratio < 0.5 || ratio > 2.0 {
			return Warn(site.Domain, "Functional", "Mobile Markup",
				fmt.Sprintf("mobile body diverges from desktop (ratio %.2f)", ratio))
		}
	}
	return Pass(site.Domain, "Functional", "Mobile Markup")
}

// checkNotFoundHandling requests a random nonexistent path and grades the
// 404 behavior, classifying custom versus default error pages by body size
// and webserver signature strings.
func (m *FunctionalModule) checkNotFoundHandling(ctx context.Context, site config.Site) TestResult {
	path := fmt.Sprintf("/sitecheck-missing-%d", rand.Int63())
	page, err := fetchWithAgent(ctx, m.client, joinURL(site.BaseURL(), path), "")
	if err != nil {
		return Fail(site.Domain, "Functional", "404 Handling", err.Error())
	}

	if page.Status != http.StatusNotFound {
		return Warn(site.Domain, "Functional", "404 Handling",
			fmt.Sprintf("nonexistent path returned %d", page.Status))
	}

	lower := strings.ToLower(page.Body)
	for _, sig := range webserverSignatures {
		if strings.Contains(lower, sig) {
			return Warn(site.Domain, "Functional", "404 Handling",
				"default webserver error page").WithDetail("signature", sig)
		}
	}
	if len(page.Body) < 512 {
		return Warn(site.Domain, "Functional", "404 Handling",
			"error page looks like a bare default (tiny body)")
	}
	return Pass(site.Domain, "Functional", "404 Handling").
		WithDetail("custom_error_page", true)
}

// checkAdminSurfaces probes the operator paths on platform sites. Any
// status in the expected set counts: a 401 or redirect to auth is exactly
// what a protected admin surface should do.
func (m *FunctionalModule) checkAdminSurfaces(ctx context.Context, site config.Site) []TestResult {
	var tests []TestResult
	for _, path := range adminProbePaths {
		label := "Admin Surface: " + path
		page, err := fetchWithAgent(ctx, m.client, joinURL(site.BaseURL(), path), "")
		if err != nil {
			tests = append(tests, Fail(site.Domain, "Functional", label, err.Error()))
			continue
		}
		if adminExpectedStatuses[page.Status] || page.Status == http.StatusNotFound {
			tests = append(tests, Pass(site.Domain, "Functional", label).
				WithDetail("status", page.Status))
		} else {
			tests = append(tests, Fail(site.Domain, "Functional", label,
				fmt.Sprintf("unexpected status %d", page.Status)))
		}
	}
	return tests
}
