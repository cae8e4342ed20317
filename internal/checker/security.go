package checker

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ndhoang91/sitecheck-cli/internal/config"
)

const securityRequestTimeout = 15 * time.Second

// SecurityModule runs the header, disclosure, cookie, CORS, sensitive-file,
// XSS, CSRF and rate-limit battery. The header and disclosure checks are
// always on; the probing checks honor the per-option toggles in the
// security test config.
type SecurityModule struct {
	cfg    *config.Config
	client *http.Client
}

// NewSecurityModule builds the security check module.
func NewSecurityModule(cfg *config.Config) *SecurityModule {
	return &SecurityModule{
		cfg:    cfg,
		client: newHTTPClient(securityRequestTimeout, true),
	}
}

func (m *SecurityModule) Name() string { return "security" }

func (m *SecurityModule) RunAll(ctx context.Context) (ModuleResult, error) {
	tc := m.cfg.TestConfig("security")
	if !tc.Enabled {
		return NewModuleResult([]TestResult{
			Skip("", "Headers", "Security Checks", "disabled in config"),
		}), nil
	}

	var tests []TestResult
	for _, site := range m.cfg.Sites() {
		tests = append(tests, m.checkSite(ctx, site, tc)...)
	}
	return NewModuleResult(tests), nil
}

// optionEnabled reads a boolean toggle from the category options, defaulting
// to enabled when unset.
func optionEnabled(tc config.TestConfig, key string) bool {
	v, ok := tc.Options[key]
	if !ok {
		return true
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return !strings.EqualFold(b, "false")
	default:
		return true
	}
}

func (m *SecurityModule) checkSite(ctx context.Context, site config.Site, tc config.TestConfig) []TestResult {
	var tests []TestResult

	// One homepage GET feeds both the header table and the cookie grading.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, site.BaseURL()+"/", nil)
	if err != nil {
		return []TestResult{Fail(site.Domain, "Headers", "Security Headers", err.Error())}
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return []TestResult{Fail(site.Domain, "Headers", "Security Headers", err.Error())}
	}
	headers := resp.Header
	cookieResp := resp
	drainAndClose(resp.Body)

	tests = append(tests, checkSecurityHeaders(site.Domain, headers)...)
	tests = append(tests, checkInfoDisclosure(site.Domain, headers)...)
	if optionEnabled(tc, "cookies") {
		tests = append(tests, checkCookies(site.Domain, cookieResp)...)
	}

	if optionEnabled(tc, "cors") {
		tests = append(tests, checkCORS(ctx, m.client, site.Domain, site.BaseURL()))
	}
	if optionEnabled(tc, "sensitive_files") {
		tests = append(tests, checkSensitiveFiles(ctx, m.client, site.Domain, site.BaseURL()))
	}

	if optionEnabled(tc, "xss") {
		tests = append(tests, checkXSSReflection(ctx, m.client, site.Domain, site.BaseURL())...)
	}

	if site.HasLogin() {
		loginURL := joinURL(site.BaseURL(), site.ResolvedLoginPath())
		if optionEnabled(tc, "csrf") {
			tests = append(tests, checkCSRF(ctx, m.client, site.Domain, loginURL)...)
		}
		if optionEnabled(tc, "rate_limit") {
			tests = append(tests, m.checkLoginRateLimit(ctx, site.Domain, loginURL))
		}
	}

	return tests
}

const rateLimitAttempts = 10

// checkLoginRateLimit fires a burst of failed logins. Passing evidence is a
// 429 or 403 at any point, or response times that clearly climb across the
// burst. No evidence is a warning, never a hard failure: plenty of stacks
// rate-limit at layers this probe cannot see.
func (m *SecurityModule) checkLoginRateLimit(ctx context.Context, domain, loginURL string) TestResult {
	form := url.Values{
		"username": {"sitecheck-probe"},
		"password": {"definitely-wrong"},
	}
	body := form.Encode()

	var timings []time.Duration
	for i := 0; i < rateLimitAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL,
			strings.NewReader(body))
		if err != nil {
			return Fail(domain, "RateLimit", "Login Rate Limiting", err.Error())
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		start := time.Now()
		resp, err := m.client.Do(req)
		if err != nil {
			// Dropped connections mid-burst read as throttling.
			return Pass(domain, "RateLimit", "Login Rate Limiting").
				WithDetail("evidence", "connection rejected mid-burst").
				WithDetail("attempt", i+1)
		}
		status := resp.StatusCode
		drainAndClose(resp.Body)
		timings = append(timings, time.Since(start))

		if status == http.StatusTooManyRequests || status == http.StatusForbidden {
			return Pass(domain, "RateLimit", "Login Rate Limiting").
				WithDetail("status", status).
				WithDetail("attempt", i+1)
		}
	}

	if timingsTrendUpward(timings) {
		return Pass(domain, "RateLimit", "Login Rate Limiting").
			WithDetail("evidence", "response times climb across burst")
	}
	return Warn(domain, "RateLimit", "Login Rate Limiting",
		"no throttling observed across rapid failed logins")
}

// timingsTrendUpward compares the average of the last third of the burst
// against the first third.
func timingsTrendUpward(timings []time.Duration) bool {
	if len(timings) < 6 {
		return false
	}
	third := len(timings) / 3
	var head, tail time.Duration
	for _, t := range timings[:third] {
		head += t
	}
	for _, t := range timings[len(timings)-third:] {
		tail += t
	}
	return tail > head*2
}
