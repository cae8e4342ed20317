package checker

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ndhoang91/sitecheck-cli/internal/config"
)

const (
	endpointRequestTimeout = 10 * time.Second
	endpointWarnMS         = 5000.0
)

// endpointProbe is one derived URL with the statuses that count as healthy.
type endpointProbe struct {
	label    string
	path     string
	expected map[int]bool
}

func statusSet(codes ...int) map[int]bool {
	set := make(map[int]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}

// deriveEndpoints builds the probe list for a site: homepage always, then
// health/login/api/admin paths by site type and framework.
func deriveEndpoints(site config.Site) []endpointProbe {
	probes := []endpointProbe{
		{label: "Homepage", path: "/", expected: statusSet(200)},
		{label: "Health Check", path: site.ResolvedHealthPath(), expected: statusSet(200, 204)},
	}

	if site.HasLogin() {
		probes = append(probes, endpointProbe{
			label: "Login Page", path: site.ResolvedLoginPath(),
			expected: statusSet(200, 302),
		})
	}

	switch strings.ToLower(site.Type) {
	case "api":
		probes = append(probes,
			endpointProbe{label: "API Root", path: "/api", expected: statusSet(200, 301, 302, 401, 404)},
			endpointProbe{label: "API Docs", path: "/api/docs", expected: statusSet(200, 301, 302, 404)},
		)
	case "n8n":
		probes = append(probes,
			endpointProbe{label: "Workflow Health", path: "/healthz", expected: statusSet(200)},
			endpointProbe{label: "REST Surface", path: "/rest/settings", expected: statusSet(200, 401)},
		)
	case "admin":
		probes = append(probes,
			endpointProbe{label: "Admin Root", path: "/admin", expected: statusSet(200, 301, 302, 401, 403)},
		)
	}

	return probes
}

// EndpointModule issues one request per derived endpoint and grades status
// membership and latency.
type EndpointModule struct {
	cfg    *config.Config
	client *http.Client
}

// NewEndpointModule builds the HTTP endpoint check module.
func NewEndpointModule(cfg *config.Config) *EndpointModule {
	return &EndpointModule{
		cfg:    cfg,
		client: newHTTPClient(endpointRequestTimeout, true),
	}
}

func (m *EndpointModule) Name() string { return "api" }

func (m *EndpointModule) RunAll(ctx context.Context) (ModuleResult, error) {
	if !m.cfg.TestConfig("api").Enabled {
		return NewModuleResult([]TestResult{
			Skip("", "Endpoints", "Endpoint Checks", "disabled in config"),
		}), nil
	}

	var tests []TestResult
	for _, site := range m.cfg.Sites() {
		for _, probe := range deriveEndpoints(site) {
			tests = append(tests, m.checkEndpoint(ctx, site, probe))
		}
	}
	return NewModuleResult(tests), nil
}

func (m *EndpointModule) checkEndpoint(ctx context.Context, site config.Site, probe endpointProbe) TestResult {
	label := fmt.Sprintf("%s (%s)", probe.label, probe.path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinURL(site.BaseURL(), probe.path), nil)
	if err != nil {
		return Fail(site.Domain, "Endpoints", label, err.Error())
	}

	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		return Fail(site.Domain, "Endpoints", label, err.Error())
	}
	elapsed := time.Since(start)
	status := resp.StatusCode
	drainAndClose(resp.Body)

	if !probe.expected[status] {
		return Fail(site.Domain, "Endpoints", label,
			fmt.Sprintf("unexpected status %d", status)).WithLatency(elapsed)
	}
	// Slow but correct responses stay passing with a separate latency flag.
	if float64(elapsed.Milliseconds()) > endpointWarnMS {
		return Warn(site.Domain, "Endpoints", label,
			fmt.Sprintf("slow response: %dms", elapsed.Milliseconds())).
			WithLatency(elapsed).WithDetail("status", status)
	}
	return Pass(site.Domain, "Endpoints", label).
		WithLatency(elapsed).WithDetail("status", status)
}
