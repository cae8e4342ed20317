package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ndhoang91/sitecheck-cli/internal/config"
)

const (
	dbRequestTimeout  = 30 * time.Second
	appHealthWarnMS   = 3000.0
	defaultNeonAPIURL = "https://console.neon.tech/api/v2"
)

// Endpoint states the control plane reports as healthy. Anything else
// (init, stopped, unknown) is a warning, not a failure: a scaled-to-zero
// endpoint is expected operational behavior.
var healthyEndpointStates = map[string]bool{
	"active": true,
	"idle":   true,
}

// requiredCloudFields are the credential keys the cloud block must carry.
var requiredCloudFields = []string{"user_ocid", "tenancy_ocid", "fingerprint", "region"}

// DatabaseModule validates the managed-Postgres control plane, the cloud
// credential block, and each site's application health endpoints.
type DatabaseModule struct {
	cfg    *config.Config
	client *http.Client
}

// NewDatabaseModule builds the database/API health check module.
func NewDatabaseModule(cfg *config.Config) *DatabaseModule {
	return &DatabaseModule{
		cfg:    cfg,
		client: newHTTPClient(dbRequestTimeout, true),
	}
}

func (m *DatabaseModule) Name() string { return "database" }

func (m *DatabaseModule) RunAll(ctx context.Context) (ModuleResult, error) {
	if !m.cfg.TestConfig("database").Enabled {
		return NewModuleResult([]TestResult{
			Skip("", "Database", "Database Checks", "disabled in config"),
		}), nil
	}

	var tests []TestResult
	tests = append(tests, m.checkControlPlane(ctx)...)
	tests = append(tests, m.checkCloudCredentials(ctx)...)
	for _, site := range m.cfg.Sites() {
		tests = append(tests, m.checkAppHealth(ctx, site)...)
	}
	return NewModuleResult(tests), nil
}

// neonProject, neonBranch and neonEndpoint mirror the control-plane listing
// payloads, keeping only the fields the walk reads.
type neonProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type neonBranch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type neonEndpoint struct {
	ID    string `json:"id"`
	State string `json:"current_state"`
	Host  string `json:"host"`
}

// checkControlPlane walks projects, branches and compute endpoints of the
// managed-Postgres control plane. An org-scoped key that the projects
// listing rejects falls back to the personal listing before giving up.
func (m *DatabaseModule) checkControlPlane(ctx context.Context) []TestResult {
	api := m.cfg.APIConfig("neon")
	if !api.Enabled {
		return []TestResult{Skip("", "Database", "Control Plane", "integration disabled")}
	}
	key := api.Secret("api_key")
	if key == "" {
		return []TestResult{Skip("", "Database", "Control Plane", "no api key configured")}
	}
	base := api.APIURL
	if base == "" {
		base = defaultNeonAPIURL
	}

	projects, err := m.listProjects(ctx, base, key, api.Extra["org_id"])
	if err != nil {
		return []TestResult{Fail("", "Database", "Control Plane: Project Listing", err.Error())}
	}

	tests := []TestResult{
		Pass("", "Database", "Control Plane: Project Listing").
			WithDetail("projects", len(projects)),
	}
	for _, p := range projects {
		tests = append(tests, m.walkProject(ctx, base, key, p)...)
	}
	return tests
}

// listProjects fetches the org-scoped project list, retrying without the
// org qualifier when the key turns out to be personal-scoped.
func (m *DatabaseModule) listProjects(ctx context.Context, base, key, orgID string) ([]neonProject, error) {
	url := base + "/projects"
	if orgID != "" {
		url += "?org_id=" + orgID
	}

	var payload struct {
		Projects []neonProject `json:"projects"`
	}
	err := m.getJSON(ctx, url, key, &payload)
	if err != nil && orgID != "" && strings.Contains(strings.ToLower(err.Error()), "organization") {
		err = m.getJSON(ctx, base+"/projects", key, &payload)
	}
	if err != nil {
		return nil, err
	}
	return payload.Projects, nil
}

func (m *DatabaseModule) walkProject(ctx context.Context, base, key string, p neonProject) []TestResult {
	var branches struct {
		Branches []neonBranch `json:"branches"`
	}
	if err := m.getJSON(ctx, fmt.Sprintf("%s/projects/%s/branches", base, p.ID), key, &branches); err != nil {
		return []TestResult{Fail("", "Database", "Branches: "+p.Name, err.Error())}
	}

	var tests []TestResult
	for _, b := range branches.Branches {
		var endpoints struct {
			Endpoints []neonEndpoint `json:"endpoints"`
		}
		url := fmt.Sprintf("%s/projects/%s/branches/%s/endpoints", base, p.ID, b.ID)
		if err := m.getJSON(ctx, url, key, &endpoints); err != nil {
			tests = append(tests, Fail("", "Database",
				fmt.Sprintf("Endpoints: %s/%s", p.Name, b.Name), err.Error()))
			continue
		}
		for _, ep := range endpoints.Endpoints {
			label := fmt.Sprintf("Endpoint Health: %s/%s/%s", p.Name, b.Name, ep.ID)
			if healthyEndpointStates[strings.ToLower(ep.State)] {
				tests = append(tests, Pass("", "Database", label).
					WithDetail("state", ep.State))
			} else {
				tests = append(tests, Warn("", "Database", label,
					"endpoint state "+ep.State).WithDetail("host", ep.Host))
			}
		}
	}
	return tests
}

// getJSON performs a bearer-authenticated GET and decodes the body. Non-2xx
// statuses become errors carrying the body's message when present.
func (m *DatabaseModule) getJSON(ctx context.Context, url, key string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyProbeBytes))
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// checkCloudCredentials verifies the cloud credential block carries every
// required field and that the region's identity endpoint answers a HEAD.
func (m *DatabaseModule) checkCloudCredentials(ctx context.Context) []TestResult {
	api := m.cfg.APIConfig("oracle_cloud")
	if !api.Enabled {
		return []TestResult{Skip("", "Database", "Cloud Credentials", "integration disabled")}
	}

	var missing []string
	for _, field := range requiredCloudFields {
		if api.Secret(field) == "" {
			missing = append(missing, field)
		}
	}

	var tests []TestResult
	if len(missing) > 0 {
		tests = append(tests, Fail("", "Database", "Cloud Credentials",
			"missing fields: "+strings.Join(missing, ", ")))
		return tests
	}
	tests = append(tests, Pass("", "Database", "Cloud Credentials"))

	region := api.Secret("region")
	identityURL := fmt.Sprintf("https://identity.%s.oraclecloud.com", region)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, identityURL, nil)
	if err != nil {
		tests = append(tests, Fail("", "Database", "Cloud Region Identity", err.Error()))
		return tests
	}
	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		tests = append(tests, Fail("", "Database", "Cloud Region Identity", err.Error()))
		return tests
	}
	drainAndClose(resp.Body)
	tests = append(tests, Pass("", "Database", "Cloud Region Identity").
		WithLatency(time.Since(start)).
		WithDetail("region", region).
		WithDetail("status", resp.StatusCode))
	return tests
}

// checkAppHealth probes the two conventional application endpoints for a
// site: the health path and the API status path. A 500/503 fails; anything
// else reachable passes, with slow responses flagged.
func (m *DatabaseModule) checkAppHealth(ctx context.Context, site config.Site) []TestResult {
	paths := []string{site.ResolvedHealthPath(), "/api/status"}

	var tests []TestResult
	for _, path := range paths {
		label := "App Health: " + path
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinURL(site.BaseURL(), path), nil)
		if err != nil {
			tests = append(tests, Fail(site.Domain, "Database", label, err.Error()))
			continue
		}
		start := time.Now()
		resp, err := m.client.Do(req)
		if err != nil {
			tests = append(tests, Fail(site.Domain, "Database", label, err.Error()))
			continue
		}
		elapsed := time.Since(start)
		status := resp.StatusCode
		drainAndClose(resp.Body)

		switch {
		case status == http.StatusInternalServerError || status == http.StatusServiceUnavailable:
			tests = append(tests, Fail(site.Domain, "Database", label,
				fmt.Sprintf("status %d", status)).WithLatency(elapsed))
		case float64(elapsed.Milliseconds()) > appHealthWarnMS:
			tests = append(tests, Warn(site.Domain, "Database", label,
				fmt.Sprintf("slow response: %dms", elapsed.Milliseconds())).
				WithLatency(elapsed).WithDetail("status", status))
		default:
			tests = append(tests, Pass(site.Domain, "Database", label).
				WithLatency(elapsed).WithDetail("status", status))
		}
	}
	return tests
}
