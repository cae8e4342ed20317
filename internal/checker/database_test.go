package checker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ndhoang91/sitecheck-cli/internal/config"
)

func testDatabaseModule() *DatabaseModule {
	return &DatabaseModule{client: newHTTPClient(5*time.Second, true)}
}

func controlPlaneServer(t *testing.T, orgRejects bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if orgRejects && r.URL.Query().Get("org_id") != "" {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{
				"message": "key is not scoped to this organization",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"projects": []map[string]string{{"id": "p1", "name": "main"}},
		})
	})
	mux.HandleFunc("/projects/p1/branches", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"branches": []map[string]string{{"id": "b1", "name": "main"}},
		})
	})
	mux.HandleFunc("/projects/p1/branches/b1/endpoints", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"endpoints": []map[string]string{
				{"id": "ep1", "current_state": "active", "host": "ep1.example"},
				{"id": "ep2", "current_state": "stopped", "host": "ep2.example"},
			},
		})
	})
	return httptest.NewServer(mux)
}

func TestListProjects_OrgKeyFallsBackToPersonal(t *testing.T) {
	server := controlPlaneServer(t, true)
	defer server.Close()

	m := testDatabaseModule()
	projects, err := m.listProjects(context.Background(), server.URL, "test-key", "org-123")
	if err != nil {
		t.Fatalf("expected personal-scope fallback to succeed, got %v", err)
	}
	if len(projects) != 1 || projects[0].ID != "p1" {
		t.Errorf("unexpected projects: %+v", projects)
	}
}

func TestWalkProject_ClassifiesEndpointStates(t *testing.T) {
	server := controlPlaneServer(t, false)
	defer server.Close()

	m := testDatabaseModule()
	results := m.walkProject(context.Background(), server.URL, "test-key",
		neonProject{ID: "p1", Name: "main"})

	var active, stopped *TestResult
	for i := range results {
		if strings.HasSuffix(results[i].Name, "/ep1") {
			active = &results[i]
		}
		if strings.HasSuffix(results[i].Name, "/ep2") {
			stopped = &results[i]
		}
	}
	if active == nil || active.Outcome != OutcomePass {
		t.Errorf("active endpoint should pass, got %+v", active)
	}
	if stopped == nil || stopped.Outcome != OutcomeWarn {
		t.Errorf("stopped endpoint should warn, got %+v", stopped)
	}
}

func TestGetJSON_SurfacesAPIErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"message": "nope"})
	}))
	defer server.Close()

	m := testDatabaseModule()
	var out struct{}
	err := m.getJSON(context.Background(), server.URL, "k", &out)
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("expected API message in error, got %v", err)
	}
}

func TestCheckAppHealth_ServerErrorFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	m := testDatabaseModule()
	site := config.Site{Domain: strings.TrimPrefix(server.URL, "http://"), Protocol: "http"}

	results := m.checkAppHealth(context.Background(), site)

	if len(results) != 2 {
		t.Fatalf("expected 2 health probes, got %d", len(results))
	}
	for _, r := range results {
		if r.Outcome != OutcomeFail {
			t.Errorf("%s: expected fail for 503, got %s", r.Name, r.Outcome)
		}
	}
}

func TestCheckAppHealth_ReachablePasses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := testDatabaseModule()
	site := config.Site{Domain: strings.TrimPrefix(server.URL, "http://"), Protocol: "http"}

	for _, r := range m.checkAppHealth(context.Background(), site) {
		if r.Outcome != OutcomePass {
			t.Errorf("%s: expected pass, got %s (%s)", r.Name, r.Outcome, r.Error)
		}
	}
}
