package checker

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestReflectedUnescaped(t *testing.T) {
	payload := `<script>alert('sc')</script>`

	cases := []struct {
		name string
		body string
		want bool
	}{
		{"raw reflection", "You searched for " + payload, true},
		{"escaped reflection", "You searched for " + html.EscapeString(payload), false},
		{"no reflection", "nothing here", false},
		{"both raw and escaped", payload + html.EscapeString(payload), true},
	}
	for _, tc := range cases {
		if got := reflectedUnescaped(tc.body, payload); got != tc.want {
			t.Errorf("%s: reflectedUnescaped = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestProbePathForXSS_RawReflectionFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Echo the parameter back without escaping.
		fmt.Fprintf(w, "<html><body>results for %s</body></html>", r.URL.Query().Get("q"))
	}))
	defer server.Close()

	client := newHTTPClient(5*time.Second, true)
	result := probePathForXSS(context.Background(), client, "a.example", server.URL, "/")

	if result.Outcome != OutcomeFail {
		t.Errorf("expected fail for raw reflection, got %s (%s)", result.Outcome, result.Error)
	}
}

func TestProbePathForXSS_EscapedReflectionPasses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body>results for %s</body></html>",
			html.EscapeString(r.URL.Query().Get("q")))
	}))
	defer server.Close()

	client := newHTTPClient(5*time.Second, true)
	result := probePathForXSS(context.Background(), client, "a.example", server.URL, "/")

	if result.Outcome != OutcomePass {
		t.Errorf("expected pass for escaped reflection, got %s (%s)", result.Outcome, result.Error)
	}
}

func TestProbePathForXSS_NotFoundSkips(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := newHTTPClient(5*time.Second, true)
	result := probePathForXSS(context.Background(), client, "a.example", server.URL, "/search")

	// Every probe answered 404: the path was never exercised, so the
	// result is a skip, not a clean pass.
	if result.Outcome != OutcomeSkip {
		t.Errorf("expected skip when path only serves 404s, got %s", result.Outcome)
	}
}

func TestProbePathForXSS_MixedNotFoundStillCounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "<html><body>results for %s</body></html>",
			html.EscapeString(r.URL.Query().Get("q")))
	}))
	defer server.Close()

	client := newHTTPClient(5*time.Second, true)
	result := probePathForXSS(context.Background(), client, "a.example", server.URL, "/")

	if result.Outcome != OutcomePass {
		t.Errorf("expected pass when some probes land, got %s", result.Outcome)
	}
}
