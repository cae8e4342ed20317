package checker

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSummarize_CountersMatchOutcomes(t *testing.T) {
	tests := []TestResult{
		Pass("a.example", "DNS", "A Record Resolution"),
		Pass("a.example", "SSL", "Certificate Validity"),
		Fail("a.example", "SSL", "HTTP to HTTPS Redirect", "status 200"),
		Warn("a.example", "CDN", "Edge Response Headers", "no edge headers"),
		Skip("a.example", "Functional", "Login Page Reachable", "no local login"),
	}

	tally := Summarize(tests)

	if tally.Passed != 2 || tally.Failed != 1 {
		t.Errorf("expected 2 passed / 1 failed, got %d / %d", tally.Passed, tally.Failed)
	}
	if tally.Warnings != 1 || tally.Skipped != 1 {
		t.Errorf("expected 1 warning / 1 skip, got %d / %d", tally.Warnings, tally.Skipped)
	}

	// Pass/fail outcomes alone account for passed+failed; warnings and
	// skips never double-count.
	passFail := 0
	for _, r := range tests {
		if r.Outcome == OutcomePass || r.Outcome == OutcomeFail {
			passFail++
		}
	}
	if tally.Passed+tally.Failed != passFail {
		t.Errorf("passed+failed = %d, want %d", tally.Passed+tally.Failed, passFail)
	}
}

func TestTallyAdd(t *testing.T) {
	a := Tally{Passed: 1, Failed: 2, Skipped: 3, Warnings: 4}
	b := Tally{Passed: 10, Failed: 20, Skipped: 30, Warnings: 40}

	sum := a.Add(b)

	if sum.Passed != 11 || sum.Failed != 22 || sum.Skipped != 33 || sum.Warnings != 44 {
		t.Errorf("unexpected sum: %+v", sum)
	}
	if a.Passed != 1 {
		t.Error("Add must not mutate the receiver")
	}
}

func TestWithLatency_ClampsNegative(t *testing.T) {
	r := Pass("a.example", "DNS", "A Record Resolution").WithLatency(-5 * time.Second)
	if r.LatencyMS != 0 {
		t.Errorf("expected clamped latency 0, got %f", r.LatencyMS)
	}

	r = r.WithLatency(1500 * time.Millisecond)
	if r.LatencyMS != 1500 {
		t.Errorf("expected 1500ms, got %f", r.LatencyMS)
	}
}

func TestWithDetail_DoesNotShareMaps(t *testing.T) {
	base := Pass("a.example", "CDN", "Edge Network Protection").WithDetail("edge_ip", "1.2.3.4")
	derived := base.WithDetail("extra", true)

	if _, ok := base.Details["extra"]; ok {
		t.Error("WithDetail leaked into the original result")
	}
	if derived.Details["edge_ip"] != "1.2.3.4" {
		t.Error("WithDetail dropped existing keys")
	}
}

func TestModuleResult_JSONRoundTrip(t *testing.T) {
	original := NewModuleResult([]TestResult{
		Pass("a.example", "DNS", "A Record Resolution").WithLatency(42 * time.Millisecond),
		Fail("a.example", "SSL", "Certificate Validity", "certificate expired"),
		Warn("", "Database", "Control Plane", "endpoint state stopped"),
	})

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded ModuleResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Tally != original.Tally {
		t.Errorf("tally changed over round trip: %+v vs %+v", decoded.Tally, original.Tally)
	}
	if len(decoded.Tests) != len(original.Tests) {
		t.Errorf("test count changed: %d vs %d", len(decoded.Tests), len(original.Tests))
	}
	if decoded.Tests[0].LatencyMS != 42 {
		t.Errorf("latency changed: %f", decoded.Tests[0].LatencyMS)
	}
}
