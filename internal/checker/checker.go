package checker

import (
	"context"
	"time"
)

// Outcome classifies a single check. Passed/failed drive the exit code;
// warnings and skips are tracked separately and never double-count.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	OutcomeWarn Outcome = "warn"
	OutcomeSkip Outcome = "skip"
)

// TestResult is one atomic check outcome. Created by exactly one check,
// never mutated afterwards.
type TestResult struct {
	Domain    string         `json:"domain,omitempty"`
	Category  string         `json:"category"`
	Name      string         `json:"name"`
	Outcome   Outcome        `json:"outcome"`
	Passed    bool           `json:"passed"`
	LatencyMS float64        `json:"latency_ms,omitempty"`
	Error     string         `json:"error,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Pass records a passing check.
func Pass(domain, category, name string) TestResult {
	return TestResult{Domain: domain, Category: category, Name: name, Outcome: OutcomePass, Passed: true}
}

// Fail records a failing check with an optional error string.
func Fail(domain, category, name, errMsg string) TestResult {
	return TestResult{Domain: domain, Category: category, Name: name, Outcome: OutcomeFail, Error: errMsg}
}

// Warn records a non-fatal finding.
func Warn(domain, category, name, errMsg string) TestResult {
	return TestResult{Domain: domain, Category: category, Name: name, Outcome: OutcomeWarn, Error: errMsg}
}

// Skip records a check that was deliberately not attempted.
func Skip(domain, category, name, reason string) TestResult {
	r := TestResult{Domain: domain, Category: category, Name: name, Outcome: OutcomeSkip}
	if reason != "" {
		r.Details = map[string]any{"reason": reason}
	}
	return r
}

// WithLatency returns a copy carrying the measured latency. Negative
// durations are clamped to zero so LatencyMS is always non-negative.
func (r TestResult) WithLatency(d time.Duration) TestResult {
	if d < 0 {
		d = 0
	}
	r.LatencyMS = float64(d.Milliseconds())
	return r
}

// WithDetail returns a copy with one detail key set.
func (r TestResult) WithDetail(key string, value any) TestResult {
	details := make(map[string]any, len(r.Details)+1)
	for k, v := range r.Details {
		details[k] = v
	}
	details[key] = value
	r.Details = details
	return r
}

// Tally holds the four run counters. Tallies are values: checks return
// results, Summarize derives the counts, and callers merge with Add.
// Nothing mutates a shared counter in place.
type Tally struct {
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
	Warnings int `json:"warnings"`
}

// Add returns the element-wise sum of two tallies.
func (t Tally) Add(o Tally) Tally {
	return Tally{
		Passed:   t.Passed + o.Passed,
		Failed:   t.Failed + o.Failed,
		Skipped:  t.Skipped + o.Skipped,
		Warnings: t.Warnings + o.Warnings,
	}
}

// Summarize computes the tally for a result list. passed+failed always
// equals the number of pass/fail outcomes; warnings and skips are counted
// apart.
func Summarize(tests []TestResult) Tally {
	var t Tally
	for _, r := range tests {
		switch r.Outcome {
		case OutcomePass:
			t.Passed++
		case OutcomeFail:
			t.Failed++
		case OutcomeWarn:
			t.Warnings++
		case OutcomeSkip:
			t.Skipped++
		}
	}
	return t
}

// ModuleResult is the uniform return of every check module.
type ModuleResult struct {
	Tally
	Tests []TestResult `json:"tests"`
}

// NewModuleResult builds a ModuleResult with counters derived from tests.
func NewModuleResult(tests []TestResult) ModuleResult {
	return ModuleResult{Tally: Summarize(tests), Tests: tests}
}

// Module is the contract shared by the five check modules. RunAll performs
// the module's full battery against the configured sites; transport errors
// are recorded as results, never returned. A non-nil error means the module
// itself blew up and the aggregator should record it as such.
type Module interface {
	Name() string
	RunAll(ctx context.Context) (ModuleResult, error)
}
