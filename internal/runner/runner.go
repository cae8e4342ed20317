// Package runner orchestrates the check modules sequentially and merges
// their results into one run summary.
package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ndhoang91/sitecheck-cli/internal/checker"
)

// ModuleReport is one module's entry in the summary: either the module's
// results, or an error message when the module itself blew up.
type ModuleReport struct {
	*checker.ModuleResult
	Error string `json:"error,omitempty"`
}

// RunSummary is the aggregate for one invocation. The embedded tally is the
// sum of every module's counters; modules that errored contribute nothing
// to it.
type RunSummary struct {
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
	checker.Tally
	Modules map[string]ModuleReport `json:"modules"`
}

// Runner invokes its modules in order, pacing between modules when a rate
// limit is configured, and isolates each module's failures from the rest of
// the batch.
type Runner struct {
	modules []checker.Module
	limiter *rate.Limiter
	log     *zap.SugaredLogger
	env     string

	// OnModuleDone, when set, is called after each module finishes, in
	// order. Used by the CLI for live progress.
	OnModuleDone func(name string, report ModuleReport)
}

// New builds a Runner over the given modules. rps <= 0 disables pacing.
func New(modules []checker.Module, rps float64, env string, log *zap.SugaredLogger) *Runner {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{modules: modules, limiter: limiter, log: log, env: env}
}

// Run executes every module strictly sequentially. A module that returns an
// error or panics is recorded as {error: message} and the batch continues;
// one module can never take the others down.
func (r *Runner) Run(ctx context.Context) RunSummary {
	summary := RunSummary{
		Timestamp:   time.Now().UTC(),
		Environment: r.env,
		Modules:     make(map[string]ModuleReport, len(r.modules)),
	}

	for _, m := range r.modules {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				summary.Modules[m.Name()] = ModuleReport{Error: err.Error()}
				r.notify(m.Name(), summary.Modules[m.Name()])
				continue
			}
		}

		r.log.Infow("running module", "module", m.Name())
		result, err := runModule(ctx, m)
		if err != nil {
			r.log.Errorw("module failed", "module", m.Name(), "error", err)
			summary.Modules[m.Name()] = ModuleReport{Error: err.Error()}
			r.notify(m.Name(), summary.Modules[m.Name()])
			continue
		}

		summary.Tally = summary.Tally.Add(result.Tally)
		summary.Modules[m.Name()] = ModuleReport{ModuleResult: &result}
		r.notify(m.Name(), summary.Modules[m.Name()])
		r.log.Infow("module complete",
			"module", m.Name(),
			"passed", result.Passed,
			"failed", result.Failed,
			"warnings", result.Warnings,
			"skipped", result.Skipped,
		)
	}

	return summary
}

func (r *Runner) notify(name string, report ModuleReport) {
	if r.OnModuleDone != nil {
		r.OnModuleDone(name, report)
	}
}

// runModule converts a panic inside a module into an ordinary error so the
// batch survives it.
func runModule(ctx context.Context, m checker.Module) (result checker.ModuleResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("module panic: %v", rec)
		}
	}()
	return m.RunAll(ctx)
}
