package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ndhoang91/sitecheck-cli/internal/checker"
	"github.com/ndhoang91/sitecheck-cli/internal/config"
	"github.com/ndhoang91/sitecheck-cli/internal/history"
	"github.com/ndhoang91/sitecheck-cli/internal/report"
	"github.com/ndhoang91/sitecheck-cli/internal/runner"
)

var (
	selectAll      bool
	selectCDN      bool
	selectSecurity bool
	selectDatabase bool
	selectAPI      bool
	selectSites    bool
	siteFilter     string
	rateLimit      float64
	runTimeout     time.Duration
	noHistory      bool
)

var checkCmd = &cobra.Command{
	Use:          "check",
	Short:        "Run the validation battery against the configured sites",
	SilenceUsage: true,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyConfigDefaults(cfg.Defaults())
	cfg.SetEnvironment(envName)
	cfg.ApplySiteFilter(siteFilter)
	cfg.OverrideOutputDir(outputDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	modules, closeModules := selectModules(ctx, cfg)
	defer closeModules()
	if len(modules) == 0 {
		return &NoModulesSelectedError{}
	}

	progress := newProgressPrinter(len(modules))
	progress.Start()

	r := runner.New(modules, rateLimit, cfg.Environment(), logger)
	r.OnModuleDone = func(name string, rep runner.ModuleReport) {
		if rep.ModuleResult != nil {
			progress.ModuleDone(rep.ModuleResult.Passed, rep.ModuleResult.Failed)
		} else {
			progress.ModuleDone(0, 0)
		}
	}

	summary := r.Run(ctx)
	progress.Stop()

	printSummary(summary)

	reporting := cfg.Reporting()
	written, err := report.Write(summary, reporting.OutputDir, reporting.Formats)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Printf("Report written: %s\n", path)
	}

	if !noHistory {
		recordHistory(reporting.OutputDir, summary, written)
	}

	if summary.Failed > 0 {
		return &ValidationFailedError{Failed: summary.Failed}
	}
	return nil
}

// selectModules builds the requested module set in the fixed run order.
// No selector flag means all five.
func selectModules(ctx context.Context, cfg *config.Config) ([]checker.Module, func()) {
	anySelected := selectCDN || selectSecurity || selectDatabase || selectAPI || selectSites
	want := func(flag bool) bool { return selectAll || !anySelected || flag }

	var modules []checker.Module
	closeFns := []func(){}

	if want(selectCDN) {
		modules = append(modules, checker.NewCDNModule(cfg))
	}
	if want(selectSecurity) {
		modules = append(modules, checker.NewSecurityModule(cfg))
	}
	if want(selectDatabase) {
		modules = append(modules, checker.NewDatabaseModule(cfg))
	}
	if want(selectAPI) {
		modules = append(modules, checker.NewEndpointModule(cfg))
	}
	if want(selectSites) {
		fm := checker.NewFunctionalModule(ctx, cfg)
		modules = append(modules, fm)
		closeFns = append(closeFns, fm.Close)
	}

	return modules, func() {
		for _, fn := range closeFns {
			fn()
		}
	}
}

// printSummary renders the per-module counters and failing checks as a
// colored table.
func printSummary(summary runner.RunSummary) {
	fmt.Printf("\n%s\n", colorInfo("=== Validation Summary ==="))
	fmt.Printf("Environment: %s  Time: %s\n\n",
		summary.Environment, summary.Timestamp.Format(time.RFC3339))

	names := make([]string, 0, len(summary.Modules))
	for name := range summary.Modules {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODULE\tPASSED\tFAILED\tWARNINGS\tSKIPPED")
	for _, name := range names {
		mod := summary.Modules[name]
		if mod.Error != "" {
			fmt.Fprintf(w, "%s\t%s\t\t\t\n", name, colorError("error: "+mod.Error))
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", name,
			mod.Passed, mod.Failed, mod.Warnings, mod.Skipped)
	}
	fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", "TOTAL",
		summary.Passed, summary.Failed, summary.Warnings, summary.Skipped)
	w.Flush()

	if summary.Failed == 0 {
		fmt.Printf("\n%s\n", colorSuccess("All checks passed"))
		return
	}

	fmt.Printf("\n%s\n", colorError("Failed checks:"))
	fw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, name := range names {
		mod := summary.Modules[name]
		if mod.ModuleResult == nil {
			continue
		}
		for _, t := range mod.Tests {
			if t.Outcome != checker.OutcomeFail {
				continue
			}
			fmt.Fprintf(fw, "%s\t%s\t%s\t%s\t%s\n",
				formatOutcome(t.Outcome), name, t.Domain, t.Name, t.Error)
		}
	}
	fw.Flush()
}

// recordHistory writes the run row. History problems are logged and
// swallowed: the run already succeeded or failed on its own terms.
func recordHistory(outputDir string, summary runner.RunSummary, reports []string) {
	store, err := history.Open(filepath.Join(outputDir, "history.db"))
	if err != nil {
		logger.Warnw("history store unavailable", "error", err)
		return
	}
	defer store.Close()
	if err := store.Record(summary, reports); err != nil {
		logger.Warnw("failed to record run history", "error", err)
	}
}

func init() {
	checkCmd.RunE = runCheck
	checkCmd.Flags().BoolVar(&selectAll, "all", false, "run every check module")
	checkCmd.Flags().BoolVar(&selectCDN, "cdn", false, "run DNS/TLS/CDN checks")
	checkCmd.Flags().BoolVar(&selectSecurity, "security", false, "run security checks")
	checkCmd.Flags().BoolVar(&selectDatabase, "database", false, "run database/API health checks")
	checkCmd.Flags().BoolVar(&selectAPI, "api", false, "run HTTP endpoint checks")
	checkCmd.Flags().BoolVar(&selectSites, "sites", false, "run functional site checks")
	checkCmd.Flags().StringVar(&siteFilter, "site", "", "restrict the run to one domain")
	checkCmd.Flags().Float64Var(&rateLimit, "rate", 0, "max module starts per second (0 = unpaced)")
	checkCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "overall run deadline (0 = none)")
	checkCmd.Flags().BoolVar(&noHistory, "no-history", false, "skip recording this run in the history db")
}
