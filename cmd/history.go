package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ndhoang91/sitecheck-cli/internal/config"
	"github.com/ndhoang91/sitecheck-cli/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:          "history",
	Short:        "List recent validation runs",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg.OverrideOutputDir(outputDir)

		store, err := history.Open(filepath.Join(cfg.Reporting().OutputDir, "history.db"))
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No recorded runs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tENV\tMODULES\tPASSED\tFAILED\tWARNINGS\tSKIPPED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
				e.Timestamp.Format("2006-01-02 15:04"),
				e.Environment,
				strings.Join(e.Modules, ","),
				e.Passed, e.Failed, e.Warnings, e.Skipped)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of runs to list")
}
