package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	envName   string
	outputDir string
	verbose   bool
	logger    *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "sitecheck",
	Short: "Validate DNS, TLS, security posture and health of a fleet of web properties",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var l *zap.Logger
		var err error
		if verbose {
			l, err = zap.NewDevelopment()
		} else {
			l, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l.Sugar()
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sitecheck.yaml)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "production", "environment name recorded in reports")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "report output directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
