// Command riskctl scores bulk upload files offline against a local SQLite
// store and renders reports from it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	manifest string
	dbPath   string
	logLevel string
	low      float64
	high     float64
}

func rootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:   "riskctl",
		Short: "Offline loan default risk scoring",
		Long: `riskctl scores CSV and Excel uploads with the configured model,
stores the results in a local SQLite database, and renders CSV, XLSX or PDF
reports from stored uploads.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.manifest, "manifest", "configs/model.yaml", "Model manifest path")
	pf.StringVar(&g.dbPath, "db", "creditrisk.db", "SQLite database path")
	pf.StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.Float64Var(&g.low, "low", 0.33, "Upper bound of the Low risk band")
	pf.Float64Var(&g.high, "high", 0.66, "Upper bound of the Medium risk band")

	cmd.AddCommand(
		scoreCmd(&g),
		assessCmd(&g),
		reportCmd(&g),
		vocabCmd(&g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "riskctl %s\n", Version)
			},
		},
	)
	return cmd
}
