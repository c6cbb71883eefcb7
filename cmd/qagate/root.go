package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	configDir string
	output    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "qagate",
		Short: "Ingest QA gate records and report yield health",
		Long: "qagate validates exported QA gate rows into the record store and\n" +
			"reports yield trends, outliers, health status and failure modes.",
		Version:      version,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return validateOutput(opts.output)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configDir, "config", ".", "Directory containing config.toml and .env")
	f.StringVarP(&opts.output, "output", "o", outputTable, "Output format: table, json or yaml")

	cmd.AddCommand(newIngestCmd(opts))
	cmd.AddCommand(newReportCmd(opts))
	return cmd
}
