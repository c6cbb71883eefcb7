package main

import (
	"github.com/spf13/cobra"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var (
		memory bool
		source string
	)

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Validate and store a JSON or YAML file of raw rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRows(args[0])
			if err != nil {
				return err
			}
			if source != "" {
				req.Source = source
			}

			ws, err := openWorkspace(cmd, opts, memory, nil)
			if err != nil {
				return err
			}
			defer ws.close()

			report, err := ws.records.Ingest(cmd.Context(), req)
			if report != nil {
				if werr := render(cmd.OutOrStdout(), opts.output, report, batchTables(report)); werr != nil {
					return werr
				}
			}
			return err
		},
	}

	f := cmd.Flags()
	f.BoolVar(&memory, "memory", false, "Validate against an in-memory store without persisting")
	f.StringVar(&source, "source", "", "Source label recorded with the batch (default: file name)")
	return cmd
}
