package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/qagate/internal/config"
	"github.com/JaimeStill/qagate/internal/records"
)

type reportFlags struct {
	file     string
	from     string
	to       string
	assignee string
	process  string
	bucket   string
	groupBy  string
	window   int
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report trend, outliers, status and failure modes",
		Long: "report computes the analytics dashboard over the configured record\n" +
			"store, or over the rows in --file loaded into an in-memory store.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, opts, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.file, "file", "", "Analyze this JSON or YAML row file offline instead of the store")
	f.StringVar(&flags.from, "from", "", "Earliest timestamp (RFC 3339 or YYYY-MM-DD)")
	f.StringVar(&flags.to, "to", "", "Latest timestamp, exclusive (RFC 3339 or YYYY-MM-DD, inclusive day)")
	f.StringVar(&flags.assignee, "assignee", "", "Only records for this assignee")
	f.StringVar(&flags.process, "process", "", "Only records for this canonical process")
	f.StringVar(&flags.bucket, "bucket", "", "Trend bucket: day, week or month")
	f.StringVar(&flags.groupBy, "group-by", "", "Outlier grouping: assignee, process, lot_number or none")
	f.IntVar(&flags.window, "window", 0, "Moving average window in buckets")
	return cmd
}

func runReport(cmd *cobra.Command, opts *rootOptions, flags reportFlags) error {
	filter, err := records.FilterFromQuery(url.Values{
		"from":     {flags.from},
		"to":       {flags.to},
		"assignee": {flags.assignee},
		"process":  {flags.process},
	})
	if err != nil {
		return err
	}

	offline := flags.file != ""
	ws, err := openWorkspace(cmd, opts, offline, flags.apply)
	if err != nil {
		return err
	}
	defer ws.close()

	ctx := cmd.Context()

	if offline {
		req, err := readRows(flags.file)
		if err != nil {
			return err
		}
		if _, err := ws.records.Ingest(ctx, req); err != nil {
			return fmt.Errorf("load %s: %w", flags.file, err)
		}
	}

	dashboard, err := ws.analytics.Dashboard(ctx, filter)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), opts.output, dashboard, dashboardTables(dashboard))
}

// apply overrides the analytics defaults and revalidates them.
func (f reportFlags) apply(cfg *config.Config) error {
	if f.bucket != "" {
		cfg.Analytics.Bucket = f.bucket
	}
	if f.groupBy != "" {
		cfg.Analytics.GroupBy = f.groupBy
	}
	if f.window != 0 {
		cfg.Analytics.Window = f.window
	}
	if err := cfg.Analytics.Finalize(nil); err != nil {
		return fmt.Errorf("analytics: %w", err)
	}
	return nil
}
