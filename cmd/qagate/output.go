package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/JaimeStill/qagate/internal/analytics"
	"github.com/JaimeStill/qagate/internal/records"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// render writes v in the requested format. Tables are only built for
// table output.
func render(w io.Writer, format string, v any, tables []table.Writer) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		return writeYAML(w, v)
	default:
		for i, t := range tables {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, t.Render())
		}
		return nil
	}
}

// writeYAML emits v with its JSON field names and field order by parsing
// the JSON encoding as a YAML node tree.
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func newTable(title string, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(table.Row(header))
	return t
}

func alignRight(cols ...int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, len(cols))
	for i, n := range cols {
		cfgs[i] = table.ColumnConfig{Number: n, Align: text.AlignRight}
	}
	return cfgs
}

func batchTables(r *records.BatchReport) []table.Writer {
	archive := "-"
	if r.ArchiveKey != nil {
		archive = *r.ArchiveKey
	}

	summary := newTable("Batch "+r.BatchID.String(),
		"Source", "Total", "Admitted", "Duplicates", "Superseded", "Collapsed", "Rejected", "Warnings", "Archive")
	summary.AppendRow(table.Row{
		r.Source, r.Total, r.Admitted, r.Duplicates, r.Superseded, r.Collapsed, len(r.Rejected), len(r.Warnings), archive,
	})
	tables := []table.Writer{summary}

	if len(r.Rejected) > 0 {
		t := newTable("Rejected rows", "Row", "Kind", "Field", "Message")
		for _, rej := range r.Rejected {
			t.AppendRow(table.Row{rej.Row, rej.Kind, rej.Field, rej.Message})
		}
		tables = append(tables, t)
	}

	if len(r.Warnings) > 0 {
		t := newTable("Warnings", "Row", "Kind", "Field", "Value")
		for _, w := range r.Warnings {
			t.AppendRow(table.Row{w.Row, w.Kind, w.Field, fmt.Sprint(w.Value)})
		}
		tables = append(tables, t)
	}

	return tables
}

func dashboardTables(d *analytics.Dashboard) []table.Writer {
	return []table.Writer{
		statusTable(d.Status),
		summaryTable(d.Summary),
		trendTable(d.Trend),
		outlierTable(d.Outliers),
		failureTable(d.Summary),
	}
}

func statusTable(s *analytics.StatusResult) table.Writer {
	state := "no data"
	if s.State != nil {
		state = string(*s.State)
	}

	t := newTable(
		fmt.Sprintf("Status (warning < %s, critical < %s)", number(s.Thresholds.Warning), number(s.Thresholds.Critical)),
		"Group", "Records", "Mean yield", "State",
	)
	t.AppendRow(table.Row{"overall", s.Count, optional(s.MeanYield), state})
	for _, g := range s.Groups {
		t.AppendRow(table.Row{g.Key, g.Count, number(g.MeanYield), g.State})
	}
	t.SetColumnConfigs(alignRight(2, 3))
	return t
}

func summaryTable(s *analytics.Summary) table.Writer {
	t := newTable("Summary", "Metric", "Value")
	t.AppendRows([]table.Row{
		{"Records", s.Records},
		{"From", date(s.From)},
		{"To", date(s.To)},
		{"Mean yield", optional(s.MeanYield)},
		{"Median yield", optional(s.MedianYield)},
		{"Weighted yield", optional(s.WeightedYield)},
		{"Start quantity", number(s.StartQuantity)},
		{"Rejected quantity", number(s.RejectedQuantity)},
		{"Assignees", s.Assignees},
		{"Processes", s.Processes},
	})
	t.SetColumnConfigs(alignRight(2))
	return t
}

func trendTable(tr *analytics.TrendResult) table.Writer {
	t := newTable(
		fmt.Sprintf("Trend (%s buckets, window %d)", tr.Bucket, tr.Window),
		"Bucket", "Records", "Mean yield", "Moving average", "Delta",
	)
	for _, w := range tr.Windows {
		t.AppendRow(table.Row{
			w.Start.Format(time.DateOnly), w.Count, optional(w.MeanYield), optional(w.MovingAverage), optional(w.Delta),
		})
	}
	t.SetColumnConfigs(alignRight(2, 3, 4, 5))
	return t
}

func outlierTable(o *analytics.OutlierResult) table.Writer {
	t := newTable(
		fmt.Sprintf("Outliers (%s by %s, |z| > %s, %d of %d)", o.Method, o.GroupBy, number(o.Threshold), o.Outliers, o.Evaluated),
		"Group", "Lot", "Yield", "Z-score",
	)
	for _, f := range o.Flags {
		if f.IsOutlier {
			t.AppendRow(table.Row{f.GroupKey, f.LotNumber, number(f.YieldPct), number(f.ZScore)})
		}
	}
	t.SetColumnConfigs(alignRight(3, 4))
	return t
}

func failureTable(s *analytics.Summary) table.Writer {
	t := newTable("Failure modes", "Reason", "Count", "Share %", "Cumulative %")
	for _, m := range s.FailureModes {
		t.AppendRow(table.Row{m.Reason, m.Count, number(m.SharePct), number(m.Cumulative)})
	}
	t.SetColumnConfigs(alignRight(2, 3, 4))
	return t
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func optional(f *float64) string {
	if f == nil {
		return "-"
	}
	return number(*f)
}

func date(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}
