// Package analytics computes trends, outliers, health status and KPIs
// over snapshots of stored QA gate records.
package analytics

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/qagate/internal/records"
	"github.com/JaimeStill/qagate/pkg/stats"
)

// Source supplies record snapshots ordered by timestamp.
type Source interface {
	Query(ctx context.Context, filter records.Filter) ([]records.Record, error)
}

// System defines the analytics operations. Each call reads one snapshot
// from the Source and computes over it without shared state.
type System interface {
	Handler() *Handler

	Trend(ctx context.Context, filter records.Filter, params TrendParams) (*TrendResult, error)
	Outliers(ctx context.Context, filter records.Filter, params OutlierParams) (*OutlierResult, error)
	Status(ctx context.Context, filter records.Filter, params StatusParams) (*StatusResult, error)
	Summary(ctx context.Context, filter records.Filter) (*Summary, error)

	// Dashboard computes trend, outliers, status and summary concurrently
	// over a single snapshot using the configured defaults.
	Dashboard(ctx context.Context, filter records.Filter) (*Dashboard, error)
}

// TrendParams overrides the configured trend defaults. Zero fields keep them.
type TrendParams struct {
	Window int
	Bucket Bucket
}

// OutlierParams overrides the configured outlier defaults. Zero fields keep them.
type OutlierParams struct {
	GroupBy   GroupBy
	Threshold *float64
	Method    Method
}

// StatusParams overrides the configured thresholds. GroupBy adds a
// per-group breakdown when set.
type StatusParams struct {
	Warning  *float64
	Critical *float64
	GroupBy  GroupBy
}

type TrendResult struct {
	Bucket  Bucket            `json:"bucket"`
	Window  int               `json:"window"`
	Windows []AggregateWindow `json:"windows"`
}

type OutlierResult struct {
	GroupBy   GroupBy       `json:"group_by"`
	Method    Method        `json:"method"`
	Threshold float64       `json:"threshold"`
	Evaluated int           `json:"evaluated"`
	Outliers  int           `json:"outliers"`
	Flags     []OutlierFlag `json:"flags"`
}

// GroupStatus is the health of one group in a status breakdown.
type GroupStatus struct {
	Key       string  `json:"key"`
	Count     int     `json:"count"`
	MeanYield float64 `json:"mean_yield"`
	State     State   `json:"state"`
}

// StatusResult is the aggregate health of a record set. MeanYield and
// State are nil when no records match.
type StatusResult struct {
	Thresholds Thresholds    `json:"thresholds"`
	Count      int           `json:"count"`
	MeanYield  *float64      `json:"mean_yield"`
	State      *State        `json:"state"`
	GroupBy    GroupBy       `json:"group_by,omitempty"`
	Groups     []GroupStatus `json:"groups,omitempty"`
}

type Dashboard struct {
	Trend    *TrendResult   `json:"trend"`
	Outliers *OutlierResult `json:"outliers"`
	Status   *StatusResult  `json:"status"`
	Summary  *Summary       `json:"summary"`
}

type repo struct {
	source   Source
	config   Config
	excluded []string
	logger   *slog.Logger
}

// New creates the analytics System. cfg must have been finalized.
// excluded lists failure reasons left out of the Pareto.
func New(source Source, cfg Config, excluded []string, logger *slog.Logger) System {
	return &repo{
		source:   source,
		config:   cfg,
		excluded: excluded,
		logger:   logger.With("system", "analytics"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Trend(ctx context.Context, filter records.Filter, params TrendParams) (*TrendResult, error) {
	snapshot, err := r.snapshot(ctx, filter)
	if err != nil {
		return nil, err
	}
	return r.trend(snapshot, params)
}

func (r *repo) Outliers(ctx context.Context, filter records.Filter, params OutlierParams) (*OutlierResult, error) {
	snapshot, err := r.snapshot(ctx, filter)
	if err != nil {
		return nil, err
	}
	return r.outliers(snapshot, params)
}

func (r *repo) Status(ctx context.Context, filter records.Filter, params StatusParams) (*StatusResult, error) {
	snapshot, err := r.snapshot(ctx, filter)
	if err != nil {
		return nil, err
	}
	return r.status(snapshot, params)
}

func (r *repo) Summary(ctx context.Context, filter records.Filter) (*Summary, error) {
	snapshot, err := r.snapshot(ctx, filter)
	if err != nil {
		return nil, err
	}
	s := Summarize(snapshot, r.excluded, r.config.TopFailureModes)
	return &s, nil
}

func (r *repo) Dashboard(ctx context.Context, filter records.Filter) (*Dashboard, error) {
	snapshot, err := r.snapshot(ctx, filter)
	if err != nil {
		return nil, err
	}

	var d Dashboard
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		d.Trend, err = r.trend(snapshot, TrendParams{})
		return err
	})
	g.Go(func() error {
		var err error
		d.Outliers, err = r.outliers(snapshot, OutlierParams{})
		return err
	})
	g.Go(func() error {
		var err error
		d.Status, err = r.status(snapshot, StatusParams{GroupBy: ByProcess})
		return err
	})
	g.Go(func() error {
		s := Summarize(snapshot, r.excluded, r.config.TopFailureModes)
		d.Summary = &s
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("dashboard computed", "records", len(snapshot))
	return &d, nil
}

// snapshot reads the records for filter. Filter errors pass through;
// anything else is reported as the store being unavailable.
func (r *repo) snapshot(ctx context.Context, filter records.Filter) ([]records.Record, error) {
	recs, err := r.source.Query(ctx, filter)
	if err != nil {
		if errors.Is(err, records.ErrInvalidFilter) || errors.Is(err, records.ErrStoreUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", records.ErrStoreUnavailable, err)
	}
	return recs, nil
}

func (r *repo) trend(snapshot []records.Record, params TrendParams) (*TrendResult, error) {
	window := cmp.Or(params.Window, r.config.Window)
	bucket := cmp.Or(params.Bucket, Bucket(r.config.Bucket))

	windows, err := ComputeTrend(snapshot, window, bucket)
	if err != nil {
		return nil, err
	}
	return &TrendResult{Bucket: bucket, Window: window, Windows: windows}, nil
}

func (r *repo) outliers(snapshot []records.Record, params OutlierParams) (*OutlierResult, error) {
	groupBy := cmp.Or(params.GroupBy, GroupBy(r.config.GroupBy))
	method := cmp.Or(params.Method, Method(r.config.OutlierMethod))
	threshold := r.config.OutlierThreshold
	if params.Threshold != nil {
		threshold = *params.Threshold
	}

	flags, err := Detect(snapshot, groupBy, threshold, method)
	if err != nil {
		return nil, err
	}

	result := &OutlierResult{
		GroupBy:   groupBy,
		Method:    method,
		Threshold: threshold,
		Evaluated: len(flags),
		Flags:     flags,
	}
	for _, f := range flags {
		if f.IsOutlier {
			result.Outliers++
		}
	}
	return result, nil
}

func (r *repo) status(snapshot []records.Record, params StatusParams) (*StatusResult, error) {
	thresholds := r.config.Thresholds()
	if params.Warning != nil || params.Critical != nil {
		warning, critical := thresholds.Warning, thresholds.Critical
		if params.Warning != nil {
			warning = *params.Warning
		}
		if params.Critical != nil {
			critical = *params.Critical
		}
		t, err := NewThresholds(warning, critical)
		if err != nil {
			return nil, err
		}
		thresholds = t
	}

	result := &StatusResult{Thresholds: thresholds, Count: len(snapshot)}

	var all stats.Moments
	for _, rec := range snapshot {
		all.Add(rec.YieldPct)
	}
	if all.Count() > 0 {
		mean := all.Mean()
		state := Classify(mean, thresholds)
		result.MeanYield = &mean
		result.State = &state
	}

	if params.GroupBy == "" {
		return result, nil
	}
	if _, err := ParseGroupBy(string(params.GroupBy)); err != nil {
		return nil, err
	}

	groups := make(map[string]*stats.Moments)
	for _, rec := range snapshot {
		key := params.GroupBy.Key(rec)
		m, ok := groups[key]
		if !ok {
			m = &stats.Moments{}
			groups[key] = m
		}
		m.Add(rec.YieldPct)
	}

	result.GroupBy = params.GroupBy
	result.Groups = make([]GroupStatus, 0, len(groups))
	for key, m := range groups {
		result.Groups = append(result.Groups, GroupStatus{
			Key:       key,
			Count:     m.Count(),
			MeanYield: m.Mean(),
			State:     Classify(m.Mean(), thresholds),
		})
	}
	slices.SortFunc(result.Groups, func(a, b GroupStatus) int {
		return cmp.Compare(a.Key, b.Key)
	})

	return result, nil
}
