package analytics

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/JaimeStill/qagate/internal/records"
	"github.com/JaimeStill/qagate/pkg/stats"
)

// FailureMode is one bar of the failure-mode Pareto.
type FailureMode struct {
	Reason     string  `json:"reason"`
	Count      int     `json:"count"`
	SharePct   float64 `json:"share_pct"`
	Cumulative float64 `json:"cumulative_pct"`
}

// Summary holds headline KPIs over a record set.
type Summary struct {
	Records          int           `json:"records"`
	From             *time.Time    `json:"from"`
	To               *time.Time    `json:"to"`
	MeanYield        *float64      `json:"mean_yield"`
	MedianYield      *float64      `json:"median_yield"`
	StartQuantity    float64       `json:"start_quantity"`
	RejectedQuantity float64       `json:"rejected_quantity"`
	WeightedYield    *float64      `json:"weighted_yield"`
	Assignees        int           `json:"assignees"`
	Processes        int           `json:"processes"`
	FailureModes     []FailureMode `json:"failure_modes"`
}

// Summarize computes KPIs over recs. WeightedYield is the yield over the
// summed start and rejected quantities, nil when no record carries a
// positive start quantity. FailureModes lists the topN most frequent
// failure reasons, skipping excluded ones case-insensitively; topN < 1
// lists all of them.
func Summarize(recs []records.Record, excluded []string, topN int) Summary {
	s := Summary{Records: len(recs), FailureModes: []FailureMode{}}
	if len(recs) == 0 {
		return s
	}

	skip := make(map[string]struct{}, len(excluded))
	for _, e := range excluded {
		skip[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}

	var (
		yields    = make([]float64, 0, len(recs))
		assignees = map[string]struct{}{}
		processes = map[string]struct{}{}
		failures  = map[string]int{}
		failTotal int
	)

	from, to := recs[0].Timestamp, recs[0].Timestamp
	for _, rec := range recs {
		yields = append(yields, rec.YieldPct)
		assignees[rec.Assignee] = struct{}{}
		processes[rec.Process] = struct{}{}

		if rec.Timestamp.Before(from) {
			from = rec.Timestamp
		}
		if rec.Timestamp.After(to) {
			to = rec.Timestamp
		}

		if rec.StartQuantity != nil && *rec.StartQuantity > 0 {
			s.StartQuantity += *rec.StartQuantity
			if rec.RejectedQuantity != nil {
				s.RejectedQuantity += *rec.RejectedQuantity
			}
		}

		if rec.FailureReason != nil {
			reason := strings.TrimSpace(*rec.FailureReason)
			if _, ok := skip[strings.ToLower(reason)]; reason != "" && !ok {
				failures[reason]++
				failTotal++
			}
		}
	}

	mean := stats.Mean(yields)
	median := stats.Median(yields)
	s.MeanYield = &mean
	s.MedianYield = &median
	s.From, s.To = &from, &to
	s.Assignees = len(assignees)
	s.Processes = len(processes)

	if s.StartQuantity > 0 {
		weighted := (s.StartQuantity - s.RejectedQuantity) / s.StartQuantity * 100
		s.WeightedYield = &weighted
	}

	s.FailureModes = pareto(failures, failTotal, topN)
	return s
}

func pareto(counts map[string]int, total, topN int) []FailureMode {
	modes := make([]FailureMode, 0, len(counts))
	for reason, n := range counts {
		modes = append(modes, FailureMode{Reason: reason, Count: n})
	}
	slices.SortFunc(modes, func(a, b FailureMode) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Reason, b.Reason)
	})

	if topN > 0 && len(modes) > topN {
		modes = modes[:topN]
	}

	var running int
	for i := range modes {
		running += modes[i].Count
		modes[i].SharePct = float64(modes[i].Count) / float64(total) * 100
		modes[i].Cumulative = float64(running) / float64(total) * 100
	}
	return modes
}
