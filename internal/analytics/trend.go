package analytics

import (
	"fmt"
	"time"

	"github.com/JaimeStill/qagate/internal/records"
	"github.com/JaimeStill/qagate/pkg/stats"
)

// Bucket is the time unit trend windows aggregate over. Buckets are
// aligned in UTC; weeks start on Monday.
type Bucket string

const (
	Day   Bucket = "day"
	Week  Bucket = "week"
	Month Bucket = "month"
)

// ParseBucket validates s as a Bucket.
func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(s); b {
	case Day, Week, Month:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBucket, s)
	}
}

// Start returns the beginning of the bucket containing t.
func (b Bucket) Start(t time.Time) time.Time {
	t = t.UTC()
	y, m, d := t.Date()
	switch b {
	case Week:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

// Next returns the start of the bucket following the one starting at start.
func (b Bucket) Next(start time.Time) time.Time {
	switch b {
	case Week:
		return start.AddDate(0, 0, 7)
	case Month:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// MaxBuckets bounds the number of buckets a single trend may span.
const MaxBuckets = 10000

// span counts the buckets from the bucket starting at first through the
// one starting at last. Durations past ~292 years saturate, which still
// exceeds MaxBuckets.
func (b Bucket) span(first, last time.Time) int {
	switch b {
	case Month:
		return (last.Year()-first.Year())*12 + int(last.Month()) - int(first.Month()) + 1
	case Week:
		return int(last.Sub(first)/(7*24*time.Hour)) + 1
	default:
		return int(last.Sub(first)/(24*time.Hour)) + 1
	}
}

// AggregateWindow is one bucket of a trend. MeanYield is nil for empty
// buckets. MovingAverage averages the non-empty buckets among the trailing
// window and is nil only when all of them are empty. Delta is the change
// of MeanYield from the previous non-empty bucket.
type AggregateWindow struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Count         int       `json:"count"`
	MeanYield     *float64  `json:"mean_yield"`
	MovingAverage *float64  `json:"moving_average"`
	Delta         *float64  `json:"delta"`
}

// ComputeTrend buckets recs and computes per-bucket means, a trailing
// moving average over window buckets and period-over-period deltas. Every
// bucket between the first and last occupied bucket is emitted, up to
// MaxBuckets; wider spans fail with ErrTrendTooWide. Input order does not
// matter; empty input yields an empty slice.
func ComputeTrend(recs []records.Record, window int, bucket Bucket) ([]AggregateWindow, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}
	if _, err := ParseBucket(string(bucket)); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return []AggregateWindow{}, nil
	}

	groups := make(map[time.Time]*stats.Moments)
	first, last := bucket.Start(recs[0].Timestamp), bucket.Start(recs[0].Timestamp)
	for _, rec := range recs {
		start := bucket.Start(rec.Timestamp)
		m, ok := groups[start]
		if !ok {
			m = &stats.Moments{}
			groups[start] = m
		}
		m.Add(rec.YieldPct)

		if start.Before(first) {
			first = start
		}
		if start.After(last) {
			last = start
		}
	}

	span := bucket.span(first, last)
	if span > MaxBuckets {
		return nil, fmt.Errorf("%w: %s to %s needs %d %s buckets, limit %d; narrow the date range or use a coarser bucket",
			ErrTrendTooWide, first.Format(time.DateOnly), last.Format(time.DateOnly), span, bucket, MaxBuckets)
	}

	var (
		out     = make([]AggregateWindow, 0, span)
		rolling = stats.NewRolling(min(window, span))
		prev    *float64
	)
	for start := first; !start.After(last); start = bucket.Next(start) {
		w := AggregateWindow{Start: start, End: bucket.Next(start)}

		m, ok := groups[start]
		if ok {
			mean := m.Mean()
			w.Count = m.Count()
			w.MeanYield = &mean
			if prev != nil {
				delta := mean - *prev
				w.Delta = &delta
			}
			prev = w.MeanYield
			rolling.Push(mean, true)
		} else {
			rolling.Push(0, false)
		}

		if avg, ok := rolling.Mean(); ok {
			w.MovingAverage = &avg
		}

		out = append(out, w)
	}

	return out, nil
}
