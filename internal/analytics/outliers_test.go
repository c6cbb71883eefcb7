package analytics_test

import (
	"errors"
	"math"
	"testing"

	"github.com/JaimeStill/qagate/internal/analytics"
	"github.com/JaimeStill/qagate/internal/records"
)

func group(assignee string, yields ...float64) []records.Record {
	out := make([]records.Record, len(yields))
	for i, y := range yields {
		out[i] = rec(assignee, y, day(i+1))
	}
	return out
}

func TestDetectFlagsSingleDeviant(t *testing.T) {
	recs := group("ana", 90, 91, 89, 90, 50)

	flags, err := analytics.Detect(recs, analytics.ByAssignee, 2.0, analytics.LeaveOneOut)
	if err != nil {
		t.Fatal(err)
	}
	if len(flags) != 5 {
		t.Fatalf("got %d flags, want one per record", len(flags))
	}

	for _, f := range flags {
		want := f.YieldPct == 50
		if f.IsOutlier != want {
			t.Errorf("yield %v: IsOutlier = %v (z=%.3f), want %v", f.YieldPct, f.IsOutlier, f.ZScore, want)
		}
		if f.GroupKey != "ana" {
			t.Errorf("group key = %q", f.GroupKey)
		}
	}
}

func TestDetectStandardMethod(t *testing.T) {
	recs := group("ana", 90, 91, 89, 90, 50)

	flags, err := analytics.Detect(recs, analytics.ByAssignee, 2.0, analytics.Standard)
	if err != nil {
		t.Fatal(err)
	}

	// With n=5 a whole-group z-score cannot exceed (n-1)/sqrt(n) ≈ 1.79.
	last := flags[len(flags)-1]
	if last.YieldPct != 50 || math.Abs(last.ZScore+32/math.Sqrt(320.5)) > 1e-9 {
		t.Errorf("z(50) = %v, want %v", last.ZScore, -32/math.Sqrt(320.5))
	}
	if last.IsOutlier {
		t.Error("standard z-score should not reach 2.0 for n=5")
	}

	flags, err = analytics.Detect(recs, analytics.ByAssignee, 1.5, analytics.Standard)
	if err != nil {
		t.Fatal(err)
	}
	if !flags[len(flags)-1].IsOutlier {
		t.Error("50 should be flagged at threshold 1.5")
	}
}

func TestDetectNoVariance(t *testing.T) {
	tests := []struct {
		name string
		recs []records.Record
	}{
		{"zero variance", group("ana", 95, 95, 95)},
		{"single record", group("ana", 42)},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, method := range []analytics.Method{analytics.Standard, analytics.LeaveOneOut} {
				flags, err := analytics.Detect(tt.recs, analytics.ByAssignee, 2.0, method)
				if err != nil {
					t.Fatal(err)
				}
				if len(flags) != 0 {
					t.Errorf("%s: got %d flags, want none", method, len(flags))
				}
			}
		})
	}
}

func TestDetectFlatRemainderUsesGroupDeviation(t *testing.T) {
	flags, err := analytics.Detect(group("ana", 95, 95, 95, 50), analytics.ByAssignee, 2.0, analytics.LeaveOneOut)
	if err != nil {
		t.Fatal(err)
	}

	for _, f := range flags {
		if math.IsInf(f.ZScore, 0) || math.IsNaN(f.ZScore) {
			t.Errorf("yield %v: z = %v, want finite", f.YieldPct, f.ZScore)
		}
	}
	if z := flags[3].ZScore; math.Abs(z+2) > 1e-9 {
		t.Errorf("z(50) = %v, want -2 (against full group stddev 22.5)", z)
	}
}

func TestDetectSmallGroupsUseWholeGroup(t *testing.T) {
	tests := []struct {
		name   string
		yields []float64
		want   []float64
	}{
		{"evenly spaced", []float64{90, 91, 92}, []float64{-1, 0, 1}},
		{"pair", []float64{80, 90}, []float64{-1 / math.Sqrt2, 1 / math.Sqrt2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags, err := analytics.Detect(group("ana", tt.yields...), analytics.ByAssignee, 2.0, analytics.LeaveOneOut)
			if err != nil {
				t.Fatal(err)
			}
			if len(flags) != len(tt.want) {
				t.Fatalf("got %d flags, want %d", len(flags), len(tt.want))
			}
			for i, f := range flags {
				if f.IsOutlier {
					t.Errorf("yield %v flagged (z=%.3f)", f.YieldPct, f.ZScore)
				}
				if math.Abs(f.ZScore-tt.want[i]) > 1e-9 {
					t.Errorf("z(%v) = %v, want %v", f.YieldPct, f.ZScore, tt.want[i])
				}
			}
		})
	}
}

func TestDetectGroupsAndOrder(t *testing.T) {
	recs := append(group("ben", 80, 82, 40), group("ana", 90, 92)...)
	recs = append(recs, group("cy", 99)...)

	flags, err := analytics.Detect(recs, analytics.ByAssignee, 2.0, analytics.LeaveOneOut)
	if err != nil {
		t.Fatal(err)
	}

	var keys []string
	for _, f := range flags {
		keys = append(keys, f.GroupKey)
	}
	want := []string{"ana", "ana", "ben", "ben", "ben"}
	if len(keys) != len(want) {
		t.Fatalf("group keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("group keys = %v, want %v", keys, want)
		}
	}

	none, err := analytics.Detect(recs, analytics.ByNone, 2.0, analytics.Standard)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != len(recs) {
		t.Errorf("ByNone evaluated %d records, want %d", len(none), len(recs))
	}
}

func TestDetectInvalidArguments(t *testing.T) {
	tests := []struct {
		name      string
		groupBy   analytics.GroupBy
		method    analytics.Method
		threshold float64
		err       error
	}{
		{"group", "shift", analytics.Standard, 2, analytics.ErrInvalidGroup},
		{"method", analytics.ByProcess, "mad", 2, analytics.ErrInvalidMethod},
		{"threshold", analytics.ByProcess, analytics.Standard, -1, analytics.ErrInvalidThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := analytics.Detect(nil, tt.groupBy, tt.threshold, tt.method); !errors.Is(err, tt.err) {
				t.Errorf("error = %v, want %v", err, tt.err)
			}
		})
	}
}
