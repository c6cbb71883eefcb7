package analytics

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/JaimeStill/qagate/internal/records"
	"github.com/JaimeStill/qagate/pkg/stats"
)

// GroupBy selects the record field outliers are compared within.
type GroupBy string

const (
	ByAssignee  GroupBy = "assignee"
	ByProcess   GroupBy = "process"
	ByLotNumber GroupBy = "lot_number"
	ByNone      GroupBy = "none"
)

// ParseGroupBy validates s as a GroupBy.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(s); g {
	case ByAssignee, ByProcess, ByLotNumber, ByNone:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGroup, s)
	}
}

// Key returns the group rec belongs to.
func (g GroupBy) Key(rec records.Record) string {
	switch g {
	case ByAssignee:
		return rec.Assignee
	case ByProcess:
		return rec.Process
	case ByLotNumber:
		return rec.LotNumber
	default:
		return "all"
	}
}

// Method selects how z-scores are computed.
type Method string

const (
	// Standard scores each yield against the mean and sample standard
	// deviation of its whole group.
	Standard Method = "standard"
	// LeaveOneOut scores each yield against the other members of its
	// group, so a single extreme value cannot inflate its own baseline.
	LeaveOneOut Method = "leave_one_out"
)

// ParseMethod validates s as a Method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case Standard, LeaveOneOut:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
	}
}

// OutlierFlag is the z-score of one record within its group.
type OutlierFlag struct {
	RecordID  uuid.UUID `json:"record_id"`
	GroupKey  string    `json:"group_key"`
	LotNumber string    `json:"lot_number"`
	YieldPct  float64   `json:"yield_pct"`
	ZScore    float64   `json:"z_score"`
	IsOutlier bool      `json:"is_outlier"`
}

// Detect scores every record of each qualifying group. Groups with fewer
// than two records or no variance are skipped entirely. A record is an
// outlier when |z| > threshold. Flags are ordered by group key, then
// timestamp, then record id.
func Detect(recs []records.Record, groupBy GroupBy, threshold float64, method Method) ([]OutlierFlag, error) {
	if _, err := ParseGroupBy(string(groupBy)); err != nil {
		return nil, err
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	if math.IsNaN(threshold) || threshold < 0 {
		return nil, fmt.Errorf("%w: outlier threshold %v", ErrInvalidThreshold, threshold)
	}

	groups := make(map[string][]records.Record)
	for _, rec := range recs {
		key := groupBy.Key(rec)
		groups[key] = append(groups[key], rec)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	flags := []OutlierFlag{}
	for _, key := range keys {
		members := groups[key]
		slices.SortFunc(members, func(a, b records.Record) int {
			if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
				return c
			}
			return cmp.Compare(a.ID.String(), b.ID.String())
		})
		flags = append(flags, scoreGroup(key, members, threshold, method)...)
	}
	return flags, nil
}

func scoreGroup(key string, members []records.Record, threshold float64, method Method) []OutlierFlag {
	var full stats.Moments
	for _, rec := range members {
		full.Add(rec.YieldPct)
	}
	if !full.HasSpread() {
		return nil
	}

	flags := make([]OutlierFlag, 0, len(members))
	for _, rec := range members {
		z := zScore(rec.YieldPct, full, method)
		flags = append(flags, OutlierFlag{
			RecordID:  rec.ID,
			GroupKey:  key,
			LotNumber: rec.LotNumber,
			YieldPct:  rec.YieldPct,
			ZScore:    z,
			IsOutlier: math.Abs(z) > threshold,
		})
	}
	return flags
}

// minRemainder is the smallest leave-one-out remainder worth scoring
// against; two values estimate spread too poorly and inflate z.
const minRemainder = 3

// zScore uses the whole-group z-score for the standard method and for
// groups too small to leave one out. A flat remainder is scored against
// the full group deviation.
func zScore(x float64, full stats.Moments, method Method) float64 {
	rest := full.Without(x)
	if method == Standard || rest.Count() < minRemainder {
		return (x - full.Mean()) / full.StdDev()
	}

	if rest.HasSpread() {
		return (x - rest.Mean()) / rest.StdDev()
	}
	return (x - rest.Mean()) / full.StdDev()
}
