package records

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// WarningKind classifies a non-fatal validation finding.
type WarningKind string

const (
	UnmappedProcess      WarningKind = "unmapped_process"
	ProcessFromLot       WarningKind = "process_from_lot"
	FailureReasonIgnored WarningKind = "failure_reason_ignored"
	QuantityAdjusted     WarningKind = "quantity_adjusted"
)

// Warning is a non-fatal finding attached to an accepted row.
type Warning struct {
	Row   int         `json:"row"`
	Kind  WarningKind `json:"kind"`
	Field string      `json:"field"`
	Value any         `json:"value"`
}

// Validator turns raw rows into records. It holds only immutable
// configuration and is safe for concurrent use.
type Validator struct {
	processes   *ProcessTable
	layouts     []string
	granularity time.Duration
	excluded    map[string]struct{}
}

// NewValidator creates a Validator from a finalized Config.
func NewValidator(cfg Config) *Validator {
	excluded := make(map[string]struct{}, len(cfg.ExcludedFailureModes))
	for _, mode := range cfg.ExcludedFailureModes {
		excluded[strings.ToLower(strings.TrimSpace(mode))] = struct{}{}
	}

	granularity := cfg.GranularityDuration()
	if granularity <= 0 {
		granularity = time.Second
	}

	return &Validator{
		processes:   NewProcessTable(cfg.Processes, cfg.LotPrefixes),
		layouts:     cfg.TimestampLayouts,
		granularity: granularity,
		excluded:    excluded,
	}
}

// Processes returns the validator's process table.
func (v *Validator) Processes() *ProcessTable {
	return v.processes
}

// Validate checks raw and returns the typed record with its id assigned.
// The returned error is always a *ValidationError. Warning rows are left
// at zero for the caller to fill in.
func (v *Validator) Validate(raw RawRecord) (Record, []Warning, error) {
	for _, field := range []string{FieldLotNumber, FieldProcess, FieldYieldPct, FieldTimestamp} {
		if isBlank(raw[field]) {
			return Record{}, nil, &ValidationError{Kind: MissingField, Field: field, Value: raw[field]}
		}
	}

	yield, ok := parseNumber(raw[FieldYieldPct], true)
	if !ok || yield < 0 || yield > 100 {
		return Record{}, nil, &ValidationError{Kind: InvalidYield, Field: FieldYieldPct, Value: raw[FieldYieldPct]}
	}

	ts, ok := v.parseTimestamp(raw[FieldTimestamp])
	if !ok {
		return Record{}, nil, &ValidationError{Kind: InvalidTimestamp, Field: FieldTimestamp, Value: raw[FieldTimestamp]}
	}

	var warnings []Warning

	lot := strings.TrimSpace(text(raw[FieldLotNumber]))
	rawProcess := text(raw[FieldProcess])
	process, known := v.processes.Canonical(rawProcess)
	if !known {
		if fromLot, ok := v.processes.FromLot(lot); ok {
			process = fromLot
			warnings = append(warnings, Warning{Kind: ProcessFromLot, Field: FieldProcess, Value: rawProcess})
		} else {
			warnings = append(warnings, Warning{Kind: UnmappedProcess, Field: FieldProcess, Value: rawProcess})
		}
	}

	rec := Record{
		LotNumber: lot,
		Process:   process,
		Assignee:  strings.TrimSpace(text(raw[FieldAssignee])),
		YieldPct:  yield,
		Timestamp: ts,
	}

	if reason := strings.TrimSpace(text(raw[FieldFailureReason])); reason != "" {
		switch {
		case v.isExcluded(reason):
		case yield >= 100:
			warnings = append(warnings, Warning{Kind: FailureReasonIgnored, Field: FieldFailureReason, Value: reason})
		default:
			rec.FailureReason = &reason
		}
	}

	warnings = append(warnings, v.quantities(raw, &rec)...)

	rec.ID = Identity(rec.LotNumber, rec.Process, rec.Timestamp)
	return rec, warnings, nil
}

// quantities applies the optional start/rejected quantity rules:
// unparsable values are dropped, negatives clip to zero and rejected
// never exceeds start.
func (v *Validator) quantities(raw RawRecord, rec *Record) []Warning {
	var warnings []Warning

	read := func(field string) *float64 {
		value, present := raw[field]
		if !present || isBlank(value) {
			return nil
		}
		n, ok := parseNumber(value, false)
		if !ok {
			warnings = append(warnings, Warning{Kind: QuantityAdjusted, Field: field, Value: value})
			return nil
		}
		if n < 0 {
			warnings = append(warnings, Warning{Kind: QuantityAdjusted, Field: field, Value: value})
			n = 0
		}
		return &n
	}

	rec.StartQuantity = read(FieldStartQuantity)
	rec.RejectedQuantity = read(FieldRejectedQuantity)

	if rec.StartQuantity != nil && rec.RejectedQuantity != nil && *rec.RejectedQuantity > *rec.StartQuantity {
		warnings = append(warnings, Warning{Kind: QuantityAdjusted, Field: FieldRejectedQuantity, Value: *rec.RejectedQuantity})
		capped := *rec.StartQuantity
		rec.RejectedQuantity = &capped
	}

	return warnings
}

func (v *Validator) isExcluded(reason string) bool {
	_, ok := v.excluded[strings.ToLower(reason)]
	return ok
}

// Timestamps outside [MinYear, MaxYear] are rejected as implausible
// inspection times.
const (
	MinYear = 1970
	MaxYear = 2199
)

func (v *Validator) parseTimestamp(value any) (time.Time, bool) {
	var ts time.Time

	switch t := value.(type) {
	case time.Time:
		ts = t
	case string:
		s := strings.TrimSpace(t)
		parsed := false
		for _, layout := range v.layouts {
			if p, err := time.Parse(layout, s); err == nil {
				ts, parsed = p, true
				break
			}
		}
		if !parsed {
			return time.Time{}, false
		}
	default:
		return time.Time{}, false
	}

	ts = ts.UTC()
	if ts.Year() < MinYear || ts.Year() > MaxYear {
		return time.Time{}, false
	}
	return ts.Truncate(v.granularity), true
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

// parseNumber accepts JSON/YAML numerics and numeric strings. With
// percent set a trailing "%" is allowed. Non-finite values are rejected.
func parseNumber(value any, percent bool) (float64, bool) {
	var n float64

	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		s := strings.TrimSpace(v)
		if percent {
			s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
