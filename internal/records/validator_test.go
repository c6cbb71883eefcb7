package records_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/qagate/internal/records"
)

func newValidator(t *testing.T) *records.Validator {
	t.Helper()
	var cfg records.Config
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	return records.NewValidator(cfg)
}

func validRow() records.RawRecord {
	return records.RawRecord{
		"lot_number": "LN-C-1001",
		"process":    "Final Inspection",
		"assignee":   "j.doe",
		"yield_pct":  92.5,
		"timestamp":  "2024-03-04T10:15:30Z",
	}
}

func TestValidateAccepts(t *testing.T) {
	v := newValidator(t)

	rec, warnings, err := v.Validate(validRow())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", warnings)
	}

	want := time.Date(2024, 3, 4, 10, 15, 30, 0, time.UTC)
	if !rec.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", rec.Timestamp, want)
	}
	if rec.ID != records.Identity("LN-C-1001", "Final Inspection", want) {
		t.Error("ID does not match Identity of the normalized fields")
	}
}

func TestValidateRejects(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name      string
		mutate    func(records.RawRecord)
		wantKind  records.RejectionKind
		wantField string
	}{
		{"missing lot", func(r records.RawRecord) { delete(r, "lot_number") }, records.MissingField, "lot_number"},
		{"blank process", func(r records.RawRecord) { r["process"] = "   " }, records.MissingField, "process"},
		{"null yield", func(r records.RawRecord) { r["yield_pct"] = nil }, records.MissingField, "yield_pct"},
		{"missing timestamp", func(r records.RawRecord) { delete(r, "timestamp") }, records.MissingField, "timestamp"},
		{"first missing wins", func(r records.RawRecord) { delete(r, "timestamp"); delete(r, "yield_pct") }, records.MissingField, "yield_pct"},
		{"yield above range", func(r records.RawRecord) { r["yield_pct"] = 100.01 }, records.InvalidYield, "yield_pct"},
		{"yield below range", func(r records.RawRecord) { r["yield_pct"] = -1 }, records.InvalidYield, "yield_pct"},
		{"yield not numeric", func(r records.RawRecord) { r["yield_pct"] = "ninety" }, records.InvalidYield, "yield_pct"},
		{"yield NaN", func(r records.RawRecord) { r["yield_pct"] = math.NaN() }, records.InvalidYield, "yield_pct"},
		{"yield bool", func(r records.RawRecord) { r["yield_pct"] = true }, records.InvalidYield, "yield_pct"},
		{"bad yield beats bad timestamp", func(r records.RawRecord) { r["yield_pct"] = 101; r["timestamp"] = "soon" }, records.InvalidYield, "yield_pct"},
		{"timestamp unparsable", func(r records.RawRecord) { r["timestamp"] = "yesterday" }, records.InvalidTimestamp, "timestamp"},
		{"timestamp wrong type", func(r records.RawRecord) { r["timestamp"] = 1700000000 }, records.InvalidTimestamp, "timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(row)

			_, _, err := v.Validate(row)
			var verr *records.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Kind != tt.wantKind || verr.Field != tt.wantField {
				t.Errorf("got %s(%s), want %s(%s)", verr.Kind, verr.Field, tt.wantKind, tt.wantField)
			}
		})
	}
}

func TestValidateYieldFormats(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		value any
		want  float64
	}{
		{88.5, 88.5},
		{"88.5", 88.5},
		{" 88.5 % ", 88.5},
		{json.Number("100"), 100},
		{0, 0},
		{int64(75), 75},
	}

	for _, tt := range tests {
		row := validRow()
		row["yield_pct"] = tt.value

		rec, _, err := v.Validate(row)
		if err != nil {
			t.Errorf("Validate(yield=%v) error = %v", tt.value, err)
			continue
		}
		if rec.YieldPct != tt.want {
			t.Errorf("Validate(yield=%v) = %v, want %v", tt.value, rec.YieldPct, tt.want)
		}
	}
}

func TestValidateTimestampLayouts(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		value any
		want  time.Time
	}{
		{"2024-03-04T12:15:30+02:00", time.Date(2024, 3, 4, 10, 15, 30, 0, time.UTC)},
		{"2024-03-04 10:15:30", time.Date(2024, 3, 4, 10, 15, 30, 0, time.UTC)},
		{"2024-03-04", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"04/Mar/24 2:05 PM", time.Date(2024, 3, 4, 14, 5, 0, 0, time.UTC)},
		{"2024-03-04T10:15:30.987654Z", time.Date(2024, 3, 4, 10, 15, 30, 0, time.UTC)},
		{time.Date(2024, 3, 4, 10, 15, 30, 5, time.UTC), time.Date(2024, 3, 4, 10, 15, 30, 0, time.UTC)},
	}

	for _, tt := range tests {
		row := validRow()
		row["timestamp"] = tt.value

		rec, _, err := v.Validate(row)
		if err != nil {
			t.Errorf("Validate(timestamp=%v) error = %v", tt.value, err)
			continue
		}
		if !rec.Timestamp.Equal(tt.want) {
			t.Errorf("Validate(timestamp=%v) = %v, want %v", tt.value, rec.Timestamp, tt.want)
		}
	}
}

func TestValidateRejectsImplausibleYears(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		value any
		ok    bool
	}{
		{"0001-01-01", false},
		{"9999-12-31", false},
		{"1969-12-31T23:59:59Z", false},
		{time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"1970-01-01", true},
		{"2199-12-31", true},
	}

	for _, tt := range tests {
		row := validRow()
		row["timestamp"] = tt.value

		_, _, err := v.Validate(row)
		var verr *records.ValidationError
		rejected := errors.As(err, &verr) && verr.Kind == records.InvalidTimestamp
		if rejected == tt.ok {
			t.Errorf("Validate(timestamp=%v) error = %v, want accepted=%v", tt.value, err, tt.ok)
		}
	}
}

func TestValidateProcessFromLotPrefix(t *testing.T) {
	v := newValidator(t)

	row := validRow()
	row["lot_number"] = "LN-C12345"
	row["process"] = "Gate 4"

	rec, warnings, err := v.Validate(row)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if rec.Process != "Final Inspection" {
		t.Errorf("Process = %q, want Final Inspection from the LN-C prefix", rec.Process)
	}

	want := []records.Warning{{Kind: records.ProcessFromLot, Field: "process", Value: "Gate 4"}}
	if diff := cmp.Diff(want, warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}

	row["process"] = "Final Inspection"
	mapped, _, _ := v.Validate(row)
	if mapped.ID != rec.ID {
		t.Error("inferred process should share identity with the mapped label")
	}
}

func TestValidateUnmappedProcess(t *testing.T) {
	v := newValidator(t)

	row := validRow()
	row["lot_number"] = "QA-77"
	row["process"] = "  Laser Trim "

	rec, warnings, err := v.Validate(row)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if rec.Process != "Laser Trim" {
		t.Errorf("Process = %q, want verbatim trimmed value", rec.Process)
	}

	want := []records.Warning{{Kind: records.UnmappedProcess, Field: "process", Value: "  Laser Trim "}}
	if diff := cmp.Diff(want, warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateFailureReason(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name        string
		yield       float64
		reason      any
		wantReason  *string
		wantWarning bool
	}{
		{"kept on failure", 80, " Wire bond lift ", ptr("Wire bond lift"), false},
		{"dropped at full yield", 100, "Wire bond lift", nil, true},
		{"excluded mode", 80, "handover", nil, false},
		{"blank", 80, " ", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			row["yield_pct"] = tt.yield
			row["failure_reason"] = tt.reason

			rec, warnings, err := v.Validate(row)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if diff := cmp.Diff(tt.wantReason, rec.FailureReason); diff != "" {
				t.Errorf("FailureReason mismatch (-want +got):\n%s", diff)
			}
			gotWarning := len(warnings) == 1 && warnings[0].Kind == records.FailureReasonIgnored
			if gotWarning != tt.wantWarning {
				t.Errorf("FailureReasonIgnored warning = %v, want %v (%+v)", gotWarning, tt.wantWarning, warnings)
			}
		})
	}
}

func TestValidateQuantities(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name         string
		start        any
		rejected     any
		wantStart    *float64
		wantRejected *float64
		wantWarnings int
	}{
		{"absent", nil, nil, nil, nil, 0},
		{"valid", 200.0, "12", ptr(200.0), ptr(12.0), 0},
		{"negative clipped", -5.0, 0.0, ptr(0.0), ptr(0.0), 1},
		{"rejected capped", 10.0, 15.0, ptr(10.0), ptr(10.0), 1},
		{"unparsable dropped", "lots", 3.0, nil, ptr(3.0), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			if tt.start != nil {
				row["start_quantity"] = tt.start
			}
			if tt.rejected != nil {
				row["rejected_quantity"] = tt.rejected
			}

			rec, warnings, err := v.Validate(row)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if diff := cmp.Diff(tt.wantStart, rec.StartQuantity); diff != "" {
				t.Errorf("StartQuantity mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantRejected, rec.RejectedQuantity); diff != "" {
				t.Errorf("RejectedQuantity mismatch (-want +got):\n%s", diff)
			}
			if len(warnings) != tt.wantWarnings {
				t.Errorf("warnings = %+v, want %d", warnings, tt.wantWarnings)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
