// Package records implements QA gate record ingestion: validation of raw
// export rows, deterministic identity, deduplication against the store,
// persistence with a supersede audit trail, and batch reporting.
package records

import (
	"time"

	"github.com/google/uuid"
)

// Record is one QA gate event for an inspected lot.
type Record struct {
	ID               uuid.UUID `json:"id"`
	LotNumber        string    `json:"lot_number"`
	Process          string    `json:"process"`
	Assignee         string    `json:"assignee"`
	YieldPct         float64   `json:"yield_pct"`
	FailureReason    *string   `json:"failure_reason"`
	StartQuantity    *float64  `json:"start_quantity"`
	RejectedQuantity *float64  `json:"rejected_quantity"`
	Timestamp        time.Time `json:"timestamp"`
	SourceBatch      uuid.UUID `json:"source_batch"`
	IngestedAt       time.Time `json:"ingested_at"`
}

// SameContent reports whether r and o carry the same gate event data.
// Identity and audit fields (ID, SourceBatch, IngestedAt) are ignored.
func (r Record) SameContent(o Record) bool {
	return r.LotNumber == o.LotNumber &&
		r.Process == o.Process &&
		r.Assignee == o.Assignee &&
		r.YieldPct == o.YieldPct &&
		equalPtr(r.FailureReason, o.FailureReason) &&
		equalPtr(r.StartQuantity, o.StartQuantity) &&
		equalPtr(r.RejectedQuantity, o.RejectedQuantity) &&
		r.Timestamp.Equal(o.Timestamp)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// RawRecord is one untyped row as decoded from an export file or request body.
type RawRecord map[string]any

// Raw field names.
const (
	FieldLotNumber        = "lot_number"
	FieldProcess          = "process"
	FieldAssignee         = "assignee"
	FieldYieldPct         = "yield_pct"
	FieldFailureReason    = "failure_reason"
	FieldTimestamp        = "timestamp"
	FieldStartQuantity    = "start_quantity"
	FieldRejectedQuantity = "rejected_quantity"
)

// Revision is the audit entry written when a stored record is superseded.
type Revision struct {
	ID           uuid.UUID `json:"id"`
	RecordID     uuid.UUID `json:"record_id"`
	BatchID      uuid.UUID `json:"batch_id"`
	Previous     Record    `json:"previous"`
	Current      Record    `json:"current"`
	SupersededAt time.Time `json:"superseded_at"`
}

// IngestRequest is one batch of raw rows with an optional source label,
// typically the export file name.
type IngestRequest struct {
	Source string      `json:"source" yaml:"source"`
	Rows   []RawRecord `json:"rows" yaml:"rows"`
}

// Rejection reports a row that failed validation. Row is the zero-based
// index into the submitted rows.
type Rejection struct {
	Row     int           `json:"row"`
	Kind    RejectionKind `json:"kind"`
	Field   string        `json:"field"`
	Value   any           `json:"value"`
	Message string        `json:"message"`
}

// BatchReport summarizes one ingestion run. Collapsed counts valid rows
// replaced by a later row with the same id in the same batch.
type BatchReport struct {
	BatchID     uuid.UUID   `json:"batch_id"`
	Source      string      `json:"source"`
	Total       int         `json:"total"`
	Admitted    int         `json:"admitted"`
	Duplicates  int         `json:"duplicates"`
	Superseded  int         `json:"superseded"`
	Collapsed   int         `json:"collapsed"`
	Rejected    []Rejection `json:"rejected"`
	Warnings    []Warning   `json:"warnings"`
	ArchiveKey  *string     `json:"archive_key,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at"`
}

// Summary returns the counters persisted in the batch history.
func (b *BatchReport) Summary() BatchSummary {
	return BatchSummary{
		ID:          b.BatchID,
		Source:      b.Source,
		Total:       b.Total,
		Admitted:    b.Admitted,
		Duplicates:  b.Duplicates,
		Superseded:  b.Superseded,
		Collapsed:   b.Collapsed,
		Rejected:    len(b.Rejected),
		Warnings:    len(b.Warnings),
		ArchiveKey:  b.ArchiveKey,
		StartedAt:   b.StartedAt,
		CompletedAt: b.CompletedAt,
	}
}

// BatchSummary is the stored history row for an ingestion run.
type BatchSummary struct {
	ID          uuid.UUID `json:"id"`
	Source      string    `json:"source"`
	Total       int       `json:"total"`
	Admitted    int       `json:"admitted"`
	Duplicates  int       `json:"duplicates"`
	Superseded  int       `json:"superseded"`
	Collapsed   int       `json:"collapsed"`
	Rejected    int       `json:"rejected"`
	Warnings    int       `json:"warnings"`
	ArchiveKey  *string   `json:"archive_key,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}
