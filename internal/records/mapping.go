package records

import (
	"encoding/json"

	"github.com/JaimeStill/qagate/pkg/query"
	"github.com/JaimeStill/qagate/pkg/repository"
)

var recordProjection = query.
	NewProjectionMap("qa_records", "r").
	Project("id", "ID").
	Project("lot_number", "LotNumber").
	Project("process", "Process").
	Project("assignee", "Assignee").
	Project("yield_pct", "YieldPct").
	Project("failure_reason", "FailureReason").
	Project("start_quantity", "StartQuantity").
	Project("rejected_quantity", "RejectedQuantity").
	Project("recorded_at", "Timestamp").
	Project("source_batch", "SourceBatch").
	Project("ingested_at", "IngestedAt")

var recordOrder = []query.SortField{
	{Field: "Timestamp"},
	{Field: "ID"},
}

var batchProjection = query.
	NewProjectionMap("ingest_batches", "b").
	Project("id", "ID").
	Project("source", "Source").
	Project("total", "Total").
	Project("admitted", "Admitted").
	Project("duplicates", "Duplicates").
	Project("superseded", "Superseded").
	Project("collapsed", "Collapsed").
	Project("rejected", "Rejected").
	Project("warnings", "Warnings").
	Project("archive_key", "ArchiveKey").
	Project("started_at", "StartedAt").
	Project("completed_at", "CompletedAt")

var batchOrder = query.SortField{Field: "StartedAt", Descending: true}

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record
	err := s.Scan(
		&r.ID,
		&r.LotNumber,
		&r.Process,
		&r.Assignee,
		&r.YieldPct,
		&r.FailureReason,
		&r.StartQuantity,
		&r.RejectedQuantity,
		&r.Timestamp,
		&r.SourceBatch,
		&r.IngestedAt,
	)
	r.Timestamp = r.Timestamp.UTC()
	r.IngestedAt = r.IngestedAt.UTC()
	return r, err
}

func scanBatch(s repository.Scanner) (BatchSummary, error) {
	var b BatchSummary
	err := s.Scan(
		&b.ID,
		&b.Source,
		&b.Total,
		&b.Admitted,
		&b.Duplicates,
		&b.Superseded,
		&b.Collapsed,
		&b.Rejected,
		&b.Warnings,
		&b.ArchiveKey,
		&b.StartedAt,
		&b.CompletedAt,
	)
	b.StartedAt = b.StartedAt.UTC()
	b.CompletedAt = b.CompletedAt.UTC()
	return b, err
}

func scanRevision(s repository.Scanner) (Revision, error) {
	var (
		rev               Revision
		previous, current string
	)
	if err := s.Scan(&rev.ID, &rev.RecordID, &rev.BatchID, &previous, &current, &rev.SupersededAt); err != nil {
		return rev, err
	}
	if err := json.Unmarshal([]byte(previous), &rev.Previous); err != nil {
		return rev, err
	}
	if err := json.Unmarshal([]byte(current), &rev.Current); err != nil {
		return rev, err
	}
	rev.SupersededAt = rev.SupersededAt.UTC()
	return rev, nil
}

// recordArgs returns the insert arguments in column order.
func recordArgs(r Record) []any {
	return []any{
		r.ID.String(),
		r.LotNumber,
		r.Process,
		r.Assignee,
		r.YieldPct,
		value(r.FailureReason),
		value(r.StartQuantity),
		value(r.RejectedQuantity),
		r.Timestamp.UTC(),
		r.SourceBatch.String(),
		r.IngestedAt.UTC(),
	}
}
