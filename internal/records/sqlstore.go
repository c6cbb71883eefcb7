package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/qagate/pkg/database"
	"github.com/JaimeStill/qagate/pkg/pagination"
	"github.com/JaimeStill/qagate/pkg/query"
	"github.com/JaimeStill/qagate/pkg/repository"
)

const upsertRecord = `
	INSERT INTO qa_records (id, lot_number, process, assignee, yield_pct, failure_reason,
		start_quantity, rejected_quantity, recorded_at, source_batch, ingested_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
		lot_number = excluded.lot_number,
		process = excluded.process,
		assignee = excluded.assignee,
		yield_pct = excluded.yield_pct,
		failure_reason = excluded.failure_reason,
		start_quantity = excluded.start_quantity,
		rejected_quantity = excluded.rejected_quantity,
		recorded_at = excluded.recorded_at,
		source_batch = excluded.source_batch,
		ingested_at = excluded.ingested_at`

const updateRecord = `
	UPDATE qa_records SET
		lot_number = $2, process = $3, assignee = $4, yield_pct = $5, failure_reason = $6,
		start_quantity = $7, rejected_quantity = $8, recorded_at = $9, source_batch = $10, ingested_at = $11
	WHERE id = $1`

const insertRevision = `
	INSERT INTO record_revisions (id, record_id, batch_id, previous_record, current_record, superseded_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

const selectRevisions = `
	SELECT id, record_id, batch_id, previous_record, current_record, superseded_at
	FROM record_revisions
	WHERE record_id = $1
	ORDER BY superseded_at, id`

const insertBatch = `
	INSERT INTO ingest_batches (id, source, total, admitted, duplicates, superseded,
		collapsed, rejected, warnings, archive_key, started_at, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// SQLStore persists records in Postgres or SQLite through database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewSQLStore creates a store over db. The schema must already be migrated.
func NewSQLStore(db *sql.DB, dialect database.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) builder(projection *query.ProjectionMap, sort ...query.SortField) *query.Builder {
	return query.NewBuilder(projection, s.dialect, sort...)
}

func (s *SQLStore) Find(ctx context.Context, id uuid.UUID) (*Record, error) {
	q, args := s.builder(recordProjection).BuildSingle("ID", id.String())

	rec, err := repository.QueryOne(ctx, s.db, q, args, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rec, nil
}

func (s *SQLStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return repository.Exists(ctx, s.db, s.dialect.Rebind("SELECT 1 FROM qa_records WHERE id = $1"), id.String())
}

func (s *SQLStore) Upsert(ctx context.Context, rec Record) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Rebind(upsertRecord), recordArgs(rec)...); err != nil {
		return fmt.Errorf("upsert record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLStore) Supersede(ctx context.Context, rev Revision) error {
	previous, err := json.Marshal(rev.Previous)
	if err != nil {
		return fmt.Errorf("encode previous record: %w", err)
	}
	current, err := json.Marshal(rev.Current)
	if err != nil {
		return fmt.Errorf("encode current record: %w", err)
	}

	_, err = repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(ctx, tx, s.dialect.Rebind(updateRecord), recordArgs(rev.Current)...); err != nil {
			return struct{}{}, err
		}
		_, err := tx.ExecContext(
			ctx, s.dialect.Rebind(insertRevision),
			rev.ID.String(),
			rev.RecordID.String(),
			rev.BatchID.String(),
			string(previous),
			string(current),
			rev.SupersededAt.UTC(),
		)
		return struct{}{}, err
	})
	if err != nil {
		return fmt.Errorf("supersede record %s: %w", rev.RecordID, repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return nil
}

func (s *SQLStore) Query(ctx context.Context, filter Filter) ([]Record, error) {
	qb := s.builder(recordProjection, recordOrder...)
	filter.Apply(qb)

	q, args := qb.Build()
	recs, err := repository.QueryMany(ctx, s.db, q, args, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return recs, nil
}

func (s *SQLStore) List(ctx context.Context, page pagination.PageRequest, filter Filter) (*pagination.PageResult[Record], error) {
	qb := s.builder(recordProjection, recordOrder...).
		WhereSearch(page.Search, "LotNumber", "Assignee", "Process")
	filter.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderBy(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, s.db, countSQL, countArgs...)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	recs, err := repository.QueryMany(ctx, s.db, pageSQL, pageArgs, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	result := pagination.NewPageResult(recs, total, page)
	return &result, nil
}

func (s *SQLStore) Count(ctx context.Context, filter Filter) (int, error) {
	qb := s.builder(recordProjection)
	filter.Apply(qb)

	q, args := qb.BuildCount()
	n, err := repository.Count(ctx, s.db, q, args...)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (s *SQLStore) Revisions(ctx context.Context, id uuid.UUID) ([]Revision, error) {
	ok, err := s.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check record %s: %w", id, err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	revs, err := repository.QueryMany(ctx, s.db, s.dialect.Rebind(selectRevisions), []any{id.String()}, scanRevision)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	return revs, nil
}

func (s *SQLStore) SaveBatch(ctx context.Context, b BatchSummary) error {
	_, err := s.db.ExecContext(
		ctx, s.dialect.Rebind(insertBatch),
		b.ID.String(),
		b.Source,
		b.Total,
		b.Admitted,
		b.Duplicates,
		b.Superseded,
		b.Collapsed,
		b.Rejected,
		b.Warnings,
		value(b.ArchiveKey),
		b.StartedAt.UTC(),
		b.CompletedAt.UTC(),
	)
	if err != nil {
		if errors.Is(repository.MapError(err, ErrNotFound, ErrDuplicate), ErrDuplicate) {
			return fmt.Errorf("save batch %s: %w", b.ID, ErrDuplicate)
		}
		return fmt.Errorf("save batch %s: %w", b.ID, err)
	}
	return nil
}

func (s *SQLStore) Batches(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[BatchSummary], error) {
	qb := s.builder(batchProjection, batchOrder).
		WhereSearch(page.Search, "Source")

	if len(page.Sort) > 0 {
		qb.OrderBy(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, s.db, countSQL, countArgs...)
	if err != nil {
		return nil, fmt.Errorf("count batches: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	batches, err := repository.QueryMany(ctx, s.db, pageSQL, pageArgs, scanBatch)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	result := pagination.NewPageResult(batches, total, page)
	return &result, nil
}
