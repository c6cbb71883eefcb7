package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/qagate/pkg/pagination"
	"github.com/JaimeStill/qagate/pkg/storage"
)

type repo struct {
	store      Store
	archive    storage.System
	validator  *Validator
	logger     *slog.Logger
	pagination pagination.Config
	now        func() time.Time
}

// New creates the record System. archive receives the raw payload of
// every batch when enabled; pass storage.Disabled() to skip archiving.
func New(
	store Store,
	archive storage.System,
	validator *Validator,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		store:      store,
		archive:    archive,
		validator:  validator,
		logger:     logger.With("system", "records"),
		pagination: pagination,
		now:        time.Now,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Ingest(ctx context.Context, req IngestRequest) (*BatchReport, error) {
	report := &BatchReport{
		BatchID:   uuid.New(),
		Source:    req.Source,
		Total:     len(req.Rows),
		Rejected:  []Rejection{},
		Warnings:  []Warning{},
		StartedAt: r.timestamp(),
	}

	logger := r.logger.With("batch", report.BatchID, "source", req.Source)
	logger.Info("ingest started", "rows", len(req.Rows))

	r.archivePayload(ctx, logger, report, req)

	pending, err := r.validateRows(logger, report, req.Rows)
	if err != nil {
		report.CompletedAt = r.timestamp()
		logger.Error("ingest aborted", "error", err)
		return report, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	for _, c := range pending {
		if err := r.admit(ctx, logger, report, c.row, c.rec); err != nil {
			report.CompletedAt = r.timestamp()
			logger.Error("ingest aborted", "row", c.row, "error", err)
			return report, fmt.Errorf("row %d: %w: %w", c.row, ErrStoreUnavailable, err)
		}
	}

	report.CompletedAt = r.timestamp()

	if err := r.store.SaveBatch(ctx, report.Summary()); err != nil {
		logger.Error("batch history write failed", "error", err)
		return report, fmt.Errorf("save batch: %w: %w", ErrStoreUnavailable, err)
	}

	logger.Info(
		"ingest completed",
		"admitted", report.Admitted,
		"duplicates", report.Duplicates,
		"superseded", report.Superseded,
		"collapsed", report.Collapsed,
		"rejected", len(report.Rejected),
		"warnings", len(report.Warnings),
	)
	return report, nil
}

type candidate struct {
	row int
	rec Record
}

// validateRows validates every row and resolves identity collisions
// inside the batch: only the last row per id is returned, in row order.
// Earlier colliding rows count as Collapsed and are never written.
func (r *repo) validateRows(logger *slog.Logger, report *BatchReport, rows []RawRecord) ([]candidate, error) {
	valid := make([]candidate, 0, len(rows))
	for i, raw := range rows {
		rec, warnings, err := r.validator.Validate(raw)
		if err != nil {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			report.Rejected = append(report.Rejected, Rejection{
				Row:     i,
				Kind:    verr.Kind,
				Field:   verr.Field,
				Value:   verr.Value,
				Message: verr.Error(),
			})
			logger.Debug("row rejected", "row", i, "kind", verr.Kind, "field", verr.Field)
			continue
		}

		for _, w := range warnings {
			w.Row = i
			report.Warnings = append(report.Warnings, w)
		}
		valid = append(valid, candidate{row: i, rec: rec})
	}

	last := make(map[uuid.UUID]int, len(valid))
	for i, c := range valid {
		last[c.rec.ID] = i
	}

	pending := valid[:0]
	for i, c := range valid {
		if last[c.rec.ID] != i {
			report.Collapsed++
			logger.Debug("row replaced later in batch", "row", c.row, "id", c.rec.ID)
			continue
		}
		pending = append(pending, c)
	}
	return pending, nil
}

func (r *repo) admit(ctx context.Context, logger *slog.Logger, report *BatchReport, row int, rec Record) error {
	rec.SourceBatch = report.BatchID
	rec.IngestedAt = r.timestamp()

	decision, existing, err := Admit(ctx, rec, r.store)
	if err != nil {
		return err
	}

	switch decision {
	case Admitted:
		if err := r.store.Upsert(ctx, rec); err != nil {
			return err
		}
		report.Admitted++

	case Duplicate:
		report.Duplicates++

	case Superseded:
		rev := Revision{
			ID:           uuid.New(),
			RecordID:     rec.ID,
			BatchID:      report.BatchID,
			Previous:     *existing,
			Current:      rec,
			SupersededAt: rec.IngestedAt,
		}
		if err := r.store.Supersede(ctx, rev); err != nil {
			return err
		}
		report.Superseded++

		logger.Info(
			"record superseded",
			"id", rec.ID,
			"row", row,
			"previous", existing,
			"current", rec,
		)
	}

	return nil
}

// archivePayload stores the raw request in blob storage. Archive failures
// are logged and do not fail the batch.
func (r *repo) archivePayload(ctx context.Context, logger *slog.Logger, report *BatchReport, req IngestRequest) {
	if !r.archive.Enabled() {
		return
	}

	data, err := json.Marshal(req)
	if err != nil {
		logger.Warn("encode batch payload failed", "error", err)
		return
	}

	key := fmt.Sprintf("batches/%s/%s.json", report.StartedAt.Format("2006/01/02"), report.BatchID)
	if err := r.archive.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		logger.Warn("archive batch payload failed", "key", key, "error", err)
		return
	}

	report.ArchiveKey = &key
}

// timestamp returns the current UTC time at microsecond precision, the
// finest resolution every backend stores.
func (r *repo) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Record, error) {
	return r.store.Find(ctx, id)
}

func (r *repo) Query(ctx context.Context, filter Filter) ([]Record, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return r.store.Query(ctx, filter)
}

func (r *repo) Count(ctx context.Context, filter Filter) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	return r.store.Count(ctx, filter)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filter Filter,
) (*pagination.PageResult[Record], error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	page.Normalize(r.pagination)
	return r.store.List(ctx, page, filter)
}

func (r *repo) Revisions(ctx context.Context, id uuid.UUID) ([]Revision, error) {
	return r.store.Revisions(ctx, id)
}

func (r *repo) Batches(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[BatchSummary], error) {
	page.Normalize(r.pagination)
	return r.store.Batches(ctx, page)
}
