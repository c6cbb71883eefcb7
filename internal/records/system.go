package records

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/qagate/pkg/pagination"
)

// System defines the public contract for record ingestion and retrieval.
type System interface {
	Handler() *Handler

	// Ingest validates, deduplicates and stores req.Rows in order. A store
	// failure stops the batch; the partial report is returned together
	// with an error wrapping ErrStoreUnavailable.
	Ingest(ctx context.Context, req IngestRequest) (*BatchReport, error)

	Find(ctx context.Context, id uuid.UUID) (*Record, error)
	Query(ctx context.Context, filter Filter) ([]Record, error)
	Count(ctx context.Context, filter Filter) (int, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filter Filter,
	) (*pagination.PageResult[Record], error)

	Revisions(ctx context.Context, id uuid.UUID) ([]Revision, error)
	Batches(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[BatchSummary], error)
}
