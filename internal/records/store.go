package records

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/qagate/pkg/pagination"
)

// Store is durable keyed record storage. Every method is atomic per call:
// a record is never observed half written.
type Store interface {
	Finder

	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// Upsert inserts rec, overwriting any record with the same id.
	Upsert(ctx context.Context, rec Record) error

	// Supersede overwrites rev.Current and appends rev to the audit trail
	// in one transaction.
	Supersede(ctx context.Context, rev Revision) error

	// Query returns matching records ordered by timestamp, then id.
	Query(ctx context.Context, filter Filter) ([]Record, error)

	List(ctx context.Context, page pagination.PageRequest, filter Filter) (*pagination.PageResult[Record], error)
	Count(ctx context.Context, filter Filter) (int, error)

	// Revisions returns the audit trail for a record, oldest first.
	Revisions(ctx context.Context, id uuid.UUID) ([]Revision, error)

	SaveBatch(ctx context.Context, batch BatchSummary) error
	Batches(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[BatchSummary], error)
}
