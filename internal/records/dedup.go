package records

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Decision is the outcome of admitting a validated record.
type Decision string

const (
	// Admitted means the id is new; the caller inserts the record.
	Admitted Decision = "admitted"
	// Duplicate means an identical record is already stored; nothing is written.
	Duplicate Decision = "duplicate"
	// Superseded means the stored record differs; the caller overwrites it
	// and records a revision.
	Superseded Decision = "superseded"
)

// Finder looks up stored records by id.
type Finder interface {
	Find(ctx context.Context, id uuid.UUID) (*Record, error)
}

// Admit decides how rec relates to what store already holds. For
// Superseded the stored record is returned so the caller can audit the
// overwrite. Collisions inside one batch are resolved before admission,
// so each id is admitted at most once per batch.
func Admit(ctx context.Context, rec Record, store Finder) (Decision, *Record, error) {
	existing, err := store.Find(ctx, rec.ID)
	if errors.Is(err, ErrNotFound) {
		return Admitted, nil, nil
	}
	if err != nil {
		return "", nil, err
	}

	if existing.SameContent(rec) {
		return Duplicate, existing, nil
	}
	return Superseded, existing, nil
}
