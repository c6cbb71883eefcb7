package records

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors for record operations.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("record already exists")
	ErrInvalidFilter    = errors.New("invalid record filter")
	ErrInvalidRequest   = errors.New("invalid ingest request")
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// RejectionKind classifies why a raw row was rejected.
type RejectionKind string

const (
	MissingField     RejectionKind = "missing_field"
	InvalidYield     RejectionKind = "invalid_yield"
	InvalidTimestamp RejectionKind = "invalid_timestamp"
)

// ValidationError describes the first rule a raw row failed.
type ValidationError struct {
	Kind  RejectionKind
	Field string
	Value any
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingField:
		return fmt.Sprintf("missing field %s", e.Field)
	case InvalidYield:
		return fmt.Sprintf("invalid yield %v: must be a number in [0, 100]", e.Value)
	case InvalidTimestamp:
		return fmt.Sprintf("invalid timestamp %v", e.Value)
	default:
		return fmt.Sprintf("%s: %s=%v", e.Kind, e.Field, e.Value)
	}
}

// MapHTTPStatus maps record domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidFilter), errors.Is(err, ErrInvalidRequest), errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
