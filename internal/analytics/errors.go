package analytics

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/qagate/internal/records"
)

var (
	ErrInvertedThresholds = errors.New("critical threshold exceeds warning threshold")
	ErrInvalidThreshold   = errors.New("invalid threshold")
	ErrInvalidWindow      = errors.New("window must be at least 1")
	ErrInvalidBucket      = errors.New("unknown bucket")
	ErrInvalidGroup       = errors.New("unknown group")
	ErrInvalidMethod      = errors.New("unknown outlier method")
	ErrTrendTooWide       = errors.New("trend spans too many buckets")
)

// MapHTTPStatus maps analytics errors to HTTP status codes. Record filter
// and store errors are delegated to the records domain.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvertedThresholds),
		errors.Is(err, ErrInvalidThreshold),
		errors.Is(err, ErrInvalidWindow),
		errors.Is(err, ErrInvalidBucket),
		errors.Is(err, ErrInvalidGroup),
		errors.Is(err, ErrInvalidMethod),
		errors.Is(err, ErrTrendTooWide):
		return http.StatusBadRequest
	default:
		return records.MapHTTPStatus(err)
	}
}
