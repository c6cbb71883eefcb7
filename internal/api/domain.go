package api

import (
	"github.com/JaimeStill/qagate/internal/analytics"
	"github.com/JaimeStill/qagate/internal/records"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Records   records.System
	Analytics analytics.System
}

// NewDomain creates all domain systems from the API runtime. Analytics
// reads its snapshots through the records system.
func NewDomain(runtime *Runtime) *Domain {
	recordsSystem := records.New(
		runtime.Records,
		runtime.Storage,
		records.NewValidator(runtime.Ingest),
		runtime.Logger,
		runtime.Pagination,
	)

	analyticsSystem := analytics.New(
		recordsSystem,
		runtime.Analytics,
		runtime.Ingest.ExcludedFailureModes,
		runtime.Logger,
	)

	return &Domain{
		Records:   recordsSystem,
		Analytics: analyticsSystem,
	}
}
