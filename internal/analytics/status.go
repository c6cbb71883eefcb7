package analytics

import (
	"fmt"
)

// State is the health of an aggregate yield.
type State string

const (
	Healthy  State = "healthy"
	Warning  State = "warning"
	Critical State = "critical"
)

// Thresholds holds validated classification boundaries. Build one with
// NewThresholds; the zero value classifies everything as Healthy.
type Thresholds struct {
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
}

// NewThresholds validates that both thresholds lie in [0,100] and that
// critical does not exceed warning.
func NewThresholds(warning, critical float64) (Thresholds, error) {
	if !inPercentRange(warning) || !inPercentRange(critical) {
		return Thresholds{}, fmt.Errorf("%w: warning %v, critical %v must be within [0,100]",
			ErrInvalidThreshold, warning, critical)
	}
	if critical > warning {
		return Thresholds{}, fmt.Errorf("%w: critical %v, warning %v", ErrInvertedThresholds, critical, warning)
	}
	return Thresholds{Warning: warning, Critical: critical}, nil
}

// Classify maps yield to a State. The critical boundary is exclusive:
// a yield equal to Critical is a Warning.
func Classify(yield float64, t Thresholds) State {
	switch {
	case yield < t.Critical:
		return Critical
	case yield < t.Warning:
		return Warning
	default:
		return Healthy
	}
}

func inPercentRange(v float64) bool {
	return v >= 0 && v <= 100
}
