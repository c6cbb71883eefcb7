package analytics_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/qagate/internal/analytics"
)

func TestClassifyBoundaries(t *testing.T) {
	thresholds, err := analytics.NewThresholds(90, 80)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		yield float64
		want  analytics.State
	}{
		{0, analytics.Critical},
		{79.9, analytics.Critical},
		{80, analytics.Warning},
		{89.99, analytics.Warning},
		{90, analytics.Healthy},
		{95, analytics.Healthy},
		{100, analytics.Healthy},
	}

	for _, tt := range tests {
		if got := analytics.Classify(tt.yield, thresholds); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.yield, got, tt.want)
		}
	}
}

func TestClassifyEqualThresholds(t *testing.T) {
	thresholds, err := analytics.NewThresholds(80, 80)
	if err != nil {
		t.Fatal(err)
	}
	if got := analytics.Classify(79, thresholds); got != analytics.Critical {
		t.Errorf("Classify(79) = %s, want critical", got)
	}
	if got := analytics.Classify(80, thresholds); got != analytics.Healthy {
		t.Errorf("Classify(80) = %s, want healthy (no warning band)", got)
	}
}

func TestNewThresholdsValidation(t *testing.T) {
	tests := []struct {
		name              string
		warning, critical float64
		err               error
	}{
		{"inverted", 80, 90, analytics.ErrInvertedThresholds},
		{"warning above range", 101, 80, analytics.ErrInvalidThreshold},
		{"critical negative", 90, -1, analytics.ErrInvalidThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := analytics.NewThresholds(tt.warning, tt.critical); !errors.Is(err, tt.err) {
				t.Errorf("NewThresholds(%v, %v) error = %v, want %v", tt.warning, tt.critical, err, tt.err)
			}
		})
	}
}
