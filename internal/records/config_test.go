package records_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/qagate/internal/records"
)

func TestConfigGranularity(t *testing.T) {
	tests := []struct {
		granularity string
		want        time.Duration
		ok          bool
	}{
		{"", time.Second, true},
		{"1us", time.Microsecond, true},
		{"1m", time.Minute, true},
		{"24h", 24 * time.Hour, true},
		{"500ns", 0, false},
		{"1ns", 0, false},
		{"0s", 0, false},
		{"-1s", 0, false},
		{"25h", 0, false},
		{"soon", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.granularity, func(t *testing.T) {
			cfg := records.Config{Granularity: tt.granularity}
			err := cfg.Finalize(nil)
			if (err == nil) != tt.ok {
				t.Fatalf("Finalize(%q) error = %v, want ok=%v", tt.granularity, err, tt.ok)
			}
			if tt.ok && cfg.GranularityDuration() != tt.want {
				t.Errorf("GranularityDuration() = %v, want %v", cfg.GranularityDuration(), tt.want)
			}
		})
	}
}

func TestConfigLotPrefixes(t *testing.T) {
	cfg := records.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if cfg.LotPrefixes["LN-R"] != "Outer Layer" {
		t.Errorf("default LotPrefixes = %v", cfg.LotPrefixes)
	}

	blank := records.Config{LotPrefixes: map[string]string{"LN-X": " "}}
	if err := blank.Finalize(nil); err == nil {
		t.Error("expected blank lot prefix target to be rejected")
	}

	none := records.Config{LotPrefixes: map[string]string{}}
	if err := none.Finalize(nil); err != nil || len(none.LotPrefixes) != 0 {
		t.Errorf("empty LotPrefixes should disable inference: %v %v", err, none.LotPrefixes)
	}
}
