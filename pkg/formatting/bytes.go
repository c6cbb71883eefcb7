// Package formatting converts byte sizes between counts and
// human-readable strings such as "8MB".
package formatting

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var units = []string{"B", "KB", "MB", "GB", "TB"}

var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z]*)$`)

// ByteSize is a byte count that reads and writes base-1024 unit strings.
// It implements encoding.TextUnmarshaler so config files can hold "8MB".
type ByteSize int64

// ParseByteSize parses "512", "64KB", "1.5 mb" and similar. Units are
// case-insensitive; a bare number is bytes.
func ParseByteSize(s string) (ByteSize, error) {
	m := sizePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	exp := 0
	if unit := strings.ToUpper(m[2]); unit != "" {
		exp = slices.Index(units, unit)
		if exp < 0 {
			return 0, fmt.Errorf("unknown byte size unit %q", m[2])
		}
	}

	size := n * math.Pow(1024, float64(exp))
	if size > math.MaxInt64 {
		return 0, fmt.Errorf("byte size %q overflows", s)
	}
	return ByteSize(size), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// String renders b with the largest unit that keeps the value at least 1,
// trimming a zero fraction: 8388608 → "8MB", 1536 → "1.5KB".
func (b ByteSize) String() string {
	f := float64(b)
	i := 0
	for i < len(units)-1 && math.Abs(f) >= 1024 {
		f /= 1024
		i++
	}
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64) + units[i]
}
