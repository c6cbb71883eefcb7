// Package stats provides numerically stable descriptive statistics over
// float64 samples. Functions are pure; Moments and Rolling accumulate
// state and are not safe for concurrent mutation.
package stats

import (
	"math"
	"slices"
)

const (
	spreadEpsilon         = 1e-9
	cancellationTolerance = 1e-12
)

// Moments accumulates count, mean and the sum of squared deviations using
// Welford's online update, which avoids the cancellation of the naive
// sum-of-squares formula on values clustered near 100.
type Moments struct {
	n    int
	mean float64
	m2   float64
}

// Add folds x into the running moments.
func (m *Moments) Add(x float64) {
	m.n++
	delta := x - m.mean
	m.mean += delta / float64(m.n)
	m.m2 += delta * (x - m.mean)
}

// Count returns the number of samples added.
func (m Moments) Count() int { return m.n }

// Mean returns the sample mean, or NaN when empty.
func (m Moments) Mean() float64 {
	if m.n == 0 {
		return math.NaN()
	}
	return m.mean
}

// Variance returns the unbiased sample variance (n-1 denominator),
// or NaN for fewer than two samples.
func (m Moments) Variance() float64 {
	if m.n < 2 {
		return math.NaN()
	}
	return m.m2 / float64(m.n-1)
}

// StdDev returns the sample standard deviation, or NaN for fewer than two samples.
func (m Moments) StdDev() float64 {
	return math.Sqrt(m.Variance())
}

// Without returns the moments of the sample with one occurrence of x
// removed. x must have been added previously.
func (m Moments) Without(x float64) Moments {
	if m.n <= 1 {
		return Moments{}
	}
	n := m.n - 1
	mean := (m.mean*float64(m.n) - x) / float64(n)
	m2 := m.m2 - (x-m.mean)*(x-mean)
	// Cancellation leaves residue proportional to the original m2.
	if m2 <= cancellationTolerance*m.m2 {
		m2 = 0
	}
	return Moments{n: n, mean: mean, m2: m2}
}

// HasSpread reports whether the sample has at least two values and a
// standard deviation distinguishable from rounding noise.
func (m Moments) HasSpread() bool {
	return m.n >= 2 && m.StdDev() > spreadEpsilon
}

// Describe computes moments over xs.
func Describe(xs []float64) Moments {
	var m Moments
	for _, x := range xs {
		m.Add(x)
	}
	return m
}

// Mean returns the arithmetic mean of xs, or NaN when xs is empty.
func Mean(xs []float64) float64 {
	return Describe(xs).Mean()
}

// StdDev returns the sample standard deviation of xs.
func StdDev(xs []float64) float64 {
	return Describe(xs).StdDev()
}

// Median returns the middle value of xs, averaging the two central values
// for even lengths. NaN when xs is empty. xs is not modified.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Finite reports whether x is neither NaN nor infinite.
func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
