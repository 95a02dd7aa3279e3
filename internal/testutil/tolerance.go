package testutil

import (
	"fmt"
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// MaxAbsDiff returns the maximum absolute difference between two slices.
// Returns an error if the slices differ in length.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	maxDiff := 0.0
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff, nil
}

// RelativeRMSError returns the RMS of (got - want) divided by the RMS of
// want. Returns an error if the slices differ in length or want is silent.
func RelativeRMSError(got, want []float64) (float64, error) {
	if len(got) != len(want) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(got), len(want))
	}

	var errSq, refSq float64
	for i := range got {
		d := got[i] - want[i]
		errSq += d * d
		refSq += want[i] * want[i]
	}

	if refSq == 0 {
		return 0, fmt.Errorf("reference signal is silent")
	}

	return math.Sqrt(errSq / refSq), nil
}

// MaxAbs returns the largest absolute sample value in x.
func MaxAbs(x []float64) float64 {
	peak := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// EstimateFrequency estimates the fundamental frequency of x in Hz using
// normalized autocorrelation over lags covering [minHz, maxHz], refined by
// parabolic interpolation. Returns 0 when the input is too short or the
// bounds are invalid.
func EstimateFrequency(x []float64, sampleRate, minHz, maxHz float64) float64 {
	if len(x) < 8 || sampleRate <= 0 || minHz <= 0 || maxHz <= minHz {
		return 0
	}

	lagMin := int(math.Floor(sampleRate / maxHz))
	lagMax := int(math.Ceil(sampleRate / minHz))

	if lagMin < 1 {
		lagMin = 1
	}

	if lagMax >= len(x)-2 {
		lagMax = len(x) - 2
	}

	if lagMax <= lagMin {
		return 0
	}

	mean := 0.0
	for _, v := range x {
		mean += v
	}

	mean /= float64(len(x))

	centered := make([]float64, len(x))
	for i, v := range x {
		centered[i] = v - mean
	}

	scores := make([]float64, lagMax-lagMin+1)
	bestScore := math.Inf(-1)

	for lag := lagMin; lag <= lagMax; lag++ {
		score := normalizedAutocorrelation(centered, lag)

		scores[lag-lagMin] = score
		if score > bestScore {
			bestScore = score
		}
	}

	// Integer period multiples correlate as strongly as the fundamental, so
	// the global argmax can land on a subharmonic when the lag window spans
	// several periods. Take the smallest lag that is a local peak scoring
	// within tolerance of the best instead.
	const subharmonicTolerance = 0.01

	bestLag := lagMin
	for lag := lagMin; lag <= lagMax; lag++ {
		i := lag - lagMin
		if scores[i] < bestScore-subharmonicTolerance {
			continue
		}

		if i > 0 && scores[i-1] > scores[i] {
			continue
		}

		if i < len(scores)-1 && scores[i+1] > scores[i] {
			continue
		}

		bestLag = lag

		break
	}

	lag := float64(bestLag)
	if bestLag > lagMin && bestLag < lagMax {
		s0 := normalizedAutocorrelation(centered, bestLag-1)
		s1 := normalizedAutocorrelation(centered, bestLag)
		s2 := normalizedAutocorrelation(centered, bestLag+1)

		den := s0 - 2*s1 + s2
		if math.Abs(den) > 1e-12 {
			lag += 0.5 * (s0 - s2) / den
		}
	}

	if lag <= 0 {
		return 0
	}

	return sampleRate / lag
}

func normalizedAutocorrelation(x []float64, lag int) float64 {
	if lag <= 0 || lag >= len(x) {
		return math.Inf(-1)
	}

	var dot, e0, e1 float64
	for i := 0; i < len(x)-lag; i++ {
		a := x[i]
		b := x[i+lag]
		dot += a * b
		e0 += a * a
		e1 += b * b
	}

	den := math.Sqrt(e0 * e1)
	if den < 1e-12 {
		return math.Inf(-1)
	}

	return dot / den
}
