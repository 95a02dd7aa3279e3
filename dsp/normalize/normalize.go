// Package normalize provides peak-based level adjustment.
package normalize

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/klunk386/trasposa/dsp/core"
)

// DefaultTargetDB is the default normalization target in dBFS. Leaving a
// little headroom below full scale avoids clipping after later conversion
// to integer PCM.
const DefaultTargetDB = -1.0

// silenceThreshold is the peak level below which a signal is treated as
// silent and passed through unchanged.
const silenceThreshold = 1e-10

// ErrInvalidTarget indicates a non-finite normalization target.
var ErrInvalidTarget = errors.New("normalize: target must be finite")

// Peak returns the maximum absolute sample value.
func Peak(x []float64) float64 {
	peak := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	return peak
}

// PeakDB returns the peak level in dBFS. Silence yields -Inf.
func PeakDB(x []float64) float64 {
	return core.LinearToDB(Peak(x))
}

// ToPeak scales x so its peak sits at targetDB dBFS and returns the result
// as a new slice. Silent input is returned as an unscaled copy.
func ToPeak(x []float64, targetDB float64) ([]float64, error) {
	if math.IsNaN(targetDB) || math.IsInf(targetDB, 0) {
		return nil, fmt.Errorf("%w: %f", ErrInvalidTarget, targetDB)
	}

	out := make([]float64, len(x))
	if len(x) == 0 {
		return out, nil
	}

	peak := Peak(x)
	if peak < silenceThreshold {
		copy(out, x)

		return out, nil
	}

	gain := core.DBToLinear(targetDB) / peak
	vecmath.ScaleBlock(out, x, gain)

	return out, nil
}
