package resample

import (
	"errors"
	"fmt"
	"math"

	"github.com/klunk386/trasposa/dsp/window"
)

// designPrototype builds the Kaiser-windowed sinc lowpass prototype for a
// polyphase converter of ratio up/down. The cutoff sits at the tighter of the
// two Nyquist limits so the same filter interpolates (up > down) and
// anti-aliases before decimation (down > up).
func designPrototype(up, down int, cfg config) ([]float64, error) {
	nTaps := cfg.tapsPerPhase * up

	fc := (0.5 / float64(max(up, down))) * cfg.cutoffScale
	if fc <= 0 || fc >= 0.5 {
		return nil, fmt.Errorf("resample: invalid cutoff %.6f", fc)
	}

	kaiser, err := window.Kaiser(nTaps, cfg.kaiserBeta)
	if err != nil {
		return nil, fmt.Errorf("resample: kaiser prototype: %w", err)
	}

	taps := make([]float64, nTaps)

	center := 0.5 * float64(nTaps-1)
	for n := range nTaps {
		t := float64(n) - center
		taps[n] = 2 * fc * sinc(2*fc*t) * kaiser[n]
	}

	var sum float64
	for _, v := range taps {
		sum += v
	}

	if sum == 0 {
		return nil, errors.New("resample: designed zero-sum filter")
	}

	// Unity DC gain on the zero-stuffed grid requires a gain of up.
	scale := float64(up) / sum
	for i := range taps {
		taps[i] *= scale
	}

	return taps, nil
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}

	px := math.Pi * x

	return math.Sin(px) / px
}

// approximateRatio finds the best rational approximation up/down of ratio
// with down capped at maxDen, via continued-fraction convergents.
func approximateRatio(ratio float64, maxDen int) (up, down int) {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 1, 1
	}

	var (
		h0, h1 = 0, 1
		k0, k1 = 1, 0
		x      = ratio
	)

	for range 64 {
		a := int(math.Floor(x))

		h2 := a*h1 + h0
		k2 := a*k1 + k0
		if k2 > maxDen {
			break
		}

		h0, h1 = h1, h2
		k0, k1 = k1, k2

		frac := x - float64(a)
		if frac < 1e-12 {
			break
		}

		x = 1 / frac
	}

	if h1 <= 0 || k1 <= 0 {
		return 1, 1
	}

	return h1, k1
}
