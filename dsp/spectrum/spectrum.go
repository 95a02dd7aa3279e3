package spectrum

import (
	"math"
	"math/cmplx"
	"sync"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

// Magnitude returns |X[k]| for each complex spectrum bin.
//
// Scratch buffers are pooled internally, so in steady state this allocates
// only the output slice.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Magnitude(out, re, im)
	putScratch(buf)
	return out
}

// Phase returns arg(X[k]) for each complex spectrum bin in radians.
func Phase(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	for i, c := range in {
		out[i] = cmplx.Phase(c)
	}
	return out
}

// WrapPhase reduces x into the principal interval (-pi, pi].
func WrapPhase(x float64) float64 {
	x = math.Mod(x, 2*math.Pi)
	switch {
	case x <= -math.Pi:
		x += 2 * math.Pi
	case x > math.Pi:
		x -= 2 * math.Pi
	}

	return x
}

// BinFrequency returns the center frequency in Hz of bin k for the given
// transform size.
func BinFrequency(k, fftSize int, sampleRate float64) float64 {
	if fftSize <= 0 {
		return 0
	}

	return float64(k) * sampleRate / float64(fftSize)
}

// DominantFrequency estimates the strongest spectral component of x in Hz.
//
// The signal is transformed at the next power-of-two size, the peak magnitude
// bin located over the non-negative frequencies, and the estimate refined by
// parabolic interpolation on the log-magnitude of the neighboring bins.
// Returns 0 for empty or silent input.
func DominantFrequency(x []float64, sampleRate float64) float64 {
	if len(x) < 2 || sampleRate <= 0 {
		return 0
	}

	size := nextPowerOf2(len(x))

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return 0
	}

	buf := make([]complex128, size)
	for i, v := range x {
		buf[i] = complex(v, 0)
	}

	if err := plan.Forward(buf, buf); err != nil {
		return 0
	}

	half := size / 2
	mag := Magnitude(buf[:half+1])

	// Skip DC when locating the peak.
	peak := 1
	for k := 2; k <= half; k++ {
		if mag[k] > mag[peak] {
			peak = k
		}
	}

	if mag[peak] == 0 {
		return 0
	}

	bin := float64(peak)
	if peak > 1 && peak < half {
		bin += parabolicOffset(mag[peak-1], mag[peak], mag[peak+1])
	}

	return bin * sampleRate / float64(size)
}

// parabolicOffset returns the sub-bin peak offset in [-0.5, 0.5] from three
// log-magnitude samples around a spectral peak.
func parabolicOffset(left, center, right float64) float64 {
	const floor = 1e-30

	l := math.Log(math.Max(left, floor))
	c := math.Log(math.Max(center, floor))
	r := math.Log(math.Max(right, floor))

	den := l - 2*c + r
	if math.Abs(den) < 1e-12 {
		return 0
	}

	off := 0.5 * (l - r) / den

	return math.Max(-0.5, math.Min(0.5, off))
}

func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}

	return size
}
