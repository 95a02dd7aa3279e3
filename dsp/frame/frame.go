package frame

import (
	"fmt"
	"iter"

	"github.com/klunk386/trasposa/dsp/window"
)

// Frame is one windowed analysis slice of a signal.
//
// Samples is owned by the Analyzer and is only valid until the next frame is
// yielded; callers that need to retain it must copy.
type Frame struct {
	// Offset is the frame's starting sample index in the source signal.
	Offset int
	// Samples holds Size() windowed samples. Past the end of the signal the
	// frame is zero-padded, so every frame has full length.
	Samples []float64
}

// Analyzer splits a signal into overlapping windowed frames.
//
// The final partial frame is always zero-padded, never dropped, so the frame
// sequence covers every input sample and total duration is preserved through
// analysis/synthesis round trips.
type Analyzer struct {
	size int
	hop  int

	windowType window.Type
	coeffs     []float64
	buf        []float64
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWindowType selects the analysis window. Default is Hann.
func WithWindowType(t window.Type) Option {
	return func(a *Analyzer) {
		a.windowType = t
	}
}

// NewAnalyzer creates an Analyzer producing frames of the given size spaced
// hop samples apart. size and hop must be positive and hop must not exceed
// size.
func NewAnalyzer(size, hop int, opts ...Option) (*Analyzer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("frame size must be > 0: %d", size)
	}

	if hop <= 0 || hop > size {
		return nil, fmt.Errorf("frame hop must be in [1, %d]: %d", size, hop)
	}

	a := &Analyzer{
		size:       size,
		hop:        hop,
		windowType: window.TypeHann,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	a.coeffs = window.Generate(a.windowType, size, window.WithPeriodic())
	a.buf = make([]float64, size)

	return a, nil
}

// Size returns the frame length in samples.
func (a *Analyzer) Size() int { return a.size }

// Hop returns the spacing between consecutive frame starts in samples.
func (a *Analyzer) Hop() int { return a.hop }

// WindowType returns the configured analysis window.
func (a *Analyzer) WindowType() window.Type { return a.windowType }

// Coefficients returns a copy of the window coefficients applied per frame.
func (a *Analyzer) Coefficients() []float64 {
	out := make([]float64, len(a.coeffs))
	copy(out, a.coeffs)

	return out
}

// Count returns the number of frames produced for an input of length n.
func (a *Analyzer) Count(n int) int {
	if n <= 0 {
		return 0
	}

	return 1 + (n-1)/a.hop
}

// Frames returns a lazy, finite, restartable sequence of windowed frames.
//
// The sequence is a pure function of input: iterating twice yields identical
// frames. The yielded Frame reuses one internal buffer across iterations.
func (a *Analyzer) Frames(input []float64) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		count := a.Count(len(input))
		for idx := range count {
			pos := idx * a.hop
			for i := range a.size {
				x := 0.0

				if j := pos + i; j < len(input) {
					x = input[j]
				}

				a.buf[i] = x * a.coeffs[i]
			}

			if !yield(Frame{Offset: pos, Samples: a.buf}) {
				return
			}
		}
	}
}
