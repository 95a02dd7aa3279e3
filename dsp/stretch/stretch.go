//nolint:funcorder
package stretch

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/klunk386/trasposa/dsp/core"
	"github.com/klunk386/trasposa/dsp/frame"
	"github.com/klunk386/trasposa/dsp/spectrum"
	"github.com/klunk386/trasposa/dsp/window"
)

const (
	defaultFrameSize   = 1024
	defaultAnalysisHop = 256
	minFrameSize       = 64

	// normFloor guards the overlap-add division against near-zero window
	// sums at the signal edges.
	normFloor = 1e-12
)

// ErrInvalidRatio indicates a non-positive or non-finite stretch ratio.
var ErrInvalidRatio = errors.New("stretch: ratio must be positive and finite")

// Stretcher time-stretches a signal by a duration ratio while preserving
// pitch, using a phase-vocoder STFT with per-bin instantaneous-frequency
// tracking and optional identity phase locking (Laroche & Dolson 1999).
//
// Ratio semantics: output length ≈ input length × ratio. Ratios above 1
// lengthen (slow down), below 1 shorten (speed up).
//
// A Stretcher is immutable after New. Each Process call owns its working
// buffers and phase accumulator, so one Stretcher may process distinct
// signals from multiple goroutines concurrently.
type Stretcher struct {
	ratio        float64
	frameSize    int
	analysisHop  int
	synthesisHop int

	windowType window.Type
	phaseLock  bool

	windowCoeffs []float64
	windowSq     []float64
	omega        []float64
}

// Option configures a Stretcher.
type Option func(*settings)

type settings struct {
	frameSize   int
	analysisHop int
	windowType  window.Type
	phaseLock   bool
}

// WithFrameSize sets the FFT frame size. size must be a power of two >= 64.
func WithFrameSize(size int) Option {
	return func(s *settings) {
		s.frameSize = size
	}
}

// WithAnalysisHop sets the analysis hop size in samples.
func WithAnalysisHop(hop int) Option {
	return func(s *settings) {
		s.analysisHop = hop
	}
}

// WithWindowType selects the STFT window. Default is Hann.
func WithWindowType(t window.Type) Option {
	return func(s *settings) {
		s.windowType = t
	}
}

// WithPhaseLocking toggles identity phase locking. Enabled by default;
// disabling it yields the textbook per-bin vocoder.
func WithPhaseLocking(enabled bool) Option {
	return func(s *settings) {
		s.phaseLock = enabled
	}
}

// New creates a Stretcher for the given duration ratio.
func New(ratio float64, opts ...Option) (*Stretcher, error) {
	if !core.IsFinitePositive(ratio) {
		return nil, fmt.Errorf("%w: %f", ErrInvalidRatio, ratio)
	}

	cfg := settings{
		frameSize:   defaultFrameSize,
		analysisHop: defaultAnalysisHop,
		windowType:  window.TypeHann,
		phaseLock:   true,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.frameSize < minFrameSize || !isPowerOf2(cfg.frameSize) {
		return nil, fmt.Errorf("stretch: frame size must be power-of-two and >= %d: %d",
			minFrameSize, cfg.frameSize)
	}

	if cfg.analysisHop <= 0 || cfg.analysisHop >= cfg.frameSize {
		return nil, fmt.Errorf("stretch: analysis hop must be in [1, %d): %d",
			cfg.frameSize, cfg.analysisHop)
	}

	s := &Stretcher{
		ratio:       ratio,
		frameSize:   cfg.frameSize,
		analysisHop: cfg.analysisHop,
		windowType:  cfg.windowType,
		phaseLock:   cfg.phaseLock,
	}

	s.synthesisHop = max(int(math.Round(float64(s.analysisHop)*ratio)), 1)

	// Synthesis frames must still overlap, or the overlap-add leaves
	// silent gaps between them.
	if s.synthesisHop > s.frameSize {
		return nil, fmt.Errorf("%w: %f needs synthesis hop %d exceeding frame size %d",
			ErrInvalidRatio, ratio, s.synthesisHop, s.frameSize)
	}

	s.windowCoeffs = window.Generate(s.windowType, s.frameSize, window.WithPeriodic())

	s.windowSq = make([]float64, s.frameSize)
	for i, w := range s.windowCoeffs {
		s.windowSq[i] = w * w
	}

	bins := s.frameSize/2 + 1

	s.omega = make([]float64, bins)
	for k := range bins {
		s.omega[k] = 2 * math.Pi * float64(k) / float64(s.frameSize)
	}

	return s, nil
}

// Ratio returns the requested duration ratio.
func (s *Stretcher) Ratio() float64 { return s.ratio }

// EffectiveRatio returns the realized duration ratio after hop quantization.
func (s *Stretcher) EffectiveRatio() float64 {
	return float64(s.synthesisHop) / float64(s.analysisHop)
}

// FrameSize returns the FFT frame size.
func (s *Stretcher) FrameSize() int { return s.frameSize }

// AnalysisHop returns the analysis hop size in samples.
func (s *Stretcher) AnalysisHop() int { return s.analysisHop }

// SynthesisHop returns the synthesis hop size in samples.
func (s *Stretcher) SynthesisHop() int { return s.synthesisHop }

// WindowType returns the STFT window type.
func (s *Stretcher) WindowType() window.Type { return s.windowType }

// worker carries the mutable state of one Process call.
type worker struct {
	analyzer *frame.Analyzer
	plan     *algofft.Plan[complex128]

	prevPhase []float64
	sumPhase  []float64

	spectrumBuf []complex128
	timeFrame   []complex128
	synthFrame  []float64
	magnitudes  []float64
	instFreqs   []float64
	peakBins    []int
}

func (s *Stretcher) newWorker() (*worker, error) {
	plan, err := algofft.NewPlan64(s.frameSize)
	if err != nil {
		return nil, fmt.Errorf("stretch: failed to create FFT plan: %w", err)
	}

	analyzer, err := frame.NewAnalyzer(s.frameSize, s.analysisHop, frame.WithWindowType(s.windowType))
	if err != nil {
		return nil, fmt.Errorf("stretch: %w", err)
	}

	bins := s.frameSize/2 + 1

	return &worker{
		analyzer:    analyzer,
		plan:        plan,
		prevPhase:   make([]float64, bins),
		sumPhase:    make([]float64, bins),
		spectrumBuf: make([]complex128, s.frameSize),
		timeFrame:   make([]complex128, s.frameSize),
		synthFrame:  make([]float64, s.frameSize),
		magnitudes:  make([]float64, bins),
		instFreqs:   make([]float64, bins),
		peakBins:    make([]int, 0, bins),
	}, nil
}

// Process time-stretches input and returns a new slice of length
// round(len(input) × EffectiveRatio()). Empty input returns nil.
func (s *Stretcher) Process(input []float64) ([]float64, error) {
	if len(input) == 0 {
		return nil, nil
	}

	w, err := s.newWorker()
	if err != nil {
		return nil, err
	}

	frameCount := w.analyzer.Count(len(input))
	olaLen := (frameCount-1)*s.synthesisHop + s.frameSize
	ola := make([]float64, olaLen)
	norm := make([]float64, olaLen)

	half := s.frameSize / 2
	analysisHopF := float64(s.analysisHop)
	synthesisHopF := float64(s.synthesisHop)

	frameIdx := 0
	for f := range w.analyzer.Frames(input) {
		for i, v := range f.Samples {
			w.spectrumBuf[i] = complex(v, 0)
		}

		if err := w.plan.Forward(w.spectrumBuf, w.spectrumBuf); err != nil {
			return nil, fmt.Errorf("stretch: forward FFT failed: %w", err)
		}

		firstFrame := frameIdx == 0

		// Magnitudes and instantaneous frequencies from wrapped phase
		// differences against the previous analysis frame.
		for k := 0; k <= half; k++ {
			re := real(w.spectrumBuf[k])
			im := imag(w.spectrumBuf[k])
			w.magnitudes[k] = math.Hypot(re, im)
			phase := math.Atan2(im, re)

			delta := phase - w.prevPhase[k] - s.omega[k]*analysisHopF
			delta = spectrum.WrapPhase(delta)

			w.instFreqs[k] = s.omega[k] + delta/analysisHopF
			w.prevPhase[k] = phase

			if firstFrame {
				// Seed the accumulator with the first frame's analysis
				// phase so an unchanged-hop pass reconstructs exactly.
				w.sumPhase[k] = phase
			}
		}

		if firstFrame {
			for k := 0; k <= half; k++ {
				w.synthesizeBin(k)
			}
		} else {
			s.advancePhases(w, half, synthesisHopF)
		}

		w.mirrorSpectrum(half, s.frameSize)

		if err := w.plan.Inverse(w.timeFrame, w.spectrumBuf); err != nil {
			return nil, fmt.Errorf("stretch: inverse FFT failed: %w", err)
		}

		for i := range s.frameSize {
			w.synthFrame[i] = real(w.timeFrame[i])
		}

		outPos := frameIdx * s.synthesisHop
		vecmath.MulBlockInPlace(w.synthFrame, s.windowCoeffs)
		vecmath.AddBlockInPlace(ola[outPos:outPos+s.frameSize], w.synthFrame)
		vecmath.AddBlockInPlace(norm[outPos:outPos+s.frameSize], s.windowSq)

		frameIdx++
	}

	for i := range ola {
		if norm[i] > normFloor {
			ola[i] /= norm[i]
		}
	}

	outLen := max(int(math.Round(float64(len(input))*s.EffectiveRatio())), 1)

	out := make([]float64, outLen)
	copy(out, ola)

	return out, nil
}

// advancePhases accumulates synthesis phase for one frame step and fills the
// synthesis spectrum for bins [0, half].
func (s *Stretcher) advancePhases(w *worker, half int, synthesisHopF float64) {
	if !s.phaseLock {
		for k := 0; k <= half; k++ {
			w.sumPhase[k] += w.instFreqs[k] * synthesisHopF
			w.synthesizeBin(k)
		}

		return
	}

	// Identity phase locking: advance only spectral peaks, then lock each
	// remaining bin to its nearest peak's phase rotation.
	w.peakBins = w.peakBins[:0]
	for k := 1; k < half; k++ {
		if w.magnitudes[k] >= w.magnitudes[k-1] && w.magnitudes[k] > w.magnitudes[k+1] {
			w.peakBins = append(w.peakBins, k)
		}
	}

	if len(w.peakBins) == 0 {
		for k := 0; k <= half; k++ {
			w.sumPhase[k] += w.instFreqs[k] * synthesisHopF
			w.synthesizeBin(k)
		}

		return
	}

	for _, pk := range w.peakBins {
		w.sumPhase[pk] += w.instFreqs[pk] * synthesisHopF
	}

	peakIdx := 0
	for k := 0; k <= half; k++ {
		for peakIdx+1 < len(w.peakBins) {
			curr := w.peakBins[peakIdx]

			next := w.peakBins[peakIdx+1]
			if absInt(next-k) < absInt(curr-k) {
				peakIdx++
			} else {
				break
			}
		}

		pk := w.peakBins[peakIdx]
		if k != pk {
			w.sumPhase[k] = w.sumPhase[pk] + (w.prevPhase[k] - w.prevPhase[pk])
		}

		w.synthesizeBin(k)
	}
}

func (w *worker) synthesizeBin(k int) {
	w.spectrumBuf[k] = complex(
		w.magnitudes[k]*math.Cos(w.sumPhase[k]),
		w.magnitudes[k]*math.Sin(w.sumPhase[k]),
	)
}

// mirrorSpectrum enforces conjugate symmetry so the inverse transform is
// real-valued.
func (w *worker) mirrorSpectrum(half, frameSize int) {
	w.spectrumBuf[0] = complex(real(w.spectrumBuf[0]), 0)

	w.spectrumBuf[half] = complex(real(w.spectrumBuf[half]), 0)
	for k := 1; k < half; k++ {
		v := w.spectrumBuf[k]
		w.spectrumBuf[frameSize-k] = complex(real(v), -imag(v))
	}
}

func isPowerOf2(v int) bool {
	return v > 0 && (v&(v-1)) == 0
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
