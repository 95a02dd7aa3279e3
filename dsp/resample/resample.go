package resample

import (
	"errors"
	"math"
)

var (
	// ErrInvalidRatio indicates an invalid up/down ratio.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
	// ErrInvalidFactor indicates an invalid rate-change factor.
	ErrInvalidFactor = errors.New("resample: invalid factor")
)

// Quality controls default anti-aliasing filter settings.
type Quality int

const (
	// QualityFast prioritizes lower CPU usage.
	QualityFast Quality = iota
	// QualityBalanced is the default quality/performance trade-off.
	QualityBalanced
	// QualityBest prioritizes stopband attenuation and passband flatness.
	QualityBest
)

// Profile exposes default filter parameters for each quality mode.
type Profile struct {
	TapsPerPhase      int
	CutoffScale       float64
	KaiserBeta        float64
	NominalStopbandDB float64
}

// QualityProfile returns the default profile used by quality mode q.
func QualityProfile(q Quality) Profile {
	switch q {
	case QualityFast:
		return Profile{TapsPerPhase: 16, CutoffScale: 0.88, KaiserBeta: 5.0, NominalStopbandDB: 55}
	case QualityBest:
		return Profile{TapsPerPhase: 64, CutoffScale: 0.96, KaiserBeta: 9.0, NominalStopbandDB: 90}
	default:
		return Profile{TapsPerPhase: 32, CutoffScale: 0.92, KaiserBeta: 7.5, NominalStopbandDB: 75}
	}
}

type config struct {
	quality      Quality
	tapsPerPhase int
	cutoffScale  float64
	kaiserBeta   float64
	maxDen       int
}

// Option configures the resampler.
type Option func(*config)

// WithQuality selects a predefined anti-aliasing quality mode.
func WithQuality(q Quality) Option {
	return func(cfg *config) {
		cfg.quality = q
	}
}

// WithTapsPerPhase overrides taps per polyphase branch.
func WithTapsPerPhase(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.tapsPerPhase = n
		}
	}
}

// WithCutoffScale overrides normalized cutoff scaling in range (0, 1].
// 1.0 equals the theoretical anti-aliasing cutoff.
func WithCutoffScale(v float64) Option {
	return func(cfg *config) {
		if v > 0 && v <= 1 {
			cfg.cutoffScale = v
		}
	}
}

// WithKaiserBeta overrides the Kaiser window beta parameter.
func WithKaiserBeta(beta float64) Option {
	return func(cfg *config) {
		if beta >= 0 {
			cfg.kaiserBeta = beta
		}
	}
}

// WithMaxDenominator caps denominator size for rate-ratio approximation.
func WithMaxDenominator(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxDen = n
		}
	}
}

func defaultConfig() config {
	return config{
		quality: QualityBalanced,
		maxDen:  4096,
	}
}

func (c config) finalized() config {
	p := QualityProfile(c.quality)
	if c.tapsPerPhase <= 0 {
		c.tapsPerPhase = p.TapsPerPhase
	}

	if c.cutoffScale <= 0 || c.cutoffScale > 1 {
		c.cutoffScale = p.CutoffScale
	}

	if c.kaiserBeta <= 0 {
		c.kaiserBeta = p.KaiserBeta
	}

	if c.maxDen <= 0 {
		c.maxDen = 4096
	}

	return c
}

// Converter performs rational sample-rate conversion by factor up/down using
// a polyphase Kaiser-windowed sinc FIR with group-delay compensation, so the
// output is time-aligned with the input.
type Converter struct {
	up   int
	down int

	quality Quality
	taps    []float64
	delay   int
}

// New creates a converter for ratio up/down (output length ≈ input × up/down).
func New(up, down int, opts ...Option) (*Converter, error) {
	if up <= 0 || down <= 0 {
		return nil, ErrInvalidRatio
	}

	g := gcd(up, down)
	up /= g
	down /= g

	cfg := defaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	cfg = cfg.finalized()

	taps, err := designPrototype(up, down, cfg)
	if err != nil {
		return nil, err
	}

	return &Converter{
		up:      up,
		down:    down,
		quality: cfg.quality,
		taps:    taps,
		delay:   (len(taps) - 1) / 2,
	}, nil
}

// Ratio returns the reduced up/down conversion factors.
func (c *Converter) Ratio() (up, down int) {
	return c.up, c.down
}

// Quality returns the configured quality mode.
func (c *Converter) Quality() Quality {
	return c.quality
}

// OutputLen returns the number of output samples produced for inputLen.
func (c *Converter) OutputLen(inputLen int) int {
	if inputLen <= 0 {
		return 0
	}

	return (inputLen*c.up + c.down - 1) / c.down
}

// Process converts input in one shot and returns a new output slice.
//
// Identity ratios return a copy without filtering.
func (c *Converter) Process(input []float64) []float64 {
	if len(input) == 0 {
		return nil
	}

	if c.up == c.down {
		out := make([]float64, len(input))
		copy(out, input)

		return out
	}

	out := make([]float64, c.OutputLen(len(input)))

	for m := range out {
		// Position of output sample m on the zero-stuffed input grid,
		// advanced by the prototype group delay for time alignment.
		base := m*c.down + c.delay
		r := base % c.up
		q := (base - r) / c.up

		var y float64

		for j := r; j < len(c.taps); j += c.up {
			idx := q - (j-r)/c.up
			if idx < 0 {
				break
			}

			if idx >= len(input) {
				continue
			}

			y += c.taps[j] * input[idx]
		}

		out[m] = y
	}

	return out
}

// Resample converts input using ratio up/down as a one-shot helper.
func Resample(input []float64, up, down int, opts ...Option) ([]float64, error) {
	c, err := New(up, down, opts...)
	if err != nil {
		return nil, err
	}

	return c.Process(input), nil
}

// ByFactor converts input by rate-change factor (output length ≈ input/factor),
// approximating 1/factor as a rational up/down ratio.
//
// factor > 1 shortens the signal (pitch up after a compensating stretch);
// factor < 1 lengthens it.
func ByFactor(input []float64, factor float64, opts ...Option) ([]float64, error) {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return nil, ErrInvalidFactor
	}

	cfg := defaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	cfg = cfg.finalized()

	up, down := approximateRatio(1/factor, cfg.maxDen)

	return Resample(input, up, down, opts...)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}
