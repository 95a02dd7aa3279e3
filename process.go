package trasposa

import (
	"errors"
	"fmt"
	"math"

	"github.com/klunk386/trasposa/dsp/core"
	"github.com/klunk386/trasposa/dsp/normalize"
	"github.com/klunk386/trasposa/dsp/resample"
	"github.com/klunk386/trasposa/dsp/stretch"
)

// MaxSemitones bounds the pitch shift range in either direction.
const MaxSemitones = 24.0

var (
	// ErrInvalidSpeed indicates a non-positive or non-finite speed factor.
	ErrInvalidSpeed = errors.New("trasposa: speed must be positive and finite")

	// ErrInvalidSemitones indicates a pitch shift outside the supported range.
	ErrInvalidSemitones = errors.New("trasposa: semitones out of range")

	// ErrInvalidSampleRate indicates a signal with a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("trasposa: sample rate must be positive")
)

// Params controls a Process run.
type Params struct {
	// Speed is the playback speed factor. 2.0 halves the duration, 0.5
	// doubles it. Pitch is unaffected.
	Speed float64

	// Semitones shifts the pitch in equal-tempered semitones, positive up.
	// Duration is unaffected. Fractional values are allowed.
	Semitones float64

	// Normalize enables peak normalization to TargetPeakDB as the final
	// stage.
	Normalize bool

	// TargetPeakDB is the normalization target in dBFS.
	TargetPeakDB float64

	// FrameSize is the STFT frame size. Zero selects the default.
	FrameSize int

	// Hop is the STFT analysis hop in samples. Zero selects the default.
	Hop int

	// Quality selects the resampler quality used by pitch shifting.
	Quality resample.Quality
}

// DefaultParams returns parameters that leave speed and pitch unchanged and
// normalize to the default target.
func DefaultParams() Params {
	return Params{
		Speed:        1.0,
		Semitones:    0,
		Normalize:    true,
		TargetPeakDB: normalize.DefaultTargetDB,
		Quality:      resample.QualityBalanced,
	}
}

// Process applies speed change, pitch shift, and normalization to in and
// returns the result as a new signal. The input is never modified. The
// stages run in that fixed order; each is skipped when its parameter is the
// identity.
func Process(in Signal, p Params) (Signal, error) {
	if err := validateParams(p); err != nil {
		return Signal{}, err
	}

	if in.SampleRate <= 0 {
		return Signal{}, fmt.Errorf("%w: %d", ErrInvalidSampleRate, in.SampleRate)
	}

	samples := in.Samples
	processed := false

	if p.Speed != 1.0 {
		out, err := changeSpeed(samples, p)
		if err != nil {
			return Signal{}, err
		}

		samples, processed = out, true
	}

	if p.Semitones != 0 {
		out, err := changePitch(samples, p)
		if err != nil {
			return Signal{}, err
		}

		samples, processed = out, true
	}

	if p.Normalize {
		out, err := normalize.ToPeak(samples, p.TargetPeakDB)
		if err != nil {
			return Signal{}, err
		}

		samples, processed = out, true
	}

	if !processed {
		samples = make([]float64, len(in.Samples))
		copy(samples, in.Samples)
	}

	return Signal{Samples: samples, SampleRate: in.SampleRate}, nil
}

// changeSpeed time-stretches by 1/speed, shortening for speeds above 1.
func changeSpeed(samples []float64, p Params) ([]float64, error) {
	st, err := newStretcher(1/p.Speed, p)
	if err != nil {
		return nil, err
	}

	return st.Process(samples)
}

// changePitch stretches by the pitch ratio and resamples the result back to
// the original duration, which transposes the spectrum by the same ratio.
// Using the stretcher's own hop sizes as the resampling ratio restores the
// length exactly, hop quantization included.
func changePitch(samples []float64, p Params) ([]float64, error) {
	ratio := core.SemitonesToRatio(p.Semitones)

	st, err := newStretcher(ratio, p)
	if err != nil {
		return nil, err
	}

	stretched, err := st.Process(samples)
	if err != nil {
		return nil, err
	}

	return resample.Resample(stretched, st.AnalysisHop(), st.SynthesisHop(),
		resample.WithQuality(p.Quality))
}

func newStretcher(ratio float64, p Params) (*stretch.Stretcher, error) {
	opts := make([]stretch.Option, 0, 2)
	if p.FrameSize > 0 {
		opts = append(opts, stretch.WithFrameSize(p.FrameSize))
	}

	if p.Hop > 0 {
		opts = append(opts, stretch.WithAnalysisHop(p.Hop))
	}

	return stretch.New(ratio, opts...)
}

func validateParams(p Params) error {
	if !core.IsFinitePositive(p.Speed) {
		return fmt.Errorf("%w: %f", ErrInvalidSpeed, p.Speed)
	}

	if math.IsNaN(p.Semitones) || math.Abs(p.Semitones) > MaxSemitones {
		return fmt.Errorf("%w: %f not in [%g, %g]",
			ErrInvalidSemitones, p.Semitones, -MaxSemitones, MaxSemitones)
	}

	return nil
}
