package trasposa

import (
	"math"
	"testing"

	"github.com/klunk386/trasposa/dsp/core"
	"github.com/klunk386/trasposa/internal/testutil"
)

const testSampleRate = 44100

func sineSignal(freqHz, amplitude float64, length int) Signal {
	return Signal{
		Samples:    testutil.DeterministicSine(freqHz, testSampleRate, amplitude, length),
		SampleRate: testSampleRate,
	}
}

func TestProcessValidation(t *testing.T) {
	in := sineSignal(440, 0.5, 4410)

	tests := []struct {
		name   string
		in     Signal
		params Params
	}{
		{name: "zero speed", in: in, params: Params{Speed: 0}},
		{name: "negative speed", in: in, params: Params{Speed: -1}},
		{name: "NaN speed", in: in, params: Params{Speed: math.NaN()}},
		{name: "speed below overlap limit", in: in, params: Params{Speed: 0.2}},
		{name: "semitones too high", in: in, params: Params{Speed: 1, Semitones: 25}},
		{name: "semitones too low", in: in, params: Params{Speed: 1, Semitones: -25}},
		{name: "NaN semitones", in: in, params: Params{Speed: 1, Semitones: math.NaN()}},
		{
			name:   "bad sample rate",
			in:     Signal{Samples: []float64{0.1}, SampleRate: 0},
			params: DefaultParams(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Process(tt.in, tt.params); err == nil {
				t.Fatalf("Process() expected error, got nil")
			}
		})
	}
}

func TestProcessIdentity(t *testing.T) {
	in := sineSignal(440, 0.5, testSampleRate)

	p := DefaultParams()
	p.Normalize = false

	out, err := Process(in, p)
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	if out.SampleRate != in.SampleRate {
		t.Errorf("SampleRate = %d, want %d", out.SampleRate, in.SampleRate)
	}

	rms, err := testutil.RelativeRMSError(out.Samples, in.Samples)
	if err != nil {
		t.Fatalf("RelativeRMSError() failed: %v", err)
	}

	if rms > 1e-3 {
		t.Errorf("identity pass relative RMS error = %g, want <= 1e-3", rms)
	}
}

func TestProcessIdentityDoesNotAlias(t *testing.T) {
	in := sineSignal(440, 0.5, 4410)

	p := DefaultParams()
	p.Normalize = false

	out, err := Process(in, p)
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	out.Samples[0] = 42
	if in.Samples[0] == 42 {
		t.Fatal("Process() output aliases the input buffer")
	}
}

func TestProcessPitchShiftOctaveUp(t *testing.T) {
	in := sineSignal(440, 0.5, testSampleRate)

	p := DefaultParams()
	p.Semitones = 12
	p.Normalize = false

	out, err := Process(in, p)
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	// Duration preserved to within one analysis hop.
	if d := out.Duration() - in.Duration(); d.Abs().Seconds() > 256.0/testSampleRate {
		t.Errorf("duration drifted by %v", d)
	}

	mid := out.Samples[len(out.Samples)/4 : 3*len(out.Samples)/4]

	got := testutil.EstimateFrequency(mid, testSampleRate, 200, 2000)
	if math.Abs(got-880)/880 > 0.01 {
		t.Errorf("estimated frequency = %f Hz, want 880 Hz within 1%%", got)
	}
}

func TestProcessPitchShiftOctaveDown(t *testing.T) {
	in := sineSignal(440, 0.5, testSampleRate)

	p := DefaultParams()
	p.Semitones = -12
	p.Normalize = false

	out, err := Process(in, p)
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	mid := out.Samples[len(out.Samples)/4 : 3*len(out.Samples)/4]

	got := testutil.EstimateFrequency(mid, testSampleRate, 100, 1000)
	if math.Abs(got-220)/220 > 0.01 {
		t.Errorf("estimated frequency = %f Hz, want 220 Hz within 1%%", got)
	}
}

func TestProcessFractionalSemitones(t *testing.T) {
	in := sineSignal(440, 0.5, testSampleRate)

	p := DefaultParams()
	p.Semitones = 3.5
	p.Normalize = false

	out, err := Process(in, p)
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	want := 440 * core.SemitonesToRatio(3.5)
	mid := out.Samples[len(out.Samples)/4 : 3*len(out.Samples)/4]

	got := testutil.EstimateFrequency(mid, testSampleRate, 200, 2000)
	if math.Abs(got-want)/want > 0.015 {
		t.Errorf("estimated frequency = %f Hz, want %f Hz within 1.5%%", got, want)
	}
}

func TestProcessSpeedDouble(t *testing.T) {
	in := sineSignal(440, 0.5, testSampleRate)

	p := DefaultParams()
	p.Speed = 2.0
	p.Normalize = false

	out, err := Process(in, p)
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	if got, want := len(out.Samples), testSampleRate/2; got != want {
		t.Errorf("output length = %d, want %d", got, want)
	}

	mid := out.Samples[len(out.Samples)/4 : 3*len(out.Samples)/4]

	got := testutil.EstimateFrequency(mid, testSampleRate, 200, 2000)
	if math.Abs(got-440)/440 > 0.01 {
		t.Errorf("estimated frequency = %f Hz, want 440 Hz within 1%%", got)
	}
}

func TestProcessSpeedHalf(t *testing.T) {
	in := sineSignal(440, 0.5, testSampleRate)

	p := DefaultParams()
	p.Speed = 0.5
	p.Normalize = false

	out, err := Process(in, p)
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	if got, want := len(out.Samples), 2*testSampleRate; got != want {
		t.Errorf("output length = %d, want %d", got, want)
	}
}

func TestProcessNormalization(t *testing.T) {
	in := sineSignal(440, 0.25, testSampleRate)

	p := DefaultParams()
	p.TargetPeakDB = -1

	out, err := Process(in, p)
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	want := core.DBToLinear(-1) // ≈ 0.8913
	if got := testutil.MaxAbs(out.Samples); math.Abs(got-want) > 0.001 {
		t.Errorf("output peak = %f, want %f", got, want)
	}
}

func TestProcessDoubleSpeedNormalized(t *testing.T) {
	in := sineSignal(440, 0.5, testSampleRate)

	p := DefaultParams()
	p.Speed = 2.0
	p.TargetPeakDB = -1

	out, err := Process(in, p)
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	if got, want := len(out.Samples), testSampleRate/2; got != want {
		t.Errorf("output length = %d, want %d", got, want)
	}

	mid := out.Samples[len(out.Samples)/4 : 3*len(out.Samples)/4]

	freq := testutil.EstimateFrequency(mid, testSampleRate, 200, 2000)
	if math.Abs(freq-440)/440 > 0.01 {
		t.Errorf("estimated frequency = %f Hz, want 440 Hz within 1%%", freq)
	}

	wantPeak := math.Pow(10, -1.0/20) // ≈ 0.8913
	if got := testutil.MaxAbs(out.Samples); math.Abs(got-wantPeak) > 0.001 {
		t.Errorf("output peak = %f, want %f", got, wantPeak)
	}
}

func TestProcessSilencePropagates(t *testing.T) {
	in := Signal{Samples: make([]float64, 22050), SampleRate: testSampleRate}

	p := DefaultParams()
	p.Semitones = 7
	p.Speed = 1.5

	out, err := Process(in, p)
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	if got := testutil.MaxAbs(out.Samples); got != 0 {
		t.Errorf("output peak = %g, want 0 for silent input", got)
	}
}

func TestProcessCombinedSpeedAndPitch(t *testing.T) {
	in := sineSignal(440, 0.5, testSampleRate)

	p := DefaultParams()
	p.Speed = 1.5
	p.Semitones = 12

	out, err := Process(in, p)
	if err != nil {
		t.Fatalf("Process() failed: %v", err)
	}

	wantLen := float64(testSampleRate) / 1.5
	if math.Abs(float64(len(out.Samples))-wantLen) > 512 {
		t.Errorf("output length = %d, want about %.0f", len(out.Samples), wantLen)
	}

	mid := out.Samples[len(out.Samples)/4 : 3*len(out.Samples)/4]

	got := testutil.EstimateFrequency(mid, testSampleRate, 400, 2000)
	if math.Abs(got-880)/880 > 0.015 {
		t.Errorf("estimated frequency = %f Hz, want 880 Hz within 1.5%%", got)
	}
}

func TestSignalDuration(t *testing.T) {
	tests := []struct {
		name string
		sig  Signal
		want float64
	}{
		{name: "one second", sig: Signal{Samples: make([]float64, 44100), SampleRate: 44100}, want: 1},
		{name: "half second", sig: Signal{Samples: make([]float64, 24000), SampleRate: 48000}, want: 0.5},
		{name: "empty", sig: Signal{SampleRate: 44100}, want: 0},
		{name: "no rate", sig: Signal{Samples: make([]float64, 10)}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sig.Duration().Seconds(); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Duration() = %v s, want %v s", got, tt.want)
			}
		})
	}
}

func TestSignalClone(t *testing.T) {
	orig := sineSignal(440, 0.5, 128)

	clone := orig.Clone()
	if clone.SampleRate != orig.SampleRate {
		t.Errorf("Clone() SampleRate = %d, want %d", clone.SampleRate, orig.SampleRate)
	}

	testutil.RequireSliceNearlyEqual(t, clone.Samples, orig.Samples, 0)

	clone.Samples[0] = 42
	if orig.Samples[0] == 42 {
		t.Fatal("Clone() shares the sample buffer with the original")
	}
}
