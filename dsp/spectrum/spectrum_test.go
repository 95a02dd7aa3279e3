package spectrum

import (
	"math"
	"testing"

	"github.com/klunk386/trasposa/internal/testutil"
)

func TestMagnitude(t *testing.T) {
	in := []complex128{complex(3, 4), complex(0, 0), complex(-1, 0), complex(0, -2)}
	want := []float64{5, 0, 1, 2}

	testutil.RequireSliceNearlyEqual(t, Magnitude(in), want, 1e-12)

	if got := Magnitude(nil); got != nil {
		t.Fatalf("Magnitude(nil) = %v, want nil", got)
	}
}

func TestPhase(t *testing.T) {
	in := []complex128{complex(1, 0), complex(0, 1), complex(-1, 0), complex(0, -1)}
	want := []float64{0, math.Pi / 2, math.Pi, -math.Pi / 2}

	testutil.RequireSliceNearlyEqual(t, Phase(in), want, 1e-12)
}

func TestWrapPhase(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "zero", in: 0, want: 0},
		{name: "pi stays", in: math.Pi, want: math.Pi},
		{name: "negative pi wraps", in: -math.Pi, want: math.Pi},
		{name: "two pi", in: 2 * math.Pi, want: 0},
		{name: "three pi", in: 3 * math.Pi, want: math.Pi},
		{name: "small negative", in: -0.25, want: -0.25},
		{name: "large positive", in: 7.5 * math.Pi, want: -0.5 * math.Pi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapPhase(tt.in)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("WrapPhase(%v) = %v, want %v", tt.in, got, tt.want)
			}

			if got <= -math.Pi || got > math.Pi {
				t.Fatalf("WrapPhase(%v) = %v outside (-pi, pi]", tt.in, got)
			}
		})
	}
}

func TestBinFrequency(t *testing.T) {
	if got := BinFrequency(0, 1024, 44100); got != 0 {
		t.Fatalf("BinFrequency(0) = %v, want 0", got)
	}

	if got := BinFrequency(512, 1024, 44100); math.Abs(got-22050) > 1e-9 {
		t.Fatalf("BinFrequency(nyquist) = %v, want 22050", got)
	}
}

func TestDominantFrequencySine(t *testing.T) {
	tests := []struct {
		name       string
		freq       float64
		sampleRate float64
	}{
		{name: "440 Hz at 44100", freq: 440, sampleRate: 44100},
		{name: "880 Hz at 44100", freq: 880, sampleRate: 44100},
		{name: "220 Hz at 48000", freq: 220, sampleRate: 48000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sine := testutil.DeterministicSine(tt.freq, tt.sampleRate, 0.8, 16384)

			got := DominantFrequency(sine, tt.sampleRate)
			if math.Abs(got-tt.freq) > 0.01*tt.freq {
				t.Fatalf("DominantFrequency() = %v Hz, want %v Hz within 1%%", got, tt.freq)
			}
		})
	}
}

func TestDominantFrequencyDegenerate(t *testing.T) {
	if got := DominantFrequency(nil, 44100); got != 0 {
		t.Fatalf("DominantFrequency(nil) = %v, want 0", got)
	}

	if got := DominantFrequency(make([]float64, 1024), 44100); got != 0 {
		t.Fatalf("DominantFrequency(silence) = %v, want 0", got)
	}

	if got := DominantFrequency([]float64{1, 2, 3}, 0); got != 0 {
		t.Fatalf("DominantFrequency(rate=0) = %v, want 0", got)
	}
}
