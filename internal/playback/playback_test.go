package playback

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/klunk386/trasposa"
)

func TestPlayRejectsEmptySignal(t *testing.T) {
	tests := []struct {
		name string
		sig  trasposa.Signal
	}{
		{name: "no samples", sig: trasposa.Signal{SampleRate: 44100}},
		{name: "no sample rate", sig: trasposa.Signal{Samples: []float64{0.1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Play(context.Background(), tt.sig); !errors.Is(err, ErrNoAudio) {
				t.Fatalf("Play() error = %v, want ErrNoAudio", err)
			}
		})
	}
}

func TestToPCM16(t *testing.T) {
	got := toPCM16([]float64{0, 1, -1, 2, -2, 0.5})
	if len(got) != 12 {
		t.Fatalf("toPCM16() length = %d, want 12", len(got))
	}

	want := []int16{0, 32767, -32767, 32767, -32767, 16384}
	for i, w := range want {
		s := int16(binary.LittleEndian.Uint16(got[2*i:]))
		if s != w {
			t.Errorf("sample %d = %d, want %d", i, s, w)
		}
	}
}
