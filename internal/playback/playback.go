// Package playback plays mono signals on the default audio device.
package playback

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	oto "github.com/ebitengine/oto/v3"

	"github.com/klunk386/trasposa"
	"github.com/klunk386/trasposa/dsp/core"
)

// ErrNoAudio indicates an empty signal or missing sample rate.
var ErrNoAudio = errors.New("playback: nothing to play")

const pollInterval = 50 * time.Millisecond

// Play renders sig to the default output device and blocks until playback
// finishes or ctx is cancelled. Cancellation stops playback and returns
// ctx.Err().
func Play(ctx context.Context, sig trasposa.Signal) error {
	if len(sig.Samples) == 0 || sig.SampleRate <= 0 {
		return ErrNoAudio
	}

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sig.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("playback: opening audio device: %w", err)
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	player := otoCtx.NewPlayer(bytes.NewReader(toPCM16(sig.Samples)))
	defer player.Close()

	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()

			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}

// toPCM16 converts float64 samples to signed 16-bit little-endian bytes,
// clipping to [-1, 1].
func toPCM16(samples []float64) []byte {
	out := make([]byte, 2*len(samples))
	for i, v := range samples {
		s := int16(math.Round(core.Clamp(v, -1, 1) * 32767))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}

	return out
}
