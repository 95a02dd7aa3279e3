// Package audiofile loads and saves audio files as mono float64 signals.
//
// WAV files of any bit depth are read through go-audio; MP3 files through
// go-mp3, which always decodes to 16-bit stereo. Multi-channel input is
// downmixed to mono by averaging. Output is always 16-bit mono WAV.
package audiofile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/klunk386/trasposa"
	"github.com/klunk386/trasposa/dsp/core"
)

// ErrUnsupportedFormat indicates a file extension outside .wav/.mp3.
var ErrUnsupportedFormat = errors.New("audiofile: unsupported format")

// Load reads path and returns its content as a mono signal. The format is
// chosen by file extension: .mp3 uses the MP3 decoder, .wav (and anything
// else, matching the WAV container being the default) uses the WAV decoder.
func Load(path string) (trasposa.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return trasposa.Signal{}, fmt.Errorf("audiofile: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		return loadMP3(f, path)
	}

	return loadWAV(f, path)
}

func loadWAV(f *os.File, path string) (trasposa.Signal, error) {
	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return trasposa.Signal{}, fmt.Errorf("audiofile: invalid WAV file: %s", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return trasposa.Signal{}, fmt.Errorf("audiofile: decoding %s: %w", path, err)
	}

	bitDepth := int(decoder.SampleBitDepth())
	if bitDepth == 0 {
		return trasposa.Signal{}, fmt.Errorf("audiofile: unknown bit depth: %s", path)
	}

	nchannels := buf.Format.NumChannels
	if nchannels <= 0 {
		return trasposa.Signal{}, fmt.Errorf("audiofile: no channels: %s", path)
	}

	scale := math.Pow(2, float64(bitDepth-1))
	nframes := len(buf.Data) / nchannels

	samples := make([]float64, nframes)
	for i := range nframes {
		sum := 0.0
		for ch := range nchannels {
			sum += float64(buf.Data[i*nchannels+ch])
		}

		samples[i] = sum / float64(nchannels) / scale
	}

	return trasposa.Signal{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

// loadMP3 reads the full MP3 stream. go-mp3 emits signed 16-bit
// little-endian stereo regardless of the source channel layout.
func loadMP3(f *os.File, path string) (trasposa.Signal, error) {
	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return trasposa.Signal{}, fmt.Errorf("audiofile: decoding %s: %w", path, err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return trasposa.Signal{}, fmt.Errorf("audiofile: reading %s: %w", path, err)
	}

	const bytesPerFrame = 4 // two 16-bit channels

	nframes := len(pcm) / bytesPerFrame

	samples := make([]float64, nframes)
	for i := range nframes {
		left := int16(binary.LittleEndian.Uint16(pcm[i*bytesPerFrame:]))
		right := int16(binary.LittleEndian.Uint16(pcm[i*bytesPerFrame+2:]))
		samples[i] = (float64(left) + float64(right)) / 2 / 32768
	}

	return trasposa.Signal{Samples: samples, SampleRate: decoder.SampleRate()}, nil
}

// Save writes sig to path as a 16-bit mono WAV file. Samples outside [-1, 1]
// are clipped.
func Save(sig trasposa.Signal, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		return fmt.Errorf("%w: %s (output must be .wav)", ErrUnsupportedFormat, path)
	}

	if sig.SampleRate <= 0 {
		return fmt.Errorf("audiofile: invalid sample rate: %d", sig.SampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audiofile: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sig.SampleRate, 16, 1, 1)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sig.SampleRate,
		},
		Data:           make([]int, len(sig.Samples)),
		SourceBitDepth: 16,
	}

	for i, v := range sig.Samples {
		buf.Data[i] = int(math.Round(core.Clamp(v, -1, 1) * 32767))
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audiofile: encoding %s: %w", path, err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("audiofile: closing %s: %w", path, err)
	}

	return nil
}
