// Command trasposa changes the pitch and speed of an audio file
// independently of each other.
//
// Usage:
//
//	trasposa [flags] input-file
//
// The input may be WAV or MP3. With -o the result is written as a 16-bit
// mono WAV file; without it the result is played on the default audio
// device (press q to stop).
//
// Examples:
//
//	trasposa -s 3 song.mp3
//	trasposa -s -2 -v 1.25 -o out.wav song.wav
//	trasposa -v 0.5 -no-normalize take.wav
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"github.com/klunk386/trasposa"
	"github.com/klunk386/trasposa/dsp/normalize"
	"github.com/klunk386/trasposa/dsp/resample"
	"github.com/klunk386/trasposa/dsp/spectrum"
	"github.com/klunk386/trasposa/internal/audiofile"
	"github.com/klunk386/trasposa/internal/playback"
)

func main() {
	os.Exit(run())
}

func run() int {
	output := flag.String("o", "", "output WAV file (default: play instead of saving)")
	semitones := flag.Float64("s", 0, "pitch shift in semitones, positive up (fractional allowed)")
	speed := flag.Float64("v", 1.0, "playback speed factor (2.0 = twice as fast)")
	noNormalize := flag.Bool("no-normalize", false, "skip peak normalization")
	peakDB := flag.Float64("peak", normalize.DefaultTargetDB, "normalization target in dBFS")
	frameSize := flag.Int("frame-size", 0, "STFT frame size (power of two, 0 = default)")
	hop := flag.Int("hop", 0, "STFT analysis hop in samples (0 = default)")
	quality := flag.String("quality", "balanced", "resampling quality: fast, balanced, best")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: trasposa [flags] input-file\n\n")
		fmt.Fprintf(os.Stderr, "Changes the pitch and speed of an audio file independently.\n")
		fmt.Fprintf(os.Stderr, "Reads WAV or MP3; writes 16-bit mono WAV, or plays when -o is omitted.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  trasposa -s 3 song.mp3\n")
		fmt.Fprintf(os.Stderr, "  trasposa -s -2 -v 1.25 -o out.wav song.wav\n")
		fmt.Fprintf(os.Stderr, "  trasposa -v 0.5 -no-normalize take.wav\n")
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if flag.NArg() != 1 {
		flag.Usage()
		return 2
	}

	input := flag.Arg(0)

	q, err := parseQuality(*quality)
	if err != nil {
		logger.Error("invalid flag", "error", err)
		return 2
	}

	sig, err := audiofile.Load(input)
	if err != nil {
		logger.Error("failed to load input", "path", input, "error", err)
		return 1
	}

	logger.Debug("loaded input",
		"path", input,
		"sampleRate", sig.SampleRate,
		"samples", len(sig.Samples),
		"duration", sig.Duration(),
		"dominantHz", dominantHz(sig),
	)

	params := trasposa.Params{
		Speed:        *speed,
		Semitones:    *semitones,
		Normalize:    !*noNormalize,
		TargetPeakDB: *peakDB,
		FrameSize:    *frameSize,
		Hop:          *hop,
		Quality:      q,
	}

	out, err := trasposa.Process(sig, params)
	if err != nil {
		logger.Error("processing failed", "error", err)
		return 1
	}

	logger.Debug("processed",
		"speed", *speed,
		"semitones", *semitones,
		"duration", out.Duration(),
		"peakDB", normalize.PeakDB(out.Samples),
		"dominantHz", dominantHz(out),
	)

	if *output != "" {
		if err := audiofile.Save(out, *output); err != nil {
			logger.Error("failed to save output", "path", *output, "error", err)
			return 1
		}

		logger.Info("saved", "path", *output, "duration", out.Duration())
		return 0
	}

	if err := play(out, logger); err != nil {
		logger.Error("playback failed", "error", err)
		return 1
	}

	return 0
}

// dominantHz estimates the strongest frequency on up to one second taken
// from the middle of the signal. Diagnostic only.
func dominantHz(sig trasposa.Signal) float64 {
	samples := sig.Samples
	if len(samples) > sig.SampleRate {
		start := (len(samples) - sig.SampleRate) / 2
		samples = samples[start : start+sig.SampleRate]
	}

	return spectrum.DominantFrequency(samples, float64(sig.SampleRate))
}

// play blocks until the signal finishes, q is pressed, or an interrupt
// signal arrives.
func play(sig trasposa.Signal, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("entering raw mode: %w", err)
		}
		defer func() { _ = term.Restore(fd, oldState) }()

		fmt.Fprintf(os.Stderr, "playing %.2fs, press q to stop\r\n", sig.Duration().Seconds())

		go watchKeys(cancel)
	} else {
		logger.Info("playing", "duration", sig.Duration())
	}

	err := playback.Play(ctx, sig)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// watchKeys cancels playback on q or Ctrl-C. Runs with stdin in raw mode,
// so Ctrl-C arrives as a byte instead of SIGINT.
func watchKeys(cancel context.CancelFunc) {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}

		if n == 1 && (buf[0] == 'q' || buf[0] == 'Q' || buf[0] == 0x03) {
			cancel()
			return
		}
	}
}

func parseQuality(name string) (resample.Quality, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fast":
		return resample.QualityFast, nil
	case "balanced":
		return resample.QualityBalanced, nil
	case "best":
		return resample.QualityBest, nil
	default:
		return 0, fmt.Errorf("unknown quality %q (use fast, balanced, or best)", name)
	}
}
