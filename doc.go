// Package trasposa changes the pitch and speed of audio signals
// independently of each other.
//
// Speed changes use a phase-vocoder time stretch, so tempo moves without
// transposing the material. Pitch shifts combine the same stretch with a
// rational resampling pass that restores the original duration. An optional
// peak-normalization stage brings the result to a target level.
//
// The Process function runs the whole pipeline on a Signal:
//
//	out, err := trasposa.Process(in, trasposa.Params{
//		Speed:        1.25,
//		Semitones:    -2,
//		Normalize:    true,
//		TargetPeakDB: -1,
//	})
//
// The dsp subpackages expose the individual stages (stretch, resample,
// normalize) for callers that need finer control.
package trasposa
