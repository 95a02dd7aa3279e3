// Package stretch implements phase-vocoder time stretching.
//
// A Stretcher changes the duration of a signal without changing its pitch.
// Analysis frames are taken every AnalysisHop samples, converted to
// magnitude and per-bin instantaneous frequency, and resynthesized every
// SynthesisHop samples with accumulated phases. Identity phase locking keeps
// bins around each spectral peak phase-coherent, which reduces the typical
// vocoder "phasiness" on tonal material.
//
// The realized ratio is quantized to SynthesisHop/AnalysisHop and exposed as
// EffectiveRatio, so callers that need sample-exact durations can account
// for the rounding.
package stretch
