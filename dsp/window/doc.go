// Package window generates window functions for short-time analysis.
//
// The set is intentionally small: Hann (and friends) for STFT framing, and
// Kaiser for FIR prototype design in the resampler. Periodic form
// (WithPeriodic) is the right choice for FFT framing; the symmetric default
// suits filter design.
package window
