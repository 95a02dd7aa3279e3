// Package frame performs short-time framing of a signal into overlapping
// windowed frames for spectral analysis.
package frame
