// Package spectrum provides frequency-domain helpers: magnitude and phase
// extraction, phase wrapping, and dominant-frequency estimation.
package spectrum
