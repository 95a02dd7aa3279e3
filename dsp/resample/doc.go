// Package resample provides rational sample-rate conversion using polyphase
// Kaiser-windowed sinc FIR filtering with anti-aliasing defaults.
//
// Quality modes:
//   - QualityFast: lower CPU, lower attenuation
//   - QualityBalanced: default mode
//   - QualityBest: higher attenuation and flatter passband
//
// Common workflows:
//   - Resample(input, up, down, opts...) for exact rational ratios
//   - ByFactor(input, factor, opts...) for arbitrary rate-change factors
package resample
