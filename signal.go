package trasposa

import "time"

// Signal is a mono audio buffer with its sample rate. Samples are float64
// in the nominal range [-1, 1], though intermediate processing may exceed
// it until normalization.
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the playback duration of the signal.
func (s Signal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}

	seconds := float64(len(s.Samples)) / float64(s.SampleRate)

	return time.Duration(seconds * float64(time.Second))
}

// Clone returns a deep copy of the signal.
func (s Signal) Clone() Signal {
	out := Signal{SampleRate: s.SampleRate}
	if s.Samples != nil {
		out.Samples = make([]float64, len(s.Samples))
		copy(out.Samples, s.Samples)
	}

	return out
}
