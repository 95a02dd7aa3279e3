package trasposa_test

import (
	"fmt"
	"math"

	"github.com/klunk386/trasposa"
)

func Example() {
	// One second of a 440 Hz tone.
	const sampleRate = 44100

	samples := make([]float64, sampleRate)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/sampleRate)
	}

	in := trasposa.Signal{Samples: samples, SampleRate: sampleRate}

	params := trasposa.DefaultParams()
	params.Semitones = 12
	params.Speed = 2.0

	out, err := trasposa.Process(in, params)
	if err != nil {
		fmt.Println("process failed:", err)

		return
	}

	fmt.Printf("input:  %.2fs\n", in.Duration().Seconds())
	fmt.Printf("output: %.2fs\n", out.Duration().Seconds())
	// Output:
	// input:  1.00s
	// output: 0.50s
}
