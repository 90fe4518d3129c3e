package spectrum_test

import (
	"fmt"
	"math"

	"github.com/rotorlab/blackbox/dsp/spectrum"
)

func ExampleAnalyze() {
	sampleRate := 1024.0
	fftSize := 1024
	freq := 200.0

	signal := make([]float64, fftSize)
	for i := range signal {
		t := float64(i) / sampleRate
		signal[i] = math.Sin(2 * math.Pi * freq * t)
	}

	res, err := spectrum.Analyze(signal, spectrum.Config{
		SampleRate: sampleRate,
		FFTSize:    fftSize,
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	fund, _ := res.Fundamental()

	fmt.Printf("dominant: %.0f Hz\n", fund.Frequency)
	fmt.Printf("stability: %.0f\n", res.StabilityScore)
	fmt.Printf("oscillation: %v\n", res.OscillationDetected)
	// Output:
	// dominant: 200 Hz
	// stability: 100
	// oscillation: false
}
