package tune_test

import (
	"fmt"
	"math"

	"github.com/rotorlab/blackbox/tune"
)

func ExampleEstimateCriticalParams() {
	sampleRate := 1000.0

	// Zero command against a sustained 2 Hz, 2 deg/s oscillation.
	input := make([]float64, 2000)
	output := make([]float64, 2000)
	for i := range output {
		t := float64(i) / sampleRate
		output[i] = 2 * math.Sin(2*math.Pi*2*t)
	}

	params, err := tune.EstimateCriticalParams(input, output, sampleRate)
	if err != nil {
		fmt.Println(err)
		return
	}

	gains, err := tune.SynthesizeGains(tune.ControllerPIDQuad, params, tune.RollPitchBounds)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("Ku=%.1f Tu=%.2f confidence=%s\n", params.Ku, params.Tu, params.Confidence)
	fmt.Printf("P=%d I=%d D=%d\n", gains.P, gains.I, gains.D)
	// Output:
	// Ku=47.6 Tu=0.25 confidence=high
	// P=21 I=120 D=10
}
