package biquad

import (
	"fmt"
	"math"
)

// Lowpass designs a second-order lowpass section (RBJ bilinear form) with the
// given cutoff and quality factor. The cutoff must lie strictly between 0 and
// Nyquist.
func Lowpass(sampleRate, cutoffHz, q float64) (Coefficients, error) {
	if err := validate(sampleRate, cutoffHz, q); err != nil {
		return Coefficients{}, err
	}

	w0 := 2 * math.Pi * cutoffHz / sampleRate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	a0 := 1 + alpha
	b1 := (1 - cosW0) / a0

	return Coefficients{
		B0: b1 / 2,
		B1: b1,
		B2: b1 / 2,
		A1: -2 * cosW0 / a0,
		A2: (1 - alpha) / a0,
	}, nil
}

// Notch designs a second-order band-rejection section centered on centerHz.
// Larger q narrows the rejected band.
func Notch(sampleRate, centerHz, q float64) (Coefficients, error) {
	if err := validate(sampleRate, centerHz, q); err != nil {
		return Coefficients{}, err
	}

	w0 := 2 * math.Pi * centerHz / sampleRate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	a0 := 1 + alpha

	return Coefficients{
		B0: 1 / a0,
		B1: -2 * cosW0 / a0,
		B2: 1 / a0,
		A1: -2 * cosW0 / a0,
		A2: (1 - alpha) / a0,
	}, nil
}

func validate(sampleRate, freqHz, q float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("biquad: sample rate must be > 0: %f", sampleRate)
	}

	if freqHz <= 0 || freqHz >= sampleRate/2 {
		return fmt.Errorf("biquad: frequency must be in (0, nyquist): %f at %f Hz", freqHz, sampleRate)
	}

	if q <= 0 {
		return fmt.Errorf("biquad: q must be > 0: %f", q)
	}

	return nil
}
