// Package testutil provides deterministic signal generators and tolerance
// helpers shared by the package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a sine wave with zero initial phase.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// DeterministicNoise generates uniform white noise in [-amplitude, amplitude]
// with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// NoisySine generates a sine wave buried in uniform noise, the typical shape
// of a gyro channel with a mechanical resonance.
func NoisySine(freqHz, sampleRate, amplitude, noiseAmplitude float64, seed int64, length int) []float64 {
	out := DeterministicSine(freqHz, sampleRate, amplitude, length)

	noise := DeterministicNoise(seed, noiseAmplitude, length)
	for i := range out {
		out[i] += noise[i]
	}

	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}
