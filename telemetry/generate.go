package telemetry

import (
	"fmt"
	"math"
	"math/rand"
)

// Generator synthesizes deterministic telemetry logs, primarily for tests and
// pipeline validation against known signal content.
type Generator struct {
	sampleRate float64
	seed       int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a generator producing logs at the given sample rate.
func NewGenerator(sampleRate float64, opts ...Option) (*Generator, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("telemetry: sample rate must be > 0: %f", sampleRate)
	}

	g := &Generator{
		sampleRate: sampleRate,
		seed:       1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g, nil
}

// Tone describes one sinusoidal component injected into a gyro channel.
type Tone struct {
	FreqHz    float64
	Amplitude float64 // deg/s
}

// GyroLog synthesizes a log whose gyro channels carry the given tones on all
// three axes plus uniform noise in [-noiseAmplitude, noiseAmplitude].
func (g *Generator) GyroLog(samples int, noiseAmplitude float64, tones ...Tone) (*Log, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("telemetry: sample count must be > 0: %d", samples)
	}

	if noiseAmplitude < 0 {
		return nil, fmt.Errorf("telemetry: noise amplitude must be >= 0: %f", noiseAmplitude)
	}

	rng := rand.New(rand.NewSource(g.seed))
	dtMs := 1000 / g.sampleRate

	rows := make([]Sample, samples)
	for i := range rows {
		t := float64(i) / g.sampleRate

		value := 0.0
		for _, tone := range tones {
			value += tone.Amplitude * math.Sin(2*math.Pi*tone.FreqHz*t)
		}

		rows[i].TimeMs = float64(i) * dtMs
		for ax := range rows[i].Gyro {
			rows[i].Gyro[ax] = value + (rng.Float64()*2-1)*noiseAmplitude
		}
		rows[i].RCRoll = 1500
		rows[i].RCPitch = 1500
		rows[i].RCYaw = 1500
		rows[i].RCThrottle = 1500
		rows[i].Voltage = 16.2
	}

	return NewLog(rows), nil
}
