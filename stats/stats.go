// Package stats computes single-pass time-domain statistics of telemetry
// channels, feeding the scalar noise metrics used by the recommenders.
package stats

import "math"

// Stats holds time-domain channel statistics.
type Stats struct {
	Length        int
	Mean          float64
	RMS           float64
	Max           float64
	MaxPos        int
	Min           float64
	MinPos        int
	Peak          float64 // max(|max|, |min|)
	Range         float64 // max - min
	Variance      float64
	StdDev        float64
	MeanAbs       float64
	ZeroCrossings int
}

// Calculate computes all statistics in a single pass using Welford's online
// algorithm for the variance.
func Calculate(signal []float64) Stats {
	n := len(signal)
	if n == 0 {
		return Stats{}
	}

	var (
		mean   float64
		m2     float64
		sumSq  float64
		sumAbs float64

		maxVal = signal[0]
		maxPos int
		minVal = signal[0]
		minPos int

		zeroCrossings int
	)

	for i, x := range signal {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)

		sumSq += x * x
		sumAbs += math.Abs(x)

		if x > maxVal {
			maxVal = x
			maxPos = i
		}

		if x < minVal {
			minVal = x
			minPos = i
		}

		if i > 0 && signal[i-1]*x < 0 {
			zeroCrossings++
		}
	}

	nf := float64(n)
	variance := m2 / nf

	return Stats{
		Length:        n,
		Mean:          mean,
		RMS:           math.Sqrt(sumSq / nf),
		Max:           maxVal,
		MaxPos:        maxPos,
		Min:           minVal,
		MinPos:        minPos,
		Peak:          math.Max(math.Abs(maxVal), math.Abs(minVal)),
		Range:         maxVal - minVal,
		Variance:      variance,
		StdDev:        math.Sqrt(variance),
		MeanAbs:       sumAbs / nf,
		ZeroCrossings: zeroCrossings,
	}
}

// NoiseLevel maps the dispersion of a channel onto the 0..100 scale consumed
// by the filter recommenders. The mean is removed first so a constant offset
// does not register as noise.
func NoiseLevel(signal []float64) float64 {
	s := Calculate(signal)

	level := 2 * s.StdDev
	if level > 100 {
		level = 100
	}

	return level
}
