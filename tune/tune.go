// Package tune estimates closed-loop critical parameters from per-axis
// command/response channels and derives bounded PID gains via tabulated
// Ziegler-Nichols coefficients.
//
// The package trades silent degradation for availability: noisy or sparse
// input lowers the reported confidence and may substitute fixed fallback
// gains, but a caller always receives a complete, well-formed result.
package tune

import (
	"fmt"
	"math"

	"github.com/rotorlab/blackbox/dsp/core"
)

// Confidence grades an estimate.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

// String returns the confidence label.
func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Estimation thresholds and bounds.
const (
	// peakThresholdRatio scales the error-series value range into the
	// dynamic peak-detection threshold.
	peakThresholdRatio = 0.05

	// Defaults returned when fewer than two peaks are found.
	defaultKu = 60.0
	defaultTu = 0.25

	kuMin = 30.0
	kuMax = 120.0
	tuMin = 0.05
	tuMax = 0.5

	highConfidencePeaks     = 5
	highConfidenceAmplitude = 1.0
	lowConfidencePeaks      = 3
	lowConfidenceAmplitude  = 0.5

	// minSeriesLen is the shortest error series worth estimating on.
	minSeriesLen = 8
)

// CriticalParams holds the estimated marginal-stability parameters of one
// axis, plus the structured diagnostics of the estimation itself.
type CriticalParams struct {
	Ku         float64 // ultimate gain, > 0
	Tu         float64 // ultimate period, seconds, > 0
	Confidence Confidence

	// Diagnostics of the peak-detection pass.
	PeakCount    int
	AvgAmplitude float64
	Threshold    float64
}

// EstimateCriticalParams derives (Ku, Tu) from the oscillation of the error
// series input[i] - output[i] over the overlapping channel length.
//
// Structurally unusable input (missing or too-short channels, invalid sample
// rate, non-finite values) returns an error. A valid series with fewer than
// two detected peaks returns the fixed low-confidence default (Ku=60,
// Tu=0.25). The result is always clamped to Ku in [30,120] and Tu in
// [0.05,0.5] seconds.
func EstimateCriticalParams(input, output []float64, sampleRate float64) (CriticalParams, error) {
	n := min(len(input), len(output))
	if n < minSeriesLen {
		return CriticalParams{}, fmt.Errorf("tune: error series too short: %d samples", n)
	}

	if sampleRate <= 0 {
		return CriticalParams{}, fmt.Errorf("tune: sample rate must be > 0: %f", sampleRate)
	}

	absErr := make([]float64, n)

	minErr := math.Inf(1)
	maxErr := math.Inf(-1)

	for i := 0; i < n; i++ {
		e := input[i] - output[i]
		if !core.IsFinite(e) {
			return CriticalParams{}, fmt.Errorf("tune: non-finite error sample at %d", i)
		}

		absErr[i] = math.Abs(e)

		if e < minErr {
			minErr = e
		}

		if e > maxErr {
			maxErr = e
		}
	}

	threshold := (maxErr - minErr) * peakThresholdRatio
	fallback := CriticalParams{Ku: defaultKu, Tu: defaultTu, Confidence: ConfidenceLow, Threshold: threshold}

	var (
		peakIdx []int
		ampSum  float64
	)

	for i := 1; i < n-1; i++ {
		a := absErr[i]
		if a <= threshold {
			continue
		}

		if a > absErr[i-1] && a > absErr[i+1] {
			peakIdx = append(peakIdx, i)
			ampSum += a
		}
	}

	if len(peakIdx) < 2 {
		fallback.PeakCount = len(peakIdx)
		return fallback, nil
	}

	periodSum := 0.0
	for i := 1; i < len(peakIdx); i++ {
		periodSum += float64(peakIdx[i]-peakIdx[i-1]) / sampleRate
	}

	avgAmplitude := ampSum / float64(len(peakIdx))
	tu := periodSum / float64(len(peakIdx)-1)
	ku := 100 / (avgAmplitude + 0.1)

	if !core.IsFinite(ku) || !core.IsFinite(tu) {
		return fallback, nil
	}

	params := CriticalParams{
		Ku:           core.Clamp(ku, kuMin, kuMax),
		Tu:           core.Clamp(tu, tuMin, tuMax),
		PeakCount:    len(peakIdx),
		AvgAmplitude: avgAmplitude,
		Threshold:    threshold,
	}

	switch {
	case params.PeakCount > highConfidencePeaks && avgAmplitude > highConfidenceAmplitude:
		params.Confidence = ConfidenceHigh
	case params.PeakCount < lowConfidencePeaks || avgAmplitude < lowConfidenceAmplitude:
		params.Confidence = ConfidenceLow
	default:
		params.Confidence = ConfidenceMedium
	}

	return params, nil
}
