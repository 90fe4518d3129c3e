package recommend

import (
	"fmt"
	"math"

	"github.com/rotorlab/blackbox/dsp/biquad"
	"github.com/rotorlab/blackbox/dsp/core"
	"github.com/rotorlab/blackbox/dsp/spectrum"
)

const (
	// notchEnableLevel is the minimum noise level for any notch
	// recommendation.
	notchEnableLevel = 20.0

	notchMinHz = 80.0
	notchMaxHz = 500.0

	// Improved-mode band around the strongest peak.
	notchLowRatio  = 0.5
	notchHighRatio = 2.0

	// minBandWidthHz keeps improved-mode min strictly below max after
	// clamping.
	minBandWidthHz = 20.0

	legacyWidthRatio = 0.15

	defaultNotchQ = 300.0

	notchCountNormal    = 3
	notchCountHighNoise = 5
)

// Notch derives the notch filter recommendation. It is disabled exactly when
// the noise level is below the enable threshold or no dominant frequencies
// were detected.
func (r *Recommender) Notch(dominant []spectrum.SpectralPoint, noiseLevel float64) FilterRecommendation {
	if noiseLevel < notchEnableLevel || len(dominant) == 0 {
		return FilterRecommendation{
			Enabled:     false,
			Kind:        KindNotchDynamic,
			Target:      TargetGyro,
			Title:       "Notch filter",
			Description: "No notch filter needed: noise level is low or no distinct peaks were detected.",
		}
	}

	strongest := dominant[0]

	if r.cfg.Profile.SupportsImprovedNotch {
		return r.improvedNotch(strongest, noiseLevel)
	}

	return r.legacyNotch(strongest)
}

// improvedNotch tracks peaks at runtime inside a band derived from the
// strongest observed peak.
func (r *Recommender) improvedNotch(strongest spectrum.SpectralPoint, noiseLevel float64) FilterRecommendation {
	min := core.Clamp(strongest.Frequency*notchLowRatio, notchMinHz, notchMaxHz-minBandWidthHz)
	max := core.Clamp(strongest.Frequency*notchHighRatio, min+minBandWidthHz, notchMaxHz)

	count := notchCountNormal
	if noiseLevel > highNoiseLevel {
		count = notchCountHighNoise
	}

	q := math.Min(defaultNotchQ, r.cfg.Profile.MaxNotchQ)

	center := strongest.Frequency
	biquadQ := center / (max - min)

	return FilterRecommendation{
		Enabled:      true,
		Kind:         KindNotchDynamic,
		Target:       TargetGyro,
		Title:        "Dynamic notch filter",
		Description:  fmt.Sprintf("Dynamic notch tracking %d peaks in %.0f-%.0f Hz around the %.0f Hz noise source.", count, min, max, center),
		CutoffHz:     center,
		Band:         &Range{Min: min, Max: max},
		QFactor:      q,
		NotchCount:   count,
		Coefficients: r.preview(biquad.Notch, center, biquadQ),
		Commands: joinCmds(
			setCmd("dyn_notch_count", float64(count)),
			setCmd("dyn_notch_q", q),
			setCmd("dyn_notch_min_hz", min),
			setCmd("dyn_notch_max_hz", max),
		),
	}
}

// legacyNotch is the fixed single-notch strategy for firmware without
// improved peak tracking.
func (r *Recommender) legacyNotch(strongest spectrum.SpectralPoint) FilterRecommendation {
	center := core.Clamp(strongest.Frequency, notchMinHz, notchMaxHz)
	width := math.Max(minBandWidthHz, legacyWidthRatio*center)

	return FilterRecommendation{
		Enabled:      true,
		Kind:         KindNotchStatic,
		Target:       TargetGyro,
		Title:        "Static notch filter",
		Description:  fmt.Sprintf("Static notch at %.0f Hz, %.0f Hz wide, on the strongest noise peak.", center, 2*width),
		CutoffHz:     center,
		Band:         &Range{Min: center - width, Max: center + width},
		QFactor:      center / (2 * width),
		NotchCount:   1,
		Coefficients: r.preview(biquad.Notch, center, center/(2*width)),
		Commands: joinCmds(
			setCmd("gyro_notch1_hz", center),
			setCmd("gyro_notch1_cutoff", center-width),
		),
	}
}
