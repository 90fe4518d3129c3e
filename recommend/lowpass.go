package recommend

import (
	"fmt"

	"github.com/rotorlab/blackbox/dsp/biquad"
	"github.com/rotorlab/blackbox/dsp/core"
	"github.com/rotorlab/blackbox/dsp/spectrum"
)

// Noise-level tiers for the no-peak fallback and topology escalation.
const (
	aggressiveNoiseLevel = 50.0
	moderateNoiseLevel   = 25.0

	// biquadEscalationLevel switches from a single-pole topology to a
	// steeper one.
	biquadEscalationLevel = 40.0

	// dynamicLowpassLevel enables a dynamic cutoff range when supported.
	dynamicLowpassLevel = 30.0

	// highNoiseLevel widens the dynamic range and raises the notch count.
	highNoiseLevel = 60.0

	dynamicMinRatio     = 0.7
	dynamicMaxRatio     = 1.3
	dynamicMaxRatioHigh = 1.5

	lowpassQ = 0.707
)

// lowpassParams is the per-target low-pass policy.
type lowpassParams struct {
	peakFloorHz  float64
	cutoffRatio  float64
	cutoffMinHz  float64
	cutoffMaxHz  float64
	dynamicMaxHz float64

	aggressiveHz float64
	moderateHz   float64
	mildHz       float64

	typeParam   string
	cutoffParam string
	dynMinParam string
	dynMaxParam string
}

var lowpassPolicies = map[Target]lowpassParams{
	TargetGyro: {
		peakFloorHz:  50,
		cutoffRatio:  0.7,
		cutoffMinHz:  50,
		cutoffMaxHz:  250,
		dynamicMaxHz: 500,
		aggressiveHz: 90,
		moderateHz:   110,
		mildHz:       130,
		typeParam:    "gyro_lowpass_type",
		cutoffParam:  "gyro_lowpass_hz",
		dynMinParam:  "gyro_lowpass_dyn_min_hz",
		dynMaxParam:  "gyro_lowpass_dyn_max_hz",
	},
	TargetDTerm: {
		peakFloorHz:  40,
		cutoffRatio:  0.6,
		cutoffMinHz:  40,
		cutoffMaxHz:  180,
		dynamicMaxHz: 300,
		aggressiveHz: 70,
		moderateHz:   90,
		mildHz:       110,
		typeParam:    "dterm_lowpass_type",
		cutoffParam:  "dterm_lowpass_hz",
		dynMinParam:  "dterm_lowpass_dyn_min_hz",
		dynMaxParam:  "dterm_lowpass_dyn_max_hz",
	},
}

// Lowpass derives the low-pass filter recommendation for one target from the
// dominant-frequency list and the overall noise level.
func (r *Recommender) Lowpass(target Target, dominant []spectrum.SpectralPoint, noiseLevel float64) FilterRecommendation {
	p, ok := lowpassPolicies[target]
	if !ok {
		p = lowpassPolicies[TargetGyro]
	}

	cutoff, fromPeak := p.cutoff(dominant, noiseLevel)

	steep := noiseLevel > biquadEscalationLevel
	if target == TargetDTerm && !r.cfg.Profile.SupportsBiquadDTerm {
		steep = false
	}

	topology := "PT1"
	if steep {
		topology = "BIQUAD"
	}

	rec := FilterRecommendation{
		Enabled:      true,
		Kind:         KindLowpassStatic,
		Target:       target,
		CutoffHz:     cutoff,
		QFactor:      lowpassQ,
		Coefficients: r.preview(biquad.Lowpass, cutoff, lowpassQ),
	}

	basis := "overall noise level"
	if fromPeak {
		basis = "lowest significant noise peak"
	}

	if r.cfg.Profile.SupportsDynamicLowpass && noiseLevel > dynamicLowpassLevel {
		maxRatio := dynamicMaxRatio
		if noiseLevel > highNoiseLevel {
			maxRatio = dynamicMaxRatioHigh
		}

		dyn := &Range{
			Min: core.Clamp(cutoff*dynamicMinRatio, p.cutoffMinHz, p.dynamicMaxHz),
			Max: core.Clamp(cutoff*maxRatio, p.cutoffMinHz, p.dynamicMaxHz),
		}

		rec.Kind = KindLowpassDynamic
		rec.DynamicRange = dyn
		rec.Title = fmt.Sprintf("Dynamic %s low-pass", target)
		rec.Description = fmt.Sprintf("Dynamic %s low-pass %.0f-%.0f Hz (%s topology), centered on the %s.",
			target, dyn.Min, dyn.Max, topology, basis)
		rec.Commands = joinCmds(
			setCmdStr(p.typeParam, topology),
			setCmd(p.dynMinParam, dyn.Min),
			setCmd(p.dynMaxParam, dyn.Max),
		)

		return rec
	}

	rec.Title = fmt.Sprintf("Static %s low-pass", target)
	rec.Description = fmt.Sprintf("Static %s low-pass at %.0f Hz (%s topology), derived from the %s.",
		target, cutoff, topology, basis)
	rec.Commands = joinCmds(
		setCmdStr(p.typeParam, topology),
		setCmd(p.cutoffParam, cutoff),
	)

	return rec
}

// cutoff picks the cutoff from the lowest peak above the target floor, or
// falls back to noise-level tiers when no such peak exists. The reported
// bool is true when a peak drove the choice.
func (p lowpassParams) cutoff(dominant []spectrum.SpectralPoint, noiseLevel float64) (float64, bool) {
	lowest := 0.0
	for _, d := range dominant {
		if d.Frequency <= p.peakFloorHz {
			continue
		}

		if lowest == 0 || d.Frequency < lowest {
			lowest = d.Frequency
		}
	}

	if lowest > 0 {
		return core.Clamp(lowest*p.cutoffRatio, p.cutoffMinHz, p.cutoffMaxHz), true
	}

	switch {
	case noiseLevel > aggressiveNoiseLevel:
		return p.aggressiveHz, false
	case noiseLevel > moderateNoiseLevel:
		return p.moderateHz, false
	default:
		return p.mildHz, false
	}
}
