package recommend

import (
	"fmt"

	"github.com/rotorlab/blackbox/dsp/biquad"
)

const (
	// severeBandLevel triggers source-specific advisories for a band.
	severeBandLevel = 7.0

	// secondaryDTermLevel adds a second D-term low-pass stage.
	secondaryDTermLevel = 70.0
	secondaryDTermRatio = 0.7
)

// Supplementary derives advisory filters from severe noise bands, plus the
// secondary D-term stage under extreme noise. dynamicNotchEnabled reflects
// the primary notch recommendation: a propeller notch is redundant when the
// dynamic notch already tracks that band, and an RPM filter replaces the
// dynamic notch outright. dtermCutoffHz is the primary D-term cutoff the
// secondary stage derives from.
func (r *Recommender) Supplementary(bands []NoiseBand, noiseLevel float64, dynamicNotchEnabled bool, dtermCutoffHz float64) []FilterRecommendation {
	var out []FilterRecommendation

	for _, band := range bands {
		if band.Severity <= severeBandLevel {
			continue
		}

		switch {
		case band.MaxHz <= bandLowMaxHz:
			out = append(out, r.lowBandNotch(band))
		case band.MaxHz <= bandMidMaxHz:
			if !dynamicNotchEnabled {
				out = append(out, r.propellerNotch(band))
			}
		default:
			out = append(out, r.rpmFilter(band))
		}
	}

	if noiseLevel > secondaryDTermLevel && dtermCutoffHz > 0 {
		cutoff := dtermCutoffHz * secondaryDTermRatio

		out = append(out, FilterRecommendation{
			Enabled:      true,
			Kind:         KindLowpassStatic,
			Target:       TargetDTerm,
			Title:        "Secondary D-term low-pass",
			Description:  fmt.Sprintf("Extreme noise level: add a second D-term low-pass stage at %.0f Hz.", cutoff),
			CutoffHz:     cutoff,
			QFactor:      lowpassQ,
			Coefficients: r.preview(biquad.Lowpass, cutoff, lowpassQ),
			Commands:     setCmd("dterm_lowpass2_hz", cutoff),
		})
	}

	return out
}

func (r *Recommender) lowBandNotch(band NoiseBand) FilterRecommendation {
	center := band.Peak.Frequency
	q := center / minBandWidthHz

	return FilterRecommendation{
		Enabled:  true,
		Kind:     KindNotchStatic,
		Target:   TargetGyro,
		Title:    "Low-frequency static notch",
		Description: fmt.Sprintf("Severe %.0f Hz resonance (%s): add a static notch and inspect the frame for loose hardware.",
			center, band.Source),
		CutoffHz:     center,
		QFactor:      q,
		NotchCount:   1,
		Band:         &Range{Min: center - minBandWidthHz/2, Max: center + minBandWidthHz/2},
		Coefficients: r.preview(biquad.Notch, center, q),
		Commands: joinCmds(
			setCmd("gyro_notch2_hz", center),
			setCmd("gyro_notch2_cutoff", center-minBandWidthHz/2),
		),
	}
}

func (r *Recommender) propellerNotch(band NoiseBand) FilterRecommendation {
	center := band.Peak.Frequency
	q := center / minBandWidthHz

	return FilterRecommendation{
		Enabled:  true,
		Kind:     KindNotchStatic,
		Target:   TargetGyro,
		Title:    "Propeller static notch",
		Description: fmt.Sprintf("Severe %.0f Hz peak (%s): add a static notch and check propellers for damage or wear.",
			center, band.Source),
		CutoffHz:     center,
		QFactor:      q,
		NotchCount:   1,
		Band:         &Range{Min: center - minBandWidthHz/2, Max: center + minBandWidthHz/2},
		Coefficients: r.preview(biquad.Notch, center, q),
		Commands: joinCmds(
			setCmd("gyro_notch2_hz", center),
			setCmd("gyro_notch2_cutoff", center-minBandWidthHz/2),
		),
	}
}

// rpmFilter replaces the dynamic notch: the two strategies cancel the same
// noise and must not run together.
func (r *Recommender) rpmFilter(band NoiseBand) FilterRecommendation {
	return FilterRecommendation{
		Enabled: true,
		Kind:    KindNotchDynamic,
		Target:  TargetGyro,
		Title:   "RPM filter",
		Description: fmt.Sprintf("Severe %.0f Hz peak (%s): enable the RPM-based filter and disable the dynamic notch.",
			band.Peak.Frequency, band.Source),
		CutoffHz: band.Peak.Frequency,
		Commands: joinCmds(
			setCmdStr("dshot_bidir", "ON"),
			setCmd("rpm_filter_harmonics", 3),
			setCmd("dyn_notch_count", 0),
		),
	}
}
