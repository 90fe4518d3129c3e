// Package recommend classifies detected noise into actionable frequency
// bands and derives low-pass and notch filter settings bounded to the
// capabilities of the target firmware.
//
// All numeric outputs are clamped to documented safe ranges before being
// surfaced; the package never emits an unbounded value and never fails on
// numeric edge cases such as an empty peak list.
package recommend

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotorlab/blackbox/dsp/biquad"
	"github.com/rotorlab/blackbox/firmware"
)

// Target selects which filter chain a low-pass recommendation applies to.
type Target int

const (
	TargetGyro Target = iota
	TargetDTerm
)

// String returns the target name.
func (t Target) String() string {
	switch t {
	case TargetGyro:
		return "gyro"
	case TargetDTerm:
		return "dterm"
	default:
		return "unknown"
	}
}

// FilterKind identifies the recommended filter topology.
type FilterKind int

const (
	KindLowpassStatic FilterKind = iota
	KindLowpassDynamic
	KindNotchStatic
	KindNotchDynamic
)

// String returns the kind name.
func (k FilterKind) String() string {
	switch k {
	case KindLowpassStatic:
		return "lowpass-static"
	case KindLowpassDynamic:
		return "lowpass-dynamic"
	case KindNotchStatic:
		return "notch-static"
	case KindNotchDynamic:
		return "notch-dynamic"
	default:
		return "unknown"
	}
}

// Range is an inclusive frequency range in Hz.
type Range struct {
	Min float64
	Max float64
}

// FilterRecommendation is one advisory filter configuration plus the console
// command sequence that applies it.
type FilterRecommendation struct {
	Enabled bool
	Kind    FilterKind
	Target  Target

	Title       string
	Description string

	// CutoffHz is the low-pass cutoff or the notch center frequency.
	CutoffHz float64

	// Band is the rejected frequency range of a notch recommendation.
	Band *Range

	// DynamicRange is the runtime cutoff range of a dynamic low-pass.
	DynamicRange *Range

	QFactor    float64
	NotchCount int

	// Coefficients is a realizable preview of the recommended filter,
	// present when the recommender knows the log sample rate.
	Coefficients *biquad.Coefficients

	// Commands is the newline-delimited `set <param> = <value>` sequence.
	Commands string
}

// Config holds recommender parameters.
type Config struct {
	Profile firmware.Profile

	// SampleRate enables biquad coefficient previews when > 0.
	SampleRate float64
}

// Recommender derives filter settings for one firmware capability profile.
type Recommender struct {
	cfg Config
}

// New creates a Recommender.
func New(cfg Config) *Recommender {
	return &Recommender{cfg: cfg}
}

// Profile returns the active capability profile.
func (r *Recommender) Profile() firmware.Profile {
	return r.cfg.Profile
}

// setCmd renders one configuration-protocol line.
func setCmd(param string, value float64) string {
	return fmt.Sprintf("set %s = %d", param, int(math.Round(value)))
}

func setCmdStr(param, value string) string {
	return fmt.Sprintf("set %s = %s", param, value)
}

func joinCmds(lines ...string) string {
	return strings.Join(lines, "\n")
}

// preview designs a biquad for the recommendation when the sample rate is
// known and the frequency is realizable at it.
func (r *Recommender) preview(design func(sampleRate, freq, q float64) (biquad.Coefficients, error), freq, q float64) *biquad.Coefficients {
	if r.cfg.SampleRate <= 0 {
		return nil
	}

	c, err := design(r.cfg.SampleRate, freq, q)
	if err != nil {
		return nil
	}

	return &c
}
