package tune

import (
	"fmt"

	"github.com/rotorlab/blackbox/telemetry"
)

// Fallback gains substituted when estimation fails outright.
var (
	fallbackRollPitch = Gains{P: 40, I: 80, D: 25}
	fallbackYaw       = Gains{P: 50, I: 80, D: 0}
)

// AxisSeries is the command/response pair of one control axis.
type AxisSeries struct {
	Input  []float64 // setpoint, axis command
	Output []float64 // gyro response
}

// Input bundles the per-axis channels of one log.
type Input struct {
	Roll  AxisSeries
	Pitch AxisSeries
	Yaw   AxisSeries

	SampleRate float64
}

// AxisRecommendation is the tuning result for one axis.
type AxisRecommendation struct {
	Axis   telemetry.Axis
	Gains  Gains
	Bounds GainBounds
	Params CriticalParams

	// Fallback reports that fixed gains were substituted because the
	// estimate was unusable.
	Fallback bool

	Note string
}

// Result is the complete PID recommendation set. It is always well-formed:
// internal estimation failures substitute fallback gains and lower the
// confidence note, they are never surfaced as errors.
type Result struct {
	Roll  AxisRecommendation
	Pitch AxisRecommendation
	Yaw   AxisRecommendation

	// Note summarizes overall confidence across roll and pitch.
	Note string

	// Commands is the newline-delimited `set <param> = <value>` block.
	Commands string
}

// Axis returns the recommendation for one axis.
func (r Result) Axis(a telemetry.Axis) AxisRecommendation {
	switch a {
	case telemetry.AxisPitch:
		return r.Pitch
	case telemetry.AxisYaw:
		return r.Yaw
	default:
		return r.Roll
	}
}

// Tuner derives PID recommendations from closed-loop telemetry. Roll and
// pitch use the detuned quad PID row; yaw uses PI with near-zero D by
// policy, since yaw derivative action amplifies motor noise without
// improving response.
type Tuner struct {
	rollPitchController ControllerType
	yawController       ControllerType
}

// Option configures a Tuner.
type Option func(*Tuner)

// WithControllers overrides the per-axis controller types.
func WithControllers(rollPitch, yaw ControllerType) Option {
	return func(t *Tuner) {
		t.rollPitchController = rollPitch
		t.yawController = yaw
	}
}

// NewTuner creates a Tuner with the default controller policy.
func NewTuner(opts ...Option) *Tuner {
	t := &Tuner{
		rollPitchController: ControllerPIDQuad,
		yawController:       ControllerPI,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	return t
}

// Tune estimates critical parameters and synthesizes gains for all three
// axes. It never returns an error for data conditions; see [Result].
func (t *Tuner) Tune(in Input) Result {
	res := Result{
		Roll:  t.tuneAxis(telemetry.AxisRoll, in.Roll, in.SampleRate),
		Pitch: t.tuneAxis(telemetry.AxisPitch, in.Pitch, in.SampleRate),
		Yaw:   t.tuneAxis(telemetry.AxisYaw, in.Yaw, in.SampleRate),
	}

	res.Note = overallNote(res.Roll, res.Pitch)
	res.Commands = commands(res)

	return res
}

func (t *Tuner) tuneAxis(axis telemetry.Axis, series AxisSeries, sampleRate float64) AxisRecommendation {
	controller := t.rollPitchController
	bounds := RollPitchBounds
	fallbackGains := fallbackRollPitch

	if axis == telemetry.AxisYaw {
		controller = t.yawController
		bounds = YawBounds
		fallbackGains = fallbackYaw
	}

	params, err := EstimateCriticalParams(series.Input, series.Output, sampleRate)
	if err == nil {
		var gains Gains
		if gains, err = SynthesizeGains(controller, params, bounds); err == nil {
			return AxisRecommendation{
				Axis:   axis,
				Gains:  gains,
				Bounds: bounds,
				Params: params,
				Note:   fmt.Sprintf("%s confidence estimate from %d oscillation peaks", params.Confidence, params.PeakCount),
			}
		}
	}

	return AxisRecommendation{
		Axis:     axis,
		Gains:    fallbackGains,
		Bounds:   bounds,
		Params:   params,
		Fallback: true,
		Note:     fmt.Sprintf("estimation failed for %s, using safe defaults", axis),
	}
}

// overallNote grades the recommendation set by its weakest critical axis.
func overallNote(roll, pitch AxisRecommendation) string {
	rollC := roll.Params.Confidence
	pitchC := pitch.Params.Confidence

	switch {
	case roll.Fallback || pitch.Fallback || rollC == ConfidenceLow || pitchC == ConfidenceLow:
		return "low confidence: treat these gains as a cautious starting point"
	case rollC == ConfidenceHigh && pitchC == ConfidenceHigh:
		return "high confidence: oscillation structure was clearly identified"
	default:
		return "medium confidence: verify with a short test hover"
	}
}

func commands(r Result) string {
	lines := ""

	for _, rec := range []AxisRecommendation{r.Roll, r.Pitch, r.Yaw} {
		if lines != "" {
			lines += "\n"
		}

		lines += fmt.Sprintf("set p_%s = %d\nset i_%s = %d\nset d_%s = %d",
			rec.Axis, rec.Gains.P, rec.Axis, rec.Gains.I, rec.Axis, rec.Gains.D)
	}

	return lines
}
