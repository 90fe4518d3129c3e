package tune

import (
	"errors"
	"fmt"
	"math"

	"github.com/rotorlab/blackbox/dsp/core"
)

// ControllerType selects a row of the Ziegler-Nichols coefficient table.
type ControllerType string

const (
	ControllerP       ControllerType = "P"
	ControllerPI      ControllerType = "PI"
	ControllerPD      ControllerType = "PD"
	ControllerPID     ControllerType = "PID"
	ControllerPIDQuad ControllerType = "PIDQuad"
)

// ErrInvalidControllerType reports an unknown coefficient table key. This is
// a programming error, not a data condition.
var ErrInvalidControllerType = errors.New("tune: invalid controller type")

// znCoeff maps critical parameters onto PID gains:
//
//	P = kp*Ku, I = ki*Ku/Tu, D = kd*Ku*Tu
type znCoeff struct {
	kp, ki, kd float64
}

// znTable holds the classical Ziegler-Nichols rows plus a detuned PIDQuad
// row for multirotor rate loops, which tolerate less integral windup and
// derivative noise than the textbook process loop.
var znTable = map[ControllerType]znCoeff{
	ControllerP:       {kp: 0.5},
	ControllerPI:      {kp: 0.45, ki: 0.54},
	ControllerPD:      {kp: 0.8, kd: 0.1},
	ControllerPID:     {kp: 0.6, ki: 1.2, kd: 0.075},
	ControllerPIDQuad: {kp: 0.45, ki: 0.9, kd: 0.06},
}

// Gains holds integer PID gains in firmware units.
type Gains struct {
	P int
	I int
	D int
}

// GainBounds is the inclusive per-axis safe range for synthesized gains.
type GainBounds struct {
	PMin, PMax int
	IMin, IMax int
	DMin, DMax int
}

// Per-axis quad-safe gain bounds.
var (
	RollPitchBounds = GainBounds{PMin: 20, PMax: 80, IMin: 30, IMax: 120, DMin: 10, DMax: 50}
	YawBounds       = GainBounds{PMin: 20, PMax: 100, IMin: 40, IMax: 120, DMin: 0, DMax: 20}
)

// Clamp limits g to the bounds.
func (b GainBounds) Clamp(g Gains) Gains {
	return Gains{
		P: core.ClampInt(g.P, b.PMin, b.PMax),
		I: core.ClampInt(g.I, b.IMin, b.IMax),
		D: core.ClampInt(g.D, b.DMin, b.DMax),
	}
}

// SynthesizeGains converts critical parameters into PID gains for the given
// controller type, clamped to the supplied bounds.
func SynthesizeGains(ct ControllerType, params CriticalParams, bounds GainBounds) (Gains, error) {
	c, ok := znTable[ct]
	if !ok {
		return Gains{}, fmt.Errorf("%w: %q", ErrInvalidControllerType, ct)
	}

	if params.Ku <= 0 || params.Tu <= 0 {
		return Gains{}, fmt.Errorf("tune: critical parameters must be positive: Ku=%f Tu=%f", params.Ku, params.Tu)
	}

	g := Gains{
		P: int(math.Round(c.kp * params.Ku)),
		I: int(math.Round(c.ki * params.Ku / params.Tu)),
		D: int(math.Round(c.kd * params.Ku * params.Tu)),
	}

	return bounds.Clamp(g), nil
}

// ProfileScale is an optional post-processing hook for drone-profile gain
// scaling (weight, battery, prop size). It is applied by the caller after
// synthesis, never inside it, and the result is re-clamped.
type ProfileScale struct {
	P, I, D float64
}

// Apply scales g and re-clamps it to the bounds.
func (s ProfileScale) Apply(g Gains, bounds GainBounds) Gains {
	return bounds.Clamp(Gains{
		P: int(math.Round(float64(g.P) * s.P)),
		I: int(math.Round(float64(g.I) * s.I)),
		D: int(math.Round(float64(g.D) * s.D)),
	})
}
