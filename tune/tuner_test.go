package tune

import (
	"strings"
	"testing"

	"github.com/rotorlab/blackbox/telemetry"
)

func oscillationInput(freqHz, amplitude float64) Input {
	input, output := oscillationSeries(freqHz, 1000, amplitude, 2000)

	series := AxisSeries{Input: input, Output: output}

	return Input{Roll: series, Pitch: series, Yaw: series, SampleRate: 1000}
}

func TestTunerTuneCleanOscillation(t *testing.T) {
	res := NewTuner().Tune(oscillationInput(2, 2.0))

	for _, axis := range telemetry.Axes {
		rec := res.Axis(axis)
		if rec.Fallback {
			t.Errorf("%s: Fallback = true, want estimated gains", axis)
		}

		if rec.Axis != axis {
			t.Errorf("Axis = %v, want %v", rec.Axis, axis)
		}
	}

	// Ku = 100/2.1 = 47.6, Tu = 0.25. PIDQuad roll/pitch:
	// P = 21, I = 171 -> 120, D = 1 -> 10. PI yaw: P = 21, I = 103, D = 0.
	wantRollPitch := Gains{P: 21, I: 120, D: 10}
	wantYaw := Gains{P: 21, I: 103, D: 0}

	if res.Roll.Gains != wantRollPitch {
		t.Errorf("Roll.Gains = %+v, want %+v", res.Roll.Gains, wantRollPitch)
	}

	if res.Pitch.Gains != wantRollPitch {
		t.Errorf("Pitch.Gains = %+v, want %+v", res.Pitch.Gains, wantRollPitch)
	}

	if res.Yaw.Gains != wantYaw {
		t.Errorf("Yaw.Gains = %+v, want %+v", res.Yaw.Gains, wantYaw)
	}

	if !strings.HasPrefix(res.Note, "high confidence") {
		t.Errorf("Note = %q, want high confidence summary", res.Note)
	}
}

func TestTunerTuneEmptyInputFallsBack(t *testing.T) {
	res := NewTuner().Tune(Input{SampleRate: 1000})

	for _, axis := range telemetry.Axes {
		rec := res.Axis(axis)
		if !rec.Fallback {
			t.Errorf("%s: Fallback = false, want fallback gains", axis)
		}
	}

	if res.Roll.Gains != fallbackRollPitch || res.Pitch.Gains != fallbackRollPitch {
		t.Errorf("roll/pitch gains = %+v/%+v, want %+v", res.Roll.Gains, res.Pitch.Gains, fallbackRollPitch)
	}

	if res.Yaw.Gains != fallbackYaw {
		t.Errorf("Yaw.Gains = %+v, want %+v", res.Yaw.Gains, fallbackYaw)
	}

	if !strings.HasPrefix(res.Note, "low confidence") {
		t.Errorf("Note = %q, want low confidence summary", res.Note)
	}
}

func TestTunerTuneMediumConfidence(t *testing.T) {
	// Amplitude between the low and high cutoffs grades medium.
	res := NewTuner().Tune(oscillationInput(2, 0.8))

	if !strings.HasPrefix(res.Note, "medium confidence") {
		t.Errorf("Note = %q, want medium confidence summary", res.Note)
	}
}

func TestTunerCommands(t *testing.T) {
	res := NewTuner().Tune(Input{SampleRate: 1000})

	want := strings.Join([]string{
		"set p_roll = 40",
		"set i_roll = 80",
		"set d_roll = 25",
		"set p_pitch = 40",
		"set i_pitch = 80",
		"set d_pitch = 25",
		"set p_yaw = 50",
		"set i_yaw = 80",
		"set d_yaw = 0",
	}, "\n")

	if res.Commands != want {
		t.Errorf("Commands = %q, want %q", res.Commands, want)
	}
}

func TestTunerWithControllers(t *testing.T) {
	res := NewTuner(WithControllers(ControllerP, ControllerP)).Tune(oscillationInput(2, 2.0))

	// P-only synthesis leaves I and D at their bound minimums.
	if res.Roll.Gains.I != RollPitchBounds.IMin || res.Roll.Gains.D != RollPitchBounds.DMin {
		t.Errorf("Roll.Gains = %+v, want I/D at bound minimums", res.Roll.Gains)
	}

	if res.Yaw.Gains.I != YawBounds.IMin || res.Yaw.Gains.D != 0 {
		t.Errorf("Yaw.Gains = %+v, want I at bound minimum and D = 0", res.Yaw.Gains)
	}
}

func TestTunerFallbackNote(t *testing.T) {
	res := NewTuner().Tune(Input{SampleRate: 1000})

	if !strings.Contains(res.Roll.Note, "safe defaults") {
		t.Errorf("Roll.Note = %q, want safe-defaults wording", res.Roll.Note)
	}
}
