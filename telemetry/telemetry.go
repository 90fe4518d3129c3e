// Package telemetry defines the normalized flight-log sample model consumed
// by the analysis packages.
//
// The package intentionally does not parse raw blackbox files. It operates on
// rows already decoded and normalized by an ingestion collaborator and
// provides channel extraction across samples.
package telemetry

// Axis identifies a rotation/control axis.
type Axis int

const (
	AxisRoll Axis = iota
	AxisPitch
	AxisYaw
)

// Axes lists all axes in canonical order.
var Axes = [3]Axis{AxisRoll, AxisPitch, AxisYaw}

// String returns the lowercase axis name.
func (a Axis) String() string {
	switch a {
	case AxisRoll:
		return "roll"
	case AxisPitch:
		return "pitch"
	case AxisYaw:
		return "yaw"
	default:
		return "unknown"
	}
}

// Sample is one normalized telemetry row. Fields not present in the source
// log default to zero; TimeMs and Gyro are always populated.
type Sample struct {
	TimeMs float64 // monotonic, milliseconds

	Gyro [3]float64 // deg/s, indexed by Axis

	PIDP [3]float64
	PIDI [3]float64
	PIDD [3]float64

	Motor [4]float64 // command units, typically 1000..2000

	RCRoll     float64
	RCPitch    float64
	RCYaw      float64
	RCThrottle float64

	Voltage float64
	Current float64
}

// RC returns the RC command for a control axis.
func (s Sample) RC(axis Axis) float64 {
	switch axis {
	case AxisRoll:
		return s.RCRoll
	case AxisPitch:
		return s.RCPitch
	case AxisYaw:
		return s.RCYaw
	default:
		return 0
	}
}

// rcMid is the neutral stick value in command units.
const rcMid = 1500

// Log is an immutable sequence of samples from a single flight.
type Log struct {
	samples []Sample
}

// NewLog wraps decoded samples. The slice is retained, not copied; callers
// must not mutate it afterwards.
func NewLog(samples []Sample) *Log {
	return &Log{samples: samples}
}

// Len returns the sample count.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}

	return len(l.samples)
}

// Sample returns the i-th sample.
func (l *Log) Sample(i int) Sample {
	return l.samples[i]
}

// Duration returns the recorded span in seconds, 0 for fewer than 2 samples.
func (l *Log) Duration() float64 {
	if l.Len() < 2 {
		return 0
	}

	return (l.samples[len(l.samples)-1].TimeMs - l.samples[0].TimeMs) / 1000
}

// SampleRate derives the mean sampling rate in Hz from the time channel.
// Returns 0 for logs shorter than 2 samples or a non-increasing time channel.
func (l *Log) SampleRate() float64 {
	d := l.Duration()
	if d <= 0 {
		return 0
	}

	return float64(l.Len()-1) / d
}

// Gyro extracts one gyro axis across all samples in deg/s.
func (l *Log) Gyro(axis Axis) []float64 {
	out := make([]float64, l.Len())
	for i, s := range l.samples {
		out[i] = s.Gyro[axis]
	}

	return out
}

// Setpoint extracts the centered RC command for a control axis. The neutral
// stick position maps to 0 so the channel is directly comparable against the
// gyro response in closed-loop estimation.
func (l *Log) Setpoint(axis Axis) []float64 {
	out := make([]float64, l.Len())
	for i, s := range l.samples {
		out[i] = s.RC(axis) - rcMid
	}

	return out
}

// PIDSum extracts the summed P+I+D terms for one axis.
func (l *Log) PIDSum(axis Axis) []float64 {
	out := make([]float64, l.Len())
	for i, s := range l.samples {
		out[i] = s.PIDP[axis] + s.PIDI[axis] + s.PIDD[axis]
	}

	return out
}

// Motor extracts one motor command channel. Index must be in [0,3].
func (l *Log) Motor(index int) []float64 {
	out := make([]float64, l.Len())
	for i, s := range l.samples {
		out[i] = s.Motor[index]
	}

	return out
}

// Throttle extracts the throttle channel.
func (l *Log) Throttle() []float64 {
	out := make([]float64, l.Len())
	for i, s := range l.samples {
		out[i] = s.RCThrottle
	}

	return out
}

// Voltage extracts the battery voltage channel.
func (l *Log) Voltage() []float64 {
	out := make([]float64, l.Len())
	for i, s := range l.samples {
		out[i] = s.Voltage
	}

	return out
}
