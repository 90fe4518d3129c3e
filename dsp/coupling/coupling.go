// Package coupling correlates per-axis spectral results to find noise that is
// shared between axes and to estimate how it propagates through the frame.
package coupling

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/rotorlab/blackbox/dsp/core"
	"github.com/rotorlab/blackbox/dsp/spectrum"
	"github.com/rotorlab/blackbox/telemetry"
)

// MatchToleranceHz is the frequency window within which peaks on different
// axes count as the same underlying source.
const MatchToleranceHz = 5.0

// Coupling strength weights: correlation, shared peaks, phase relation.
const (
	weightCorrelation = 0.4
	weightSharedPeaks = 0.3
	weightPhase       = 0.3
)

// AxisSpectrum bundles one axis' raw signal with its spectral analysis.
type AxisSpectrum struct {
	Axis     telemetry.Axis
	Signal   []float64
	Dominant []spectrum.SpectralPoint
}

// CommonFrequency is a dominant frequency observed on two or more axes.
type CommonFrequency struct {
	Frequency float64 // averaged across participating axes
	Magnitude float64 // averaged across participating axes
	Axes      []telemetry.Axis

	// points holds the matched per-axis peaks, parallel to Axes.
	points []spectrum.SpectralPoint
}

// Path describes one axis receiving energy from the propagation source.
type Path struct {
	Axis           telemetry.Axis
	PhaseDiff      float64 // radians in (-pi, pi], relative to the source
	DelayMs        float64
	MagnitudeRatio float64 // relative to the source magnitude
}

// Propagation identifies the source axis of a common frequency and the
// phase/delay relation of every other participating axis.
type Propagation struct {
	Frequency float64
	Source    telemetry.Axis
	Paths     []Path
}

// CommonFrequencies clusters dominant frequencies across axes within
// [MatchToleranceHz] and returns those present on at least two axes, ordered
// by descending magnitude.
func CommonFrequencies(axes []AxisSpectrum) []CommonFrequency {
	var clusters []CommonFrequency

	for _, ax := range axes {
		for _, p := range ax.Dominant {
			idx := -1

			for i := range clusters {
				if hasAxis(clusters[i].Axes, ax.Axis) {
					continue
				}

				if math.Abs(clusters[i].Frequency-p.Frequency) <= MatchToleranceHz {
					idx = i
					break
				}
			}

			if idx < 0 {
				clusters = append(clusters, CommonFrequency{
					Frequency: p.Frequency,
					Magnitude: p.Magnitude,
					Axes:      []telemetry.Axis{ax.Axis},
					points:    []spectrum.SpectralPoint{p},
				})

				continue
			}

			c := &clusters[idx]
			n := float64(len(c.Axes))
			c.Frequency = (c.Frequency*n + p.Frequency) / (n + 1)
			c.Magnitude = (c.Magnitude*n + p.Magnitude) / (n + 1)
			c.Axes = append(c.Axes, ax.Axis)
			c.points = append(c.points, p)
		}
	}

	out := clusters[:0]
	for _, c := range clusters {
		if len(c.Axes) >= 2 {
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Magnitude > out[j].Magnitude
	})

	return out
}

// Propagations derives, for every common frequency, the axis of maximum
// magnitude as the source and the phase lag, time delay, and magnitude ratio
// of each other participating axis.
func Propagations(common []CommonFrequency) []Propagation {
	out := make([]Propagation, 0, len(common))

	for _, c := range common {
		if len(c.Axes) < 2 || c.Frequency <= 0 {
			continue
		}

		src := 0
		for i, p := range c.points {
			if p.Magnitude > c.points[src].Magnitude {
				src = i
			}
		}

		prop := Propagation{
			Frequency: c.Frequency,
			Source:    c.Axes[src],
		}

		srcPoint := c.points[src]
		for i, p := range c.points {
			if i == src {
				continue
			}

			phaseDiff := core.NormalizePhase(p.Phase - srcPoint.Phase)

			ratio := 0.0
			if srcPoint.Magnitude > 0 {
				ratio = p.Magnitude / srcPoint.Magnitude
			}

			prop.Paths = append(prop.Paths, Path{
				Axis:           c.Axes[i],
				PhaseDiff:      phaseDiff,
				DelayMs:        phaseDiff / (2 * math.Pi) * (1000 / c.Frequency),
				MagnitudeRatio: ratio,
			})
		}

		out = append(out, prop)
	}

	return out
}

// Strength combines cross-correlation, shared dominant frequencies, and the
// averaged phase relation of two axes into a coupling score in [0, 1].
func Strength(a, b AxisSpectrum) float64 {
	corr := math.Abs(correlation(a.Signal, b.Signal))
	shared, meanPhase, matched := sharedPeaks(a.Dominant, b.Dominant)

	// Without shared peaks there is no phase relation to speak of.
	phaseTerm := 0.0
	if matched {
		cosPhase := math.Cos(meanPhase)
		phaseTerm = cosPhase * cosPhase
	}

	score := weightCorrelation*corr + weightSharedPeaks*shared + weightPhase*phaseTerm

	return core.Clamp(score, 0, 1)
}

// correlation returns the Pearson correlation over the overlapping length,
// or 0 when it is undefined (short or constant signals).
func correlation(x, y []float64) float64 {
	n := min(len(x), len(y))
	if n < 2 {
		return 0
	}

	r := stat.Correlation(x[:n], y[:n], nil)
	if !core.IsFinite(r) {
		return 0
	}

	return r
}

// sharedPeaks returns the shared dominant-frequency count normalized by the
// larger peak list, plus the mean absolute phase difference of the matches.
func sharedPeaks(a, b []spectrum.SpectralPoint) (ratio, meanPhase float64, matched bool) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, false
	}

	count := 0
	phaseSum := 0.0

	for _, pa := range a {
		for _, pb := range b {
			if math.Abs(pa.Frequency-pb.Frequency) <= MatchToleranceHz {
				count++
				phaseSum += core.NormalizePhase(pb.Phase - pa.Phase)

				break
			}
		}
	}

	if count == 0 {
		return 0, 0, false
	}

	return float64(count) / float64(max(len(a), len(b))), phaseSum / float64(count), true
}

func hasAxis(axes []telemetry.Axis, a telemetry.Axis) bool {
	for _, x := range axes {
		if x == a {
			return true
		}
	}

	return false
}
