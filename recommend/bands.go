package recommend

import (
	"math"
	"sort"

	"github.com/rotorlab/blackbox/dsp/spectrum"
)

// Band edges in Hz. Low-band noise points at the frame, mid-band at the
// propellers, high-band at motors and electrical coupling.
const (
	bandLowMinHz = 20.0
	bandLowMaxHz = 80.0
	bandMidMaxHz = 180.0
	bandTopHz    = 500.0
)

// severityCap is the upper bound of the severity scale.
const severityCap = 10.0

// NoiseBand is a classified frequency band with a derived severity.
type NoiseBand struct {
	Name  string
	MinHz float64
	MaxHz float64

	// Severity is 0..10, derived from the band peak's relative magnitude
	// and the overall noise level.
	Severity float64

	// Peak is the strongest dominant frequency inside the band.
	Peak spectrum.SpectralPoint

	// Source is the suspected physical noise source.
	Source string
}

type bandDef struct {
	name   string
	minHz  float64
	maxHz  float64
	source string
}

var bandDefs = []bandDef{
	{"low-frequency", bandLowMinHz, bandLowMaxHz, "frame resonance or loose hardware"},
	{"mid-frequency", bandLowMaxHz, bandMidMaxHz, "propeller imbalance or damage"},
	{"high-frequency", bandMidMaxHz, bandTopHz, "motor bearings or electrical coupling"},
}

// ClassifyBands assigns dominant frequencies to fixed bands and scores each
// populated band's severity. The result is ordered by descending severity so
// merged reports are deterministic.
func ClassifyBands(dominant []spectrum.SpectralPoint, noiseLevel float64) []NoiseBand {
	if len(dominant) == 0 {
		return nil
	}

	strongest := dominant[0].Magnitude
	for _, d := range dominant[1:] {
		if d.Magnitude > strongest {
			strongest = d.Magnitude
		}
	}

	if strongest <= 0 {
		return nil
	}

	var out []NoiseBand

	for _, def := range bandDefs {
		peak, ok := bandPeak(dominant, def.minHz, def.maxHz)
		if !ok {
			continue
		}

		severity := (peak.Magnitude/strongest)*6 + noiseLevel/25
		if severity > severityCap {
			severity = severityCap
		}

		out = append(out, NoiseBand{
			Name:     def.name,
			MinHz:    def.minHz,
			MaxHz:    def.maxHz,
			Severity: severity,
			Peak:     peak,
			Source:   def.source,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity > out[j].Severity
	})

	return out
}

// bandPeak returns the strongest dominant frequency in [minHz, maxHz).
func bandPeak(dominant []spectrum.SpectralPoint, minHz, maxHz float64) (spectrum.SpectralPoint, bool) {
	best := spectrum.SpectralPoint{Magnitude: math.Inf(-1)}
	found := false

	for _, d := range dominant {
		if d.Frequency < minHz || d.Frequency >= maxHz {
			continue
		}

		if d.Magnitude > best.Magnitude {
			best = d
			found = true
		}
	}

	return best, found
}
