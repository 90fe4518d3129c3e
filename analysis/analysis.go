// Package analysis assembles the full-log report: concurrent per-axis
// spectral runs, cross-axis coupling, noise-band classification, filter and
// PID recommendations, a flat metrics map, and the concatenated command
// script that applies the whole recommendation set.
//
// The package is the composition surface over dsp/spectrum, dsp/coupling,
// stats, recommend and tune; it adds no numeric policy of its own.
package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rotorlab/blackbox/dsp/coupling"
	"github.com/rotorlab/blackbox/dsp/spectrum"
	"github.com/rotorlab/blackbox/firmware"
	"github.com/rotorlab/blackbox/recommend"
	"github.com/rotorlab/blackbox/stats"
	"github.com/rotorlab/blackbox/telemetry"
	"github.com/rotorlab/blackbox/tune"
)

// ErrEmptyLog reports a log with no usable samples.
var ErrEmptyLog = errors.New("analysis: empty log")

// mergedDominantCap limits the cross-axis dominant list handed to the
// recommenders, matching the per-axis list length.
const mergedDominantCap = 10

// Config holds analyzer parameters. The zero value selects the default FFT
// size, the embedded firmware table and a derived noise level.
type Config struct {
	// FFTSize is the per-axis transform size; spectrum.DefaultFFTSize
	// when zero.
	FFTSize int

	// FirmwareVersion selects the capability profile bucket.
	FirmwareVersion string

	// Table overrides the embedded capability table.
	Table *firmware.Table

	// NoiseLevel overrides the derived 0-100 noise level when > 0, for
	// callers with an upstream noise estimate.
	NoiseLevel float64

	// Pad zero-pads gyro channels shorter than FFTSize/2 instead of
	// aborting that axis with spectrum.ErrInsufficientSamples.
	Pad bool
}

// AxisAnalysis is the per-axis slice of the report. Err is set when the axis
// channel could not be transformed; the remaining axes are unaffected.
type AxisAnalysis struct {
	Axis telemetry.Axis

	Spectral spectrum.Result
	Stats    stats.Stats

	// NoiseLevel is the derived 0-100 noise level of this axis.
	NoiseLevel float64

	Err error
}

// AxisCoupling is the coupling strength of one axis pair.
type AxisCoupling struct {
	A, B     telemetry.Axis
	Strength float64 // [0, 1]
}

// Report is the complete, read-only output of one analysis pass.
type Report struct {
	SampleRate float64
	Profile    firmware.Profile

	// Axes holds the per-axis spectral and statistical results, indexed
	// by telemetry.Axis.
	Axes [3]AxisAnalysis

	// NoiseLevel is the overall 0-100 noise level driving the filter
	// recommendations: the worst axis, or the configured override.
	NoiseLevel float64

	Common       []coupling.CommonFrequency
	Propagations []coupling.Propagation
	Coupling     []AxisCoupling

	Bands   []recommend.NoiseBand
	Filters []recommend.FilterRecommendation
	Tuning  tune.Result

	// Metrics maps human-readable labels to formatted values for the
	// reporting collaborator.
	Metrics map[string]string

	// Commands is the full script: PID block, blank line, filter block,
	// blank line, save.
	Commands string
}

// Analyzer runs full-log passes with a fixed configuration.
type Analyzer struct {
	cfg Config
}

// New creates an Analyzer.
func New(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze runs one pass over the log. It fails only on structurally unusable
// input (empty log, underivable sample rate); per-axis transform failures
// are recorded on the affected axis and the pass continues.
func (a *Analyzer) Analyze(log *telemetry.Log) (Report, error) {
	if log == nil || log.Len() == 0 {
		return Report{}, ErrEmptyLog
	}

	sampleRate := log.SampleRate()
	if sampleRate <= 0 {
		return Report{}, fmt.Errorf("analysis: sample rate not derivable from %d samples", log.Len())
	}

	table := a.cfg.Table
	if table == nil {
		table = firmware.DefaultTable()
	}

	rep := Report{
		SampleRate: sampleRate,
		Profile:    table.Select(a.cfg.FirmwareVersion),
	}

	a.analyzeAxes(&rep, log, sampleRate)

	rep.NoiseLevel = a.cfg.NoiseLevel
	if rep.NoiseLevel <= 0 {
		for _, ax := range rep.Axes {
			if ax.NoiseLevel > rep.NoiseLevel {
				rep.NoiseLevel = ax.NoiseLevel
			}
		}
	}

	a.analyzeCoupling(&rep, log)

	merged := mergeDominant(rep.Axes)

	rep.Bands = recommend.ClassifyBands(merged, rep.NoiseLevel)
	rep.Filters = a.recommendFilters(rep.Profile, merged, rep.Bands, rep.NoiseLevel, sampleRate)
	rep.Tuning = tune.NewTuner().Tune(tuneInput(log, sampleRate))
	rep.Metrics = metrics(rep, log, merged)
	rep.Commands = script(rep.Tuning, rep.Filters)

	return rep, nil
}

// analyzeAxes runs the three spectral analyses concurrently. Each goroutine
// writes only its own slot.
func (a *Analyzer) analyzeAxes(rep *Report, log *telemetry.Log, sampleRate float64) {
	var wg sync.WaitGroup

	for _, axis := range telemetry.Axes {
		wg.Add(1)

		go func(axis telemetry.Axis) {
			defer wg.Done()

			signal := log.Gyro(axis)

			res, err := spectrum.Analyze(signal, spectrum.Config{
				SampleRate: sampleRate,
				FFTSize:    a.cfg.FFTSize,
				Pad:        a.cfg.Pad,
			})

			rep.Axes[axis] = AxisAnalysis{
				Axis:       axis,
				Spectral:   res,
				Stats:      stats.Calculate(signal),
				NoiseLevel: stats.NoiseLevel(signal),
				Err:        err,
			}
		}(axis)
	}

	wg.Wait()
}

// analyzeCoupling derives common frequencies, propagation paths and pairwise
// coupling strengths over the axes that transformed successfully.
func (a *Analyzer) analyzeCoupling(rep *Report, log *telemetry.Log) {
	var axes []coupling.AxisSpectrum

	for _, ax := range rep.Axes {
		if ax.Err != nil {
			continue
		}

		axes = append(axes, coupling.AxisSpectrum{
			Axis:     ax.Axis,
			Signal:   log.Gyro(ax.Axis),
			Dominant: ax.Spectral.Dominant,
		})
	}

	rep.Common = coupling.CommonFrequencies(axes)
	rep.Propagations = coupling.Propagations(rep.Common)

	for i := 0; i < len(axes); i++ {
		for j := i + 1; j < len(axes); j++ {
			rep.Coupling = append(rep.Coupling, AxisCoupling{
				A:        axes[i].Axis,
				B:        axes[j].Axis,
				Strength: coupling.Strength(axes[i], axes[j]),
			})
		}
	}
}

// mergeDominant folds the per-axis dominant lists into one cross-axis list
// for the recommenders: near-duplicates within the coupling match tolerance
// collapse onto the strongest representative, strongest first, ties by lower
// frequency.
func mergeDominant(axes [3]AxisAnalysis) []spectrum.SpectralPoint {
	var all []spectrum.SpectralPoint

	for _, ax := range axes {
		if ax.Err == nil {
			all = append(all, ax.Spectral.Dominant...)
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Frequency < all[j].Frequency
	})
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Magnitude > all[j].Magnitude
	})

	var merged []spectrum.SpectralPoint

	for _, p := range all {
		if len(merged) == mergedDominantCap {
			break
		}

		dup := false
		for _, m := range merged {
			if p.Frequency >= m.Frequency-coupling.MatchToleranceHz && p.Frequency <= m.Frequency+coupling.MatchToleranceHz {
				dup = true
				break
			}
		}

		if !dup {
			merged = append(merged, p)
		}
	}

	return merged
}

// recommendFilters collects the primary gyro/D-term low-pass and notch
// recommendations plus the band-driven supplementary set.
func (a *Analyzer) recommendFilters(profile firmware.Profile, merged []spectrum.SpectralPoint, bands []recommend.NoiseBand, noiseLevel, sampleRate float64) []recommend.FilterRecommendation {
	rec := recommend.New(recommend.Config{Profile: profile, SampleRate: sampleRate})

	gyroLP := rec.Lowpass(recommend.TargetGyro, merged, noiseLevel)
	dtermLP := rec.Lowpass(recommend.TargetDTerm, merged, noiseLevel)
	notch := rec.Notch(merged, noiseLevel)

	filters := []recommend.FilterRecommendation{gyroLP, dtermLP, notch}

	dynamicNotch := notch.Enabled && notch.Kind == recommend.KindNotchDynamic

	return append(filters, rec.Supplementary(bands, noiseLevel, dynamicNotch, dtermLP.CutoffHz)...)
}

// tuneInput extracts the per-axis command/response pairs.
func tuneInput(log *telemetry.Log, sampleRate float64) tune.Input {
	series := func(axis telemetry.Axis) tune.AxisSeries {
		return tune.AxisSeries{Input: log.Setpoint(axis), Output: log.Gyro(axis)}
	}

	return tune.Input{
		Roll:       series(telemetry.AxisRoll),
		Pitch:      series(telemetry.AxisPitch),
		Yaw:        series(telemetry.AxisYaw),
		SampleRate: sampleRate,
	}
}

// metrics builds the flat label-to-value map for the reporting collaborator.
func metrics(rep Report, log *telemetry.Log, merged []spectrum.SpectralPoint) map[string]string {
	m := make(map[string]string)

	m["Noise level"] = fmt.Sprintf("%.1f", rep.NoiseLevel)

	for _, ax := range rep.Axes {
		m[fmt.Sprintf("Noise level (%s)", ax.Axis)] = fmt.Sprintf("%.1f", ax.NoiseLevel)
		m[fmt.Sprintf("PID error (%s)", ax.Axis)] = fmt.Sprintf("%.2f deg/s", meanAbsError(log, ax.Axis))
		m[fmt.Sprintf("Stability (%s)", ax.Axis)] = fmt.Sprintf("%.1f", ax.Spectral.StabilityScore)
	}

	// Quarter of the mean roll/pitch ultimate period approximates the
	// closed-loop response time.
	respMs := (rep.Tuning.Roll.Params.Tu + rep.Tuning.Pitch.Params.Tu) / 2 * 1000 / 4
	m["Response time"] = fmt.Sprintf("%.0f ms", respMs)

	if len(merged) > 0 {
		m["Dominant frequency"] = fmt.Sprintf("%.1f Hz", merged[0].Frequency)
		m["Top peaks"] = peakLabels(merged)
	}

	return m
}

// meanAbsError is the mean absolute setpoint-to-gyro error of one axis.
func meanAbsError(log *telemetry.Log, axis telemetry.Axis) float64 {
	setpoint := log.Setpoint(axis)
	gyro := log.Gyro(axis)

	n := len(setpoint)
	if len(gyro) < n {
		n = len(gyro)
	}

	errs := make([]float64, n)
	for i := 0; i < n; i++ {
		errs[i] = setpoint[i] - gyro[i]
	}

	return stats.Calculate(errs).MeanAbs
}

// peakLabels renders up to the top three merged peaks.
func peakLabels(merged []spectrum.SpectralPoint) string {
	labels := make([]string, 0, 3)

	for _, p := range merged {
		if len(labels) == 3 {
			break
		}

		labels = append(labels, fmt.Sprintf("%.1f Hz (%.2f)", p.Frequency, p.Magnitude))
	}

	return strings.Join(labels, ", ")
}

// script concatenates the full command sequence: PID block, blank line,
// filter block, blank line, save.
func script(tuning tune.Result, filters []recommend.FilterRecommendation) string {
	var filterCmds []string

	for _, f := range filters {
		if f.Enabled && f.Commands != "" {
			filterCmds = append(filterCmds, f.Commands)
		}
	}

	parts := []string{tuning.Commands}
	if len(filterCmds) > 0 {
		parts = append(parts, strings.Join(filterCmds, "\n"))
	}

	parts = append(parts, "save")

	return strings.Join(parts, "\n\n")
}
