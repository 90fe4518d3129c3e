package spectrum

import (
	"errors"
	"fmt"
	"math"
	"sort"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/rotorlab/blackbox/dsp/core"
	"github.com/rotorlab/blackbox/dsp/window"
)

const (
	// DefaultFFTSize is used when Config.FFTSize is zero.
	DefaultFFTSize = 1024

	// dominantFloor is the minimum magnitude for a bin to qualify as a
	// dominant frequency.
	dominantFloor = 0.01

	// maxDominant caps the dominant-frequency list.
	maxDominant = 10

	// harmonicTolerance is the relative deviation from an integer ratio
	// within which a peak counts as a harmonic of the fundamental.
	harmonicTolerance = 0.10

	// oscillationRatio is the magnitude fraction of the fundamental above
	// which a non-harmonic peak flags an oscillation.
	oscillationRatio = 0.15

	// oscillationTopN bounds how many dominant peaks are inspected for
	// oscillation detection.
	oscillationTopN = 5
)

// ErrInsufficientSamples reports a channel too short for a meaningful
// transform at the configured FFT size.
var ErrInsufficientSamples = errors.New("spectrum: insufficient samples for transform")

// SpectralPoint is one bin of a one-sided spectrum.
type SpectralPoint struct {
	Frequency float64 // Hz, >= 0
	Magnitude float64 // linear, >= 0
	Phase     float64 // radians in (-pi, pi]
}

// Config holds spectral analysis parameters.
type Config struct {
	SampleRate float64
	FFTSize    int // power of two; DefaultFFTSize when zero

	// Window selects the framing window. The zero value selects Hann;
	// use PreWindowed for channels windowed by the caller.
	Window window.Type

	// PreWindowed skips internal windowing.
	PreWindowed bool

	// Pad allows zero-padding of channels shorter than FFTSize/2 instead
	// of failing with [ErrInsufficientSamples]. Channels between FFTSize/2
	// and FFTSize samples are always zero-padded; longer channels are
	// truncated.
	Pad bool
}

// Result holds the spectral characterization of one channel.
type Result struct {
	// Spectrum contains FFTSize/2 points in increasing frequency order.
	Spectrum []SpectralPoint

	// Dominant is the top-10 local magnitude maxima, strongest first.
	Dominant []SpectralPoint

	// BinWidth is the frequency resolution in Hz.
	BinWidth float64

	THDPercent          float64
	StabilityScore      float64
	OscillationDetected bool
}

// Fundamental returns the strongest dominant frequency, if any.
func (r Result) Fundamental() (SpectralPoint, bool) {
	if len(r.Dominant) == 0 {
		return SpectralPoint{}, false
	}

	return r.Dominant[0], true
}

// Analyzer computes spectra with a fixed configuration.
type Analyzer struct {
	cfg Config
}

// New creates an Analyzer after validating the configuration.
func New(cfg Config) (*Analyzer, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("spectrum: sample rate must be > 0: %f", cfg.SampleRate)
	}

	if cfg.FFTSize == 0 {
		cfg.FFTSize = DefaultFFTSize
	}

	if !core.IsPowerOfTwo(cfg.FFTSize) {
		return nil, fmt.Errorf("spectrum: FFT size must be a power of two: %d", cfg.FFTSize)
	}

	if cfg.Window == 0 {
		cfg.Window = window.TypeHann
	}

	return &Analyzer{cfg: cfg}, nil
}

// Analyze is a one-shot spectral analysis of a real-valued channel.
func Analyze(samples []float64, cfg Config) (Result, error) {
	a, err := New(cfg)
	if err != nil {
		return Result{}, err
	}

	return a.Analyze(samples)
}

// Analyze transforms one channel. An empty channel yields a zero-magnitude
// spectrum rather than an error; a non-empty channel shorter than FFTSize/2
// fails with [ErrInsufficientSamples] unless padding is configured.
func (a *Analyzer) Analyze(samples []float64) (Result, error) {
	cfg := a.cfg
	half := cfg.FFTSize / 2
	binWidth := cfg.SampleRate / float64(cfg.FFTSize)

	if len(samples) == 0 {
		return neutralResult(half, binWidth), nil
	}

	if len(samples) < half && !cfg.Pad {
		return Result{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientSamples, len(samples), half)
	}

	frame := make([]float64, min(len(samples), cfg.FFTSize))
	copy(frame, samples)

	if !cfg.PreWindowed {
		window.Apply(cfg.Window, frame)
	}

	in := make([]complex128, cfg.FFTSize)
	for i, v := range frame {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return Result{}, fmt.Errorf("spectrum: creating FFT plan: %w", err)
	}

	out := make([]complex128, cfg.FFTSize)
	if err := plan.Forward(out, in); err != nil {
		return Result{}, fmt.Errorf("spectrum: forward transform: %w", err)
	}

	res := Result{
		Spectrum: bins(out[:half], binWidth, float64(half)),
		BinWidth: binWidth,
	}

	res.Dominant = DominantFrequencies(res.Spectrum)
	res.THDPercent, res.StabilityScore, res.OscillationDetected = Distortion(res.Dominant)

	return res, nil
}

// bins converts complex FFT output into normalized spectral points.
func bins(spec []complex128, binWidth, norm float64) []SpectralPoint {
	re := make([]float64, len(spec))
	im := make([]float64, len(spec))

	for i, c := range spec {
		re[i] = real(c)
		im[i] = imag(c)
	}

	mag := make([]float64, len(spec))
	vecmath.Magnitude(mag, re, im)
	vecmath.ScaleBlock(mag, mag, 1/norm)

	out := make([]SpectralPoint, len(spec))
	for i := range out {
		out[i] = SpectralPoint{
			Frequency: float64(i) * binWidth,
			Magnitude: mag[i],
			Phase:     math.Atan2(im[i], re[i]),
		}
	}

	return out
}

func neutralResult(half int, binWidth float64) Result {
	spec := make([]SpectralPoint, half)
	for i := range spec {
		spec[i].Frequency = float64(i) * binWidth
	}

	return Result{
		Spectrum:       spec,
		BinWidth:       binWidth,
		StabilityScore: 100,
	}
}

// DominantFrequencies scans interior bins for strict local magnitude maxima
// above the noise floor and returns the strongest ten, descending. Equal
// magnitudes keep their original bin order, so ties resolve to the lower
// frequency.
func DominantFrequencies(spec []SpectralPoint) []SpectralPoint {
	var peaks []SpectralPoint

	for i := 1; i < len(spec)-1; i++ {
		m := spec[i].Magnitude
		if m <= dominantFloor {
			continue
		}

		if m > spec[i-1].Magnitude && m > spec[i+1].Magnitude {
			peaks = append(peaks, spec[i])
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].Magnitude > peaks[j].Magnitude
	})

	if len(peaks) > maxDominant {
		peaks = peaks[:maxDominant]
	}

	return peaks
}

// Distortion scores the dominant-frequency list against its strongest peak.
//
// THD accumulates squared magnitudes of peaks whose frequency ratio to the
// fundamental lies within 10% of an integer >= 2. The stability score is
// 100 - min(100, THD%). Oscillation is flagged when any of the strongest
// five peaks is not a harmonic yet exceeds 15% of the fundamental magnitude.
func Distortion(dominant []SpectralPoint) (thdPercent, stability float64, oscillation bool) {
	if len(dominant) == 0 {
		return 0, 100, false
	}

	fund := dominant[0]
	if fund.Magnitude <= 0 || fund.Frequency <= 0 {
		return 0, 100, false
	}

	harmonicPower := 0.0
	for _, d := range dominant[1:] {
		if IsHarmonic(d.Frequency, fund.Frequency) {
			harmonicPower += d.Magnitude * d.Magnitude
		}
	}

	if harmonicPower > 0 {
		thdPercent = 100 * math.Sqrt(harmonicPower) / fund.Magnitude
	}

	stability = 100 - math.Min(100, thdPercent)

	top := dominant
	if len(top) > oscillationTopN {
		top = top[:oscillationTopN]
	}

	for _, d := range top[1:] {
		if !IsHarmonic(d.Frequency, fund.Frequency) && d.Magnitude > oscillationRatio*fund.Magnitude {
			oscillation = true
			break
		}
	}

	return thdPercent, stability, oscillation
}

// IsHarmonic reports whether freq is an integer multiple (>= 2) of
// fundamental, within the relative harmonic tolerance.
func IsHarmonic(freq, fundamental float64) bool {
	if fundamental <= 0 {
		return false
	}

	ratio := freq / fundamental

	k := math.Round(ratio)
	if k < 2 {
		return false
	}

	return math.Abs(ratio-k) <= harmonicTolerance*k
}
