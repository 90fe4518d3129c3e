// Package spectrum converts windowed telemetry channels into one-sided
// frequency spectra and extracts the dominant-frequency and harmonic
// structure used by the noise classification and tuning packages.
//
// The FFT itself comes from an external backend; this package owns framing,
// normalization, peak extraction, and distortion scoring.
package spectrum
