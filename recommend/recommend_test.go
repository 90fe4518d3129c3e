package recommend

import (
	"math"
	"strings"
	"testing"

	"github.com/rotorlab/blackbox/dsp/spectrum"
	"github.com/rotorlab/blackbox/firmware"
)

func modernRecommender() *Recommender {
	return New(Config{Profile: firmware.DefaultTable().Select("4.4"), SampleRate: 1000})
}

func legacyRecommender() *Recommender {
	return New(Config{Profile: firmware.DefaultTable().Select("3.5")})
}

func peaks(freqs ...float64) []spectrum.SpectralPoint {
	out := make([]spectrum.SpectralPoint, len(freqs))
	for i, f := range freqs {
		out[i] = spectrum.SpectralPoint{Frequency: f, Magnitude: 1 - float64(i)*0.1}
	}

	return out
}

func TestNotchDisabledConditions(t *testing.T) {
	r := modernRecommender()

	if got := r.Notch(peaks(180), 19.9); got.Enabled {
		t.Fatal("notch enabled below noise threshold")
	}

	if got := r.Notch(nil, 80); got.Enabled {
		t.Fatal("notch enabled without dominant frequencies")
	}

	if got := r.Notch(peaks(180), 20); !got.Enabled {
		t.Fatal("notch disabled at threshold noise with peaks present")
	}
}

func TestNotchImprovedMode(t *testing.T) {
	r := modernRecommender()

	got := r.Notch(peaks(180), 65)
	if !got.Enabled || got.Kind != KindNotchDynamic {
		t.Fatalf("kind = %v enabled = %v, want enabled dynamic notch", got.Kind, got.Enabled)
	}

	if got.Band == nil {
		t.Fatal("improved notch missing band")
	}

	if math.Abs(got.Band.Min-90) > 1e-9 || math.Abs(got.Band.Max-360) > 1e-9 {
		t.Fatalf("band = %.0f-%.0f Hz, want 90-360", got.Band.Min, got.Band.Max)
	}

	if got.NotchCount != 5 {
		t.Fatalf("notch count = %d, want 5 above high-noise threshold", got.NotchCount)
	}

	if !strings.Contains(got.Commands, "set dyn_notch_count = 5") {
		t.Fatalf("commands missing notch count:\n%s", got.Commands)
	}

	if got.Coefficients == nil {
		t.Fatal("expected coefficient preview with sample rate set")
	}
}

func TestNotchImprovedModeBandAlwaysOrdered(t *testing.T) {
	r := modernRecommender()

	for _, freq := range []float64{10, 40, 80, 160, 400, 900, 5000} {
		got := r.Notch(peaks(freq), 50)
		if !got.Enabled {
			t.Fatalf("notch disabled for %v Hz peak", freq)
		}

		if got.Band.Min >= got.Band.Max {
			t.Fatalf("band min %v >= max %v for %v Hz peak", got.Band.Min, got.Band.Max, freq)
		}
	}
}

func TestNotchImprovedModeCountNormal(t *testing.T) {
	r := modernRecommender()

	if got := r.Notch(peaks(180), 50); got.NotchCount != 3 {
		t.Fatalf("notch count = %d, want 3 at moderate noise", got.NotchCount)
	}
}

func TestNotchLegacyMode(t *testing.T) {
	r := legacyRecommender()

	got := r.Notch(peaks(200), 40)
	if !got.Enabled || got.Kind != KindNotchStatic {
		t.Fatalf("kind = %v, want static notch on legacy profile", got.Kind)
	}

	if got.CutoffHz != 200 {
		t.Fatalf("center = %v, want 200", got.CutoffHz)
	}

	// width = max(20, 0.15*200) = 30
	if math.Abs(got.Band.Min-170) > 1e-9 || math.Abs(got.Band.Max-230) > 1e-9 {
		t.Fatalf("band = %v-%v, want 170-230", got.Band.Min, got.Band.Max)
	}

	if !strings.Contains(got.Commands, "set gyro_notch1_hz = 200") {
		t.Fatalf("commands missing center:\n%s", got.Commands)
	}
}

func TestLowpassPeakDriven(t *testing.T) {
	r := legacyRecommender()

	// Lowest peak above the 50 Hz gyro floor is 120; 45 Hz is ignored.
	got := r.Lowpass(TargetGyro, peaks(180, 45, 120), 30)
	if got.Kind != KindLowpassStatic {
		t.Fatalf("kind = %v, want static (profile has no dynamic lowpass)", got.Kind)
	}

	if math.Abs(got.CutoffHz-84) > 1e-9 {
		t.Fatalf("cutoff = %v, want 120*0.7 = 84", got.CutoffHz)
	}

	if !strings.Contains(got.Commands, "set gyro_lowpass_hz = 84") {
		t.Fatalf("commands:\n%s", got.Commands)
	}
}

func TestLowpassClamped(t *testing.T) {
	r := legacyRecommender()

	got := r.Lowpass(TargetGyro, peaks(2000), 10)
	if got.CutoffHz != 250 {
		t.Fatalf("cutoff = %v, want clamp at 250", got.CutoffHz)
	}

	got = r.Lowpass(TargetDTerm, peaks(41), 10)
	if got.CutoffHz != 40 {
		t.Fatalf("dterm cutoff = %v, want clamp at 40", got.CutoffHz)
	}
}

func TestLowpassNoiseTierFallback(t *testing.T) {
	r := legacyRecommender()

	cases := []struct {
		target Target
		noise  float64
		want   float64
	}{
		{TargetGyro, 60, 90},
		{TargetGyro, 30, 110},
		{TargetGyro, 10, 130},
		{TargetDTerm, 60, 70},
		{TargetDTerm, 30, 90},
		{TargetDTerm, 10, 110},
	}

	for _, c := range cases {
		got := r.Lowpass(c.target, nil, c.noise)
		if got.CutoffHz != c.want {
			t.Fatalf("%v fallback at noise %v = %v Hz, want %v", c.target, c.noise, got.CutoffHz, c.want)
		}
	}
}

func TestLowpassTopologyEscalation(t *testing.T) {
	modern := modernRecommender()
	legacy := legacyRecommender()

	if got := legacy.Lowpass(TargetGyro, peaks(120), 45); !strings.Contains(got.Commands, "BIQUAD") {
		t.Fatalf("gyro topology not escalated at noise 45:\n%s", got.Commands)
	}

	if got := legacy.Lowpass(TargetGyro, peaks(120), 35); strings.Contains(got.Commands, "BIQUAD") {
		t.Fatalf("gyro topology escalated below threshold:\n%s", got.Commands)
	}

	// Legacy profile cannot run a biquad D-term.
	if got := legacy.Lowpass(TargetDTerm, peaks(120), 80); strings.Contains(got.Commands, "BIQUAD") {
		t.Fatalf("dterm biquad recommended without capability:\n%s", got.Commands)
	}

	if got := modern.Lowpass(TargetDTerm, peaks(120), 80); !strings.Contains(got.Commands, "BIQUAD") {
		t.Fatalf("dterm biquad missing on modern profile:\n%s", got.Commands)
	}
}

func TestLowpassDynamicRange(t *testing.T) {
	r := modernRecommender()

	got := r.Lowpass(TargetGyro, peaks(180), 65)
	if got.Kind != KindLowpassDynamic || got.DynamicRange == nil {
		t.Fatalf("expected dynamic lowpass, got %+v", got)
	}

	cutoff := 180 * 0.7
	if math.Abs(got.DynamicRange.Min-cutoff*0.7) > 1e-9 {
		t.Fatalf("dyn min = %v, want %v", got.DynamicRange.Min, cutoff*0.7)
	}

	// Noise 65 > 60 widens the top of the range to 1.5x.
	if math.Abs(got.DynamicRange.Max-cutoff*1.5) > 1e-9 {
		t.Fatalf("dyn max = %v, want %v", got.DynamicRange.Max, cutoff*1.5)
	}

	// Below the dynamic threshold the static form is kept.
	if got := r.Lowpass(TargetGyro, peaks(180), 25); got.Kind != KindLowpassStatic {
		t.Fatalf("kind = %v, want static at low noise", got.Kind)
	}
}

func TestClassifyBands(t *testing.T) {
	dominant := []spectrum.SpectralPoint{
		{Frequency: 200, Magnitude: 1},
		{Frequency: 120, Magnitude: 0.6},
		{Frequency: 45, Magnitude: 0.3},
	}

	bands := ClassifyBands(dominant, 50)
	if len(bands) != 3 {
		t.Fatalf("band count = %d, want 3", len(bands))
	}

	// Sorted by descending severity; the strongest peak leads.
	if bands[0].Name != "high-frequency" {
		t.Fatalf("leading band = %q, want high-frequency", bands[0].Name)
	}

	for i := 1; i < len(bands); i++ {
		if bands[i].Severity > bands[i-1].Severity {
			t.Fatal("bands not sorted by severity")
		}
	}

	for _, b := range bands {
		if b.Severity < 0 || b.Severity > 10 {
			t.Fatalf("severity %v out of range", b.Severity)
		}
	}

	if got := ClassifyBands(nil, 80); got != nil {
		t.Fatalf("bands without peaks = %v, want nil", got)
	}
}

func TestSupplementaryAdvisories(t *testing.T) {
	r := modernRecommender()

	bands := []NoiseBand{
		{Name: "low-frequency", MinHz: 20, MaxHz: 80, Severity: 9, Peak: spectrum.SpectralPoint{Frequency: 60, Magnitude: 1}, Source: "frame"},
		{Name: "mid-frequency", MinHz: 80, MaxHz: 180, Severity: 8, Peak: spectrum.SpectralPoint{Frequency: 140, Magnitude: 1}, Source: "props"},
		{Name: "high-frequency", MinHz: 180, MaxHz: 500, Severity: 9, Peak: spectrum.SpectralPoint{Frequency: 320, Magnitude: 1}, Source: "motors"},
	}

	// Dynamic notch already enabled: mid band advisory is suppressed.
	got := r.Supplementary(bands, 75, true, 100)

	var titles []string
	for _, rec := range got {
		titles = append(titles, rec.Title)
	}

	want := []string{"Low-frequency static notch", "RPM filter", "Secondary D-term low-pass"}
	if len(got) != len(want) {
		t.Fatalf("recommendations = %v, want %v", titles, want)
	}

	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("recommendations = %v, want %v", titles, want)
		}
	}

	// The RPM filter disables the dynamic notch.
	if !strings.Contains(got[1].Commands, "set dyn_notch_count = 0") {
		t.Fatalf("rpm filter commands:\n%s", got[1].Commands)
	}

	// Secondary D-term stage sits at 70% of the primary cutoff.
	if got[2].CutoffHz != 70 {
		t.Fatalf("secondary dterm cutoff = %v, want 70", got[2].CutoffHz)
	}

	// Without the dynamic notch the propeller advisory appears.
	got = r.Supplementary(bands, 30, false, 100)

	found := false
	for _, rec := range got {
		if rec.Title == "Propeller static notch" {
			found = true
		}
	}

	if !found {
		t.Fatal("propeller notch missing when dynamic notch disabled")
	}

	// Mild bands produce nothing.
	if got := r.Supplementary([]NoiseBand{{Severity: 5, MaxHz: 80}}, 10, false, 100); len(got) != 0 {
		t.Fatalf("mild bands produced %d advisories", len(got))
	}
}
