package stats

import (
	"math"
	"testing"

	"github.com/rotorlab/blackbox/internal/testutil"
)

func TestCalculateEmpty(t *testing.T) {
	if got := Calculate(nil); got.Length != 0 || got.RMS != 0 {
		t.Fatalf("empty stats = %+v, want zero value", got)
	}
}

func TestCalculateKnownValues(t *testing.T) {
	got := Calculate([]float64{1, -1, 3, -3})

	if got.Mean != 0 {
		t.Fatalf("mean = %v, want 0", got.Mean)
	}

	wantRMS := math.Sqrt((1 + 1 + 9 + 9) / 4.0)
	if math.Abs(got.RMS-wantRMS) > 1e-12 {
		t.Fatalf("rms = %v, want %v", got.RMS, wantRMS)
	}

	if got.Max != 3 || got.MaxPos != 2 || got.Min != -3 || got.MinPos != 3 {
		t.Fatalf("extrema mismatch: %+v", got)
	}

	if got.Peak != 3 || got.Range != 6 {
		t.Fatalf("peak/range mismatch: %+v", got)
	}

	if got.ZeroCrossings != 3 {
		t.Fatalf("zero crossings = %d, want 3", got.ZeroCrossings)
	}

	if math.Abs(got.MeanAbs-2) > 1e-12 {
		t.Fatalf("mean abs = %v, want 2", got.MeanAbs)
	}

	if math.Abs(got.Variance-5) > 1e-12 {
		t.Fatalf("variance = %v, want 5", got.Variance)
	}
}

func TestCalculateSineRMS(t *testing.T) {
	sig := testutil.DeterministicSine(50, 1000, 2, 1000)

	got := Calculate(sig)
	if math.Abs(got.RMS-2/math.Sqrt2) > 1e-3 {
		t.Fatalf("sine rms = %v, want %v", got.RMS, 2/math.Sqrt2)
	}
}

func TestNoiseLevelScaling(t *testing.T) {
	if got := NoiseLevel(testutil.DC(5, 200)); got != 0 {
		t.Fatalf("constant channel noise level = %v, want 0", got)
	}

	// Large dispersion saturates at 100.
	big := make([]float64, 200)
	for i := range big {
		if i%2 == 0 {
			big[i] = 200
		} else {
			big[i] = -200
		}
	}

	if got := NoiseLevel(big); got != 100 {
		t.Fatalf("noise level = %v, want saturation at 100", got)
	}
}
