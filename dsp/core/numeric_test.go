package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Fatalf("Clamp(5,0,3) = %v, want 3", got)
	}

	if got := Clamp(-1, 0, 3); got != 0 {
		t.Fatalf("Clamp(-1,0,3) = %v, want 0", got)
	}

	// Swapped bounds are tolerated.
	if got := Clamp(5, 3, 0); got != 3 {
		t.Fatalf("Clamp(5,3,0) = %v, want 3", got)
	}
}

func TestClampInt(t *testing.T) {
	if got := ClampInt(200, 20, 80); got != 80 {
		t.Fatalf("ClampInt(200,20,80) = %d, want 80", got)
	}

	if got := ClampInt(-5, 0, 20); got != 0 {
		t.Fatalf("ClampInt(-5,0,20) = %d, want 0", got)
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []int{1, 2, 4, 1024} {
		if !IsPowerOfTwo(n) {
			t.Fatalf("IsPowerOfTwo(%d) = false, want true", n)
		}
	}

	for _, n := range []int{0, -2, 3, 1000} {
		if IsPowerOfTwo(n) {
			t.Fatalf("IsPowerOfTwo(%d) = true, want false", n)
		}
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 1000: 1024, 1024: 1024}
	for in, want := range cases {
		if got := NextPowerOfTwo(in); got != want {
			t.Fatalf("NextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestNormalizePhase(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{5 * math.Pi, math.Pi},
	}

	for _, c := range cases {
		if got := NormalizePhase(c.in); math.Abs(got-c.want) > 1e-12 {
			t.Fatalf("NormalizePhase(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(1.5) {
		t.Fatal("IsFinite(1.5) = false")
	}

	if IsFinite(math.NaN()) || IsFinite(math.Inf(1)) {
		t.Fatal("IsFinite accepted non-finite value")
	}
}
