package geom

import (
	"math"
	"testing"
)

// TestLerpEndpoints tests that Lerp is exact at both endpoints
func TestLerpEndpoints(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: -4, Y: 0, Z: 9}

	if got := Lerp(a, b, 0); got != a {
		t.Errorf("Expected %v at t=0, got %v", a, got)
	}
	if got := Lerp(a, b, 1); got != b {
		t.Errorf("Expected %v at t=1, got %v", b, got)
	}
}

// TestLerpMidpoint tests the halfway blend
func TestLerpMidpoint(t *testing.T) {
	a := Vec3{X: 0, Y: 0, Z: 0}
	b := Vec3{X: 10, Y: -2, Z: 4}

	mid := Lerp(a, b, 0.5)
	want := Vec3{X: 5, Y: -1, Z: 2}
	if mid != want {
		t.Errorf("Expected %v, got %v", want, mid)
	}
}

// TestWrapAngle tests normalization into (-π, π]
func TestWrapAngle(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi, math.Pi},
		{2 * math.Pi, 0},
		{-2.5 * math.Pi, -0.5 * math.Pi},
	}
	for _, c := range cases {
		if got := WrapAngle(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("WrapAngle(%v): expected %v, got %v", c.in, c.want, got)
		}
	}
}

// TestLerpAngleShortPath tests that blending 3.0 → -3.0 crosses π,
// not zero
func TestLerpAngleShortPath(t *testing.T) {
	mid := LerpAngle(3.0, -3.0, 0.5)

	// The short arc from 3.0 to -3.0 is 2π-6 ≈ 0.283 rad through π.
	want := WrapAngle(3.0 + (2*math.Pi-6.0)/2)
	if math.Abs(mid-want) > 1e-9 {
		t.Errorf("Expected %v, got %v", want, mid)
	}
	if math.Abs(mid) < 2.9 {
		t.Errorf("Midpoint %v took the long path through zero", mid)
	}
}

// TestStepAngleNoOvershoot tests that StepAngle lands exactly on the
// target once within range
func TestStepAngleNoOvershoot(t *testing.T) {
	got := StepAngle(0, 0.1, 0.5)
	if got != 0.1 {
		t.Errorf("Expected 0.1, got %v", got)
	}

	got = StepAngle(0, 1.0, 0.25)
	if math.Abs(got-0.25) > 1e-9 {
		t.Errorf("Expected 0.25, got %v", got)
	}
}

// TestHorizontalDistanceIgnoresHeight tests that Y is excluded
func TestHorizontalDistanceIgnoresHeight(t *testing.T) {
	a := Vec3{X: 0, Y: 0, Z: 0}
	b := Vec3{X: 3, Y: 100, Z: 4}

	if d := a.HorizontalDistance(b); math.Abs(d-5) > 1e-9 {
		t.Errorf("Expected 5, got %v", d)
	}
}

// TestHeadingCoincident tests fallback to the current yaw when the
// points coincide on the ground plane
func TestHeadingCoincident(t *testing.T) {
	a := Vec3{X: 1, Z: 1}
	b := Vec3{X: 1, Y: 5, Z: 1}

	if h := Heading(a, b, 0.7); h != 0.7 {
		t.Errorf("Expected 0.7, got %v", h)
	}
}
