package pursuit

import (
	"math"
	"testing"

	"city-chase/internal/config"
	"city-chase/internal/geom"
)

// TestAgentStepMovesTowardTarget tests straight-line seek at the resolved
// speed
func TestAgentStepMovesTowardTarget(t *testing.T) {
	cfg := config.DefaultPursuit()
	a := NewAgent("a", PersonalityChaser, 0, geom.Vec3{})
	a.Apply(Resolution{Target: geom.Vec3{X: 100}, Speed: 10})

	a.Step(0.5, cfg)
	if math.Abs(a.Position.X-5) > 1e-9 || math.Abs(a.Position.Z) > 1e-9 {
		t.Errorf("Expected position (5, 0), got (%v, %v)", a.Position.X, a.Position.Z)
	}
}

// TestAgentStepNeverOvershoots tests that a big step clamps onto the target
func TestAgentStepNeverOvershoots(t *testing.T) {
	cfg := config.DefaultPursuit()
	a := NewAgent("a", PersonalityChaser, 0, geom.Vec3{})
	a.Apply(Resolution{Target: geom.Vec3{X: 2}, Speed: 100})

	a.Step(1.0, cfg)
	if math.Abs(a.Position.X-2) > 1e-9 {
		t.Errorf("Expected agent pinned at target X=2, got %v", a.Position.X)
	}
}

// TestAgentStepTurnRateLimited tests that yaw converges on the travel
// heading without exceeding the turn rate
func TestAgentStepTurnRateLimited(t *testing.T) {
	cfg := config.DefaultPursuit()
	cfg.TurnRate = 1.0
	a := NewAgent("a", PersonalityChaser, 0, geom.Vec3{})
	a.Rotation = 0
	// Target along +Z: heading is pi/2.
	a.Apply(Resolution{Target: geom.Vec3{Z: 100}, Speed: 1})

	a.Step(0.1, cfg)
	if math.Abs(a.Rotation-0.1) > 1e-9 {
		t.Errorf("Expected yaw 0.1 after one rate-limited step, got %v", a.Rotation)
	}

	for i := 0; i < 100; i++ {
		a.Step(0.1, cfg)
	}
	if math.Abs(a.Rotation-math.Pi/2) > 1e-6 {
		t.Errorf("Expected yaw to settle at pi/2, got %v", a.Rotation)
	}
}

// TestAgentStepIgnoresHeight tests that a vertical offset on the target
// does not slow the ground advance
func TestAgentStepIgnoresHeight(t *testing.T) {
	cfg := config.DefaultPursuit()
	a := NewAgent("a", PersonalityChaser, 0, geom.Vec3{})
	a.Apply(Resolution{Target: geom.Vec3{X: 100, Y: 50}, Speed: 10})

	a.Step(1.0, cfg)
	if math.Abs(a.Position.X-10) > 1e-9 {
		t.Errorf("Expected X=10 regardless of target height, got %v", a.Position.X)
	}
	if a.Position.Y != 0 {
		t.Errorf("Expected agent to stay on the ground, got Y=%v", a.Position.Y)
	}
}

// TestAgentInactiveDoesNotMove tests the active gate
func TestAgentInactiveDoesNotMove(t *testing.T) {
	cfg := config.DefaultPursuit()
	a := NewAgent("a", PersonalityChaser, 0, geom.Vec3{})
	a.Apply(Resolution{Target: geom.Vec3{X: 100}, Speed: 10})
	a.Active = false

	a.Step(1.0, cfg)
	if a.Position.X != 0 {
		t.Errorf("Expected inactive agent to hold position, got X=%v", a.Position.X)
	}
}

// TestCaptureCheckRadius tests the boundary of the capture disc
func TestCaptureCheckRadius(t *testing.T) {
	a := NewAgent("a", PersonalityChaser, 0, geom.Vec3{X: 100, Z: 100})

	inside := []PlayerState{player("p", 101.5, 100, 0)}
	if _, ok := a.CaptureCheck(inside, 1.8); !ok {
		t.Error("Expected capture inside radius")
	}

	outside := []PlayerState{player("p", 102, 100, 0)}
	if _, ok := a.CaptureCheck(outside, 1.8); ok {
		t.Error("Expected no capture outside radius")
	}
}

// TestCaptureCheckSkipsIncapacitated tests that downed players cannot be
// captured twice
func TestCaptureCheckSkipsIncapacitated(t *testing.T) {
	a := NewAgent("a", PersonalityChaser, 0, geom.Vec3{X: 100, Z: 100})
	players := []PlayerState{
		{ID: "down", Position: geom.Vec3{X: 100, Z: 100}, Incapacitated: true},
	}
	if _, ok := a.CaptureCheck(players, 1.8); ok {
		t.Error("Expected incapacitated player to be ignored")
	}
}

// TestCaptureCheckVerticalSeparation tests that height difference alone
// does not defeat the horizontal capture disc
func TestCaptureCheckVerticalSeparation(t *testing.T) {
	a := NewAgent("a", PersonalityChaser, 0, geom.Vec3{X: 100, Z: 100})
	players := []PlayerState{
		{ID: "p", Position: geom.Vec3{X: 100.5, Y: 10, Z: 100}},
	}
	if _, ok := a.CaptureCheck(players, 1.8); !ok {
		t.Error("Expected capture to ignore vertical separation")
	}
}
