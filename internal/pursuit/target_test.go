package pursuit

import (
	"math"
	"testing"

	"city-chase/internal/config"
	"city-chase/internal/geom"
)

func testResolver() *Resolver {
	return NewResolver(config.DefaultPursuit(), config.DefaultWorld())
}

func player(id string, x, z, facing float64) PlayerState {
	return PlayerState{ID: id, Position: geom.Vec3{X: x, Z: z}, Facing: facing}
}

// TestChaserTargetsNearestPlayer tests nearest-player selection on the
// ground plane
func TestChaserTargetsNearestPlayer(t *testing.T) {
	r := testResolver()
	agent := NewAgent("a1", PersonalityChaser, 0, geom.Vec3{X: 100, Z: 100})
	players := []PlayerState{
		player("far", 200, 200, 0),
		player("near", 105, 100, 0),
	}

	res := r.Resolve(agent, PhaseChase, players, nil, 1.0)
	if res.Target != players[1].Position {
		t.Errorf("Expected chaser to target near player at %v, got %v", players[1].Position, res.Target)
	}
	if !res.CaptureEligible {
		t.Error("Expected chaser to be capture eligible in chase phase")
	}
}

// TestChaserCarriesSpeedBonus tests that the tier multiplier only scales
// the chaser
func TestChaserCarriesSpeedBonus(t *testing.T) {
	r := testResolver()
	cfg := config.DefaultPursuit()
	players := []PlayerState{player("p", 50, 50, 0)}

	chaser := NewAgent("a1", PersonalityChaser, 0, geom.Vec3{})
	res := r.Resolve(chaser, PhaseChase, players, nil, 1.2)
	if want := cfg.BaseSpeed * 1.2; res.Speed != want {
		t.Errorf("Expected chaser speed %v, got %v", want, res.Speed)
	}

	ambusher := NewAgent("a2", PersonalityAmbusher, 0, geom.Vec3{})
	res = r.Resolve(ambusher, PhaseChase, players, nil, 1.2)
	if res.Speed != cfg.BaseSpeed {
		t.Errorf("Expected ambusher speed %v, got %v", cfg.BaseSpeed, res.Speed)
	}
}

// TestScatterSendsToHomeCorner tests the scatter retreat for each
// personality's fixed corner
func TestScatterSendsToHomeCorner(t *testing.T) {
	r := testResolver()
	players := []PlayerState{player("p", 120, 120, 0)}

	for _, p := range []Personality{PersonalityChaser, PersonalityErratic} {
		agent := NewAgent("a", p, 0, geom.Vec3{X: 120, Z: 120})
		res := r.Resolve(agent, PhaseScatter, players, nil, 1.0)
		if want := r.Corner(p.homeCorner()); res.Target != want {
			t.Errorf("%v: expected scatter corner %v, got %v", p, want, res.Target)
		}
		if res.CaptureEligible {
			t.Errorf("%v: expected no capture eligibility in scatter", p)
		}
	}
}

// TestAmbusherScatterRotatesByInstance tests that a second ambusher picks
// the next corner over
func TestAmbusherScatterRotatesByInstance(t *testing.T) {
	r := testResolver()
	players := []PlayerState{player("p", 120, 120, 0)}

	first := NewAgent("a0", PersonalityAmbusher, 0, geom.Vec3{})
	second := NewAgent("a1", PersonalityAmbusher, 1, geom.Vec3{})

	res0 := r.Resolve(first, PhaseScatter, players, nil, 1.0)
	res1 := r.Resolve(second, PhaseScatter, players, nil, 1.0)
	if res0.Target == res1.Target {
		t.Errorf("Expected distinct scatter corners for ambusher instances, both got %v", res0.Target)
	}
	home := PersonalityAmbusher.homeCorner()
	if want := r.Corner(home + 1); res1.Target != want {
		t.Errorf("Expected instance 1 corner %v, got %v", want, res1.Target)
	}
}

// TestAmbusherLeadsFacing tests the fixed-distance lead along the prey's
// facing direction
func TestAmbusherLeadsFacing(t *testing.T) {
	r := testResolver()
	cfg := config.DefaultPursuit()
	// Facing +X exactly.
	players := []PlayerState{player("p", 50, 50, 0)}
	agent := NewAgent("a", PersonalityAmbusher, 0, geom.Vec3{})

	res := r.Resolve(agent, PhaseChase, players, nil, 1.0)
	want := geom.Vec3{X: 50 + cfg.AmbushLead, Z: 50}
	if math.Abs(res.Target.X-want.X) > 1e-9 || math.Abs(res.Target.Z-want.Z) > 1e-9 {
		t.Errorf("Expected ambush point %v, got %v", want, res.Target)
	}
}

// TestPincerMirrorsThroughChaser tests the flank construction: the pincer
// target is the lead point reflected through the first chaser
func TestPincerMirrorsThroughChaser(t *testing.T) {
	r := testResolver()
	cfg := config.DefaultPursuit()
	players := []PlayerState{player("p", 100, 100, 0)}

	chaser := NewAgent("c0", PersonalityChaser, 0, geom.Vec3{X: 90, Z: 100})
	pincer := NewAgent("p0", PersonalityPincer, 0, geom.Vec3{X: 150, Z: 150})

	res := r.Resolve(pincer, PhaseChase, players, []*Agent{chaser, pincer}, 1.0)

	pivotX := 100 + cfg.PincerLead
	wantX := pivotX + (pivotX - 90)
	if math.Abs(res.Target.X-wantX) > 1e-9 || math.Abs(res.Target.Z-100) > 1e-9 {
		t.Errorf("Expected mirrored target (%v, 100), got (%v, %v)", wantX, res.Target.X, res.Target.Z)
	}
}

// TestPincerFallsBackToAmbush tests that a pincer without a chaser sibling
// behaves as an ambusher instead of stalling
func TestPincerFallsBackToAmbush(t *testing.T) {
	r := testResolver()
	players := []PlayerState{player("p", 50, 50, 0)}
	pincer := NewAgent("p0", PersonalityPincer, 0, geom.Vec3{})
	ambusher := NewAgent("a0", PersonalityAmbusher, 0, geom.Vec3{})

	got := r.Resolve(pincer, PhaseChase, players, []*Agent{pincer}, 1.0)
	want := r.Resolve(ambusher, PhaseChase, players, nil, 1.0)
	if got.Target != want.Target {
		t.Errorf("Expected pincer fallback target %v, got %v", want.Target, got.Target)
	}
}

// TestPincerScatterPicksEmptiestCorner tests that scatter sends the pincer
// to the corner farthest from all players
func TestPincerScatterPicksEmptiestCorner(t *testing.T) {
	r := testResolver()
	// Players camped near NE; the SW corner is safest.
	players := []PlayerState{
		player("p1", 220, 220, 0),
		player("p2", 200, 230, 0),
	}
	pincer := NewAgent("p0", PersonalityPincer, 0, geom.Vec3{X: 120, Z: 120})

	res := r.Resolve(pincer, PhaseScatter, players, nil, 1.0)
	if want := r.Corner(3); res.Target != want {
		t.Errorf("Expected SW corner %v, got %v", want, res.Target)
	}
}

// TestErraticBreaksOffUpClose tests the range threshold: chase beyond it,
// flee inside it
func TestErraticBreaksOffUpClose(t *testing.T) {
	r := testResolver()
	cfg := config.DefaultPursuit()
	agent := NewAgent("e0", PersonalityErratic, 0, geom.Vec3{X: 100, Z: 100})

	far := []PlayerState{player("p", 100+cfg.ErraticRange+1, 100, 0)}
	res := r.Resolve(agent, PhaseChase, far, nil, 1.0)
	if !res.CaptureEligible {
		t.Error("Expected erratic to chase beyond break range")
	}
	if res.Target != far[0].Position {
		t.Errorf("Expected erratic to target player at %v, got %v", far[0].Position, res.Target)
	}

	near := []PlayerState{player("p", 100+cfg.ErraticRange-1, 100, 0)}
	res = r.Resolve(agent, PhaseChase, near, nil, 1.0)
	if res.CaptureEligible {
		t.Error("Expected erratic to break off inside range")
	}
	if want := r.Corner(PersonalityErratic.homeCorner()); res.Target != want {
		t.Errorf("Expected erratic to flee to %v, got %v", want, res.Target)
	}
}

// TestIncapacitatedPlayersIgnored tests that downed players are invisible
// to targeting
func TestIncapacitatedPlayersIgnored(t *testing.T) {
	r := testResolver()
	agent := NewAgent("a", PersonalityChaser, 0, geom.Vec3{X: 100, Z: 100})
	players := []PlayerState{
		{ID: "down", Position: geom.Vec3{X: 101, Z: 100}, Incapacitated: true},
		player("up", 150, 100, 0),
	}

	res := r.Resolve(agent, PhaseChase, players, nil, 1.0)
	if res.Target != players[1].Position {
		t.Errorf("Expected target on standing player at %v, got %v", players[1].Position, res.Target)
	}
}

// TestNoPlayersRetreats tests that an empty player set sends every
// personality home with no eligibility
func TestNoPlayersRetreats(t *testing.T) {
	r := testResolver()
	for _, p := range AllPersonalities() {
		agent := NewAgent("a", p, 0, geom.Vec3{X: 120, Z: 120})
		res := r.Resolve(agent, PhaseChase, nil, nil, 1.0)
		if res.CaptureEligible {
			t.Errorf("%v: expected no capture eligibility with no players", p)
		}
	}
}

// TestNearestTieKeepsFirst tests the documented tiebreak on equidistant
// players
func TestNearestTieKeepsFirst(t *testing.T) {
	agent := geom.Vec3{X: 100, Z: 100}
	players := []PlayerState{
		player("left", 90, 100, 0),
		player("right", 110, 100, 0),
	}
	got, ok := nearestPlayer(agent, players)
	if !ok || got.ID != "left" {
		t.Errorf("Expected first-encountered player on tie, got %q", got.ID)
	}
}

// TestUnknownPersonalityDefaultsToChaser tests the degrade path for an
// out-of-range tag
func TestUnknownPersonalityDefaultsToChaser(t *testing.T) {
	r := testResolver()
	players := []PlayerState{player("p", 50, 50, 0)}
	odd := NewAgent("x", Personality(99), 0, geom.Vec3{})

	res := r.Resolve(odd, PhaseChase, players, nil, 1.0)
	if res.Target != players[0].Position {
		t.Errorf("Expected direct pursuit target %v, got %v", players[0].Position, res.Target)
	}
}
