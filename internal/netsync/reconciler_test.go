package netsync

import (
	"math"
	"testing"

	"city-chase/internal/config"
	"city-chase/internal/geom"
)

func testEntity() *RemoteEntity {
	return NewRemoteEntity("remote-1", config.DefaultSync())
}

func snapAt(t float64, x, z float64, rot float64) Snapshot {
	return Snapshot{
		EntityID:   "remote-1",
		Position:   geom.Vec3{X: x, Z: z},
		Rotation:   rot,
		Animation:  "run",
		ServerTime: t,
	}
}

// TestRenderEmptyBuffer tests that no pose exists before the first snapshot
func TestRenderEmptyBuffer(t *testing.T) {
	e := testEntity()

	if _, ok := e.Render(1.0); ok {
		t.Error("Expected no pose from an empty buffer")
	}
}

// TestRenderSingleSnapshot tests that one snapshot renders as-is
func TestRenderSingleSnapshot(t *testing.T) {
	e := testEntity()
	e.Ingest(snapAt(1.0, 3, 4, 0.5), 0)

	pose, ok := e.Render(1.05)
	if !ok {
		t.Fatal("Expected a pose")
	}
	if pose.Position.X != 3 || pose.Position.Z != 4 {
		t.Errorf("Expected position (3,4), got (%v,%v)", pose.Position.X, pose.Position.Z)
	}
	if pose.Rotation != 0.5 {
		t.Errorf("Expected rotation 0.5, got %v", pose.Rotation)
	}
}

// TestLinearInterpolation tests the blend at fraction (t-t0)/(t1-t0),
// exact at both endpoints
func TestLinearInterpolation(t *testing.T) {
	e := testEntity()
	e.Ingest(snapAt(1.0, 0, 0, 0), 0)
	e.Ingest(snapAt(2.0, 10, 20, 0), 0)

	cases := []struct {
		at       float64
		wantX    float64
		wantZ    float64
	}{
		{1.0, 0, 0},
		{1.25, 2.5, 5},
		{1.5, 5, 10},
		{2.0, 10, 20},
	}
	for _, c := range cases {
		pose, ok := e.Render(c.at)
		if !ok {
			t.Fatalf("Expected a pose at t=%v", c.at)
		}
		if math.Abs(pose.Position.X-c.wantX) > 1e-9 || math.Abs(pose.Position.Z-c.wantZ) > 1e-9 {
			t.Errorf("At t=%v expected (%v,%v), got (%v,%v)",
				c.at, c.wantX, c.wantZ, pose.Position.X, pose.Position.Z)
		}
	}
}

// TestRotationWraparound tests that interpolating 3.0 → -3.0 radians takes
// the short path through the π boundary
func TestRotationWraparound(t *testing.T) {
	e := testEntity()
	e.Ingest(snapAt(1.0, 0, 0, 3.0), 0)
	e.Ingest(snapAt(2.0, 1, 0, -3.0), 0)

	pose, _ := e.Render(1.5)

	// Halfway along the short arc lands just past π (wrapped negative).
	if math.Abs(pose.Rotation) < 2.9 {
		t.Errorf("Rotation %v took the long path through zero", pose.Rotation)
	}
}

// TestOutOfOrderDropped tests that stale and duplicate snapshots are
// discarded silently
func TestOutOfOrderDropped(t *testing.T) {
	e := testEntity()
	e.Ingest(snapAt(2.0, 0, 0, 0), 0)
	e.Ingest(snapAt(1.0, 50, 0, 0), 0) // older, dropped
	e.Ingest(snapAt(2.0, 50, 0, 0), 0) // duplicate timestamp, dropped

	if e.BufferLen() != 1 {
		t.Errorf("Expected buffer length 1, got %d", e.BufferLen())
	}
	if e.DroppedCount() != 2 {
		t.Errorf("Expected 2 dropped snapshots, got %d", e.DroppedCount())
	}
}

// TestTeleportDetection tests that a snapshot beyond the teleport threshold
// snaps the pose immediately and resets the buffer to length 1
func TestTeleportDetection(t *testing.T) {
	e := testEntity()
	e.Ingest(snapAt(1.0, 0, 0, 0), 0)
	e.Ingest(snapAt(1.1, 1, 0, 0), 0)
	e.Ingest(snapAt(1.2, 200, 200, 1.0), 0) // way past the threshold

	if e.BufferLen() != 1 {
		t.Errorf("Expected buffer reset to 1, got %d", e.BufferLen())
	}

	pose, ok := e.Pose()
	if !ok {
		t.Fatal("Expected a pose after teleport")
	}
	if pose.Position.X != 200 || pose.Position.Z != 200 {
		t.Errorf("Expected snapped position (200,200), got (%v,%v)",
			pose.Position.X, pose.Position.Z)
	}

	// The snap flag is visible for exactly one render.
	pose, _ = e.Render(1.2)
	if !pose.Snapped {
		t.Error("Expected Snapped=true on the first render after teleport")
	}
	pose, _ = e.Render(1.2)
	if pose.Snapped {
		t.Error("Expected Snapped=false on subsequent renders")
	}
}

// TestExtrapolationUsesVelocity tests bounded dead reckoning past the
// newest snapshot
func TestExtrapolationUsesVelocity(t *testing.T) {
	e := testEntity()
	e.Ingest(snapAt(1.0, 0, 0, 0), 0)
	e.Ingest(snapAt(2.0, 10, 0, 0), 0) // 10 units/s along X

	pose, _ := e.Render(2.1)
	if math.Abs(pose.Position.X-11) > 1e-9 {
		t.Errorf("Expected extrapolated X=11, got %v", pose.Position.X)
	}
}

// TestExtrapolationCap tests that with only stale data the pose stays
// pinned at the horizon, never projecting further
func TestExtrapolationCap(t *testing.T) {
	cfg := config.DefaultSync()
	e := NewRemoteEntity("remote-1", cfg)
	e.Ingest(snapAt(1.0, 0, 0, 0), 0)
	e.Ingest(snapAt(2.0, 10, 0, 0), 0)

	atHorizon, _ := e.Render(2.0 + cfg.ExtrapolationHorizon)
	farBeyond, _ := e.Render(2.0 + cfg.ExtrapolationHorizon + 10.0)

	if farBeyond.Position != atHorizon.Position {
		t.Errorf("Expected pose pinned at %v, got %v",
			atHorizon.Position, farBeyond.Position)
	}
}

// TestDegenerateDtKeepsVelocity tests that a near-zero Δt sample pair is
// discarded and the prior estimate kept
func TestDegenerateDtKeepsVelocity(t *testing.T) {
	e := testEntity()
	e.Ingest(snapAt(1.0, 0, 0, 0), 0)
	e.Ingest(snapAt(2.0, 10, 0, 0), 0) // 10 units/s

	// Δt of 1e-9 is below MinVelocityDt; the pair must be rejected.
	e.Ingest(snapAt(2.000000001, 10.5, 0, 0), 0)

	if v := e.Velocity().X; math.Abs(v-10) > 1e-6 {
		t.Errorf("Expected velocity estimate kept at 10, got %v", v)
	}
}

// TestBufferEviction tests that the history never exceeds the configured
// size and keeps the newest entries
func TestBufferEviction(t *testing.T) {
	cfg := config.DefaultSync()
	e := NewRemoteEntity("remote-1", cfg)

	for i := 0; i < 12; i++ {
		e.Ingest(snapAt(float64(i), float64(i), 0, 0), 0)
	}

	if e.BufferLen() != cfg.SnapshotBufferSize {
		t.Errorf("Expected buffer length %d, got %d", cfg.SnapshotBufferSize, e.BufferLen())
	}

	// The newest snapshot must still be reachable.
	pose, _ := e.Render(11.0)
	if pose.Position.X != 11 {
		t.Errorf("Expected newest snapshot retained, got X=%v", pose.Position.X)
	}
}

// TestStaleDetection tests the stale-peer flag against the local receipt
// clock
func TestStaleDetection(t *testing.T) {
	cfg := config.DefaultSync()
	e := NewRemoteEntity("remote-1", cfg)

	if e.Stale(100) {
		t.Error("Entity with no snapshots should not be stale")
	}

	e.Ingest(snapAt(1.0, 0, 0, 0), 10.0)

	if e.Stale(10.0 + cfg.StalePeerAfter - 0.1) {
		t.Error("Entity should not be stale inside the window")
	}
	if !e.Stale(10.0 + cfg.StalePeerAfter + 0.1) {
		t.Error("Entity should be stale past the window")
	}
}
