package netsync

import (
	"math"

	"city-chase/internal/config"
	"city-chase/internal/geom"
)

// RemoteEntity buffers snapshots for one remote player and reconciles them
// into a render pose. The buffer is a plain time-ordered slice with
// eviction by age, never a fixed ring: a burst of arrivals must not
// overwrite an entry still needed for the bracketing search.
type RemoteEntity struct {
	ID string

	cfg     config.SyncConfig
	history []Snapshot

	pose    Pose
	hasPose bool
	snapped bool // pending snap flag, consumed by the next Render

	velocity        geom.Vec3 // units/s, estimated from the two newest snapshots
	angularVelocity float64   // rad/s

	lastIngestLocal float64 // local receipt time of the newest accepted snapshot
	dropped         uint64  // out-of-order/duplicate snapshots discarded
}

// NewRemoteEntity creates the reconciler state for one remote player.
func NewRemoteEntity(id string, cfg config.SyncConfig) *RemoteEntity {
	return &RemoteEntity{
		ID:      id,
		cfg:     cfg,
		history: make([]Snapshot, 0, cfg.SnapshotBufferSize),
	}
}

// Ingest appends a snapshot to the history. Snapshots whose timestamp does
// not advance past the newest buffered entry are dropped silently; the feed
// is allowed to duplicate and reorder, the buffer is not.
//
// localNow is the local receipt time, used only for stale-peer accounting.
func (e *RemoteEntity) Ingest(snap Snapshot, localNow float64) {
	e.lastIngestLocal = localNow

	if n := len(e.history); n > 0 {
		last := e.history[n-1]
		if snap.ServerTime <= last.ServerTime {
			e.dropped++
			return
		}
		if last.Position.Distance(snap.Position) > e.cfg.TeleportThreshold {
			// A respawn or server correction, not movement. Interpolating
			// across it would drag the player through the city.
			e.history = e.history[:0]
			e.history = append(e.history, snap)
			e.pose = Pose{Position: snap.Position, Rotation: snap.Rotation, Animation: snap.Animation, Snapped: true}
			e.hasPose = true
			e.snapped = true
			e.velocity = geom.Vec3{}
			e.angularVelocity = 0
			return
		}
	}

	e.history = append(e.history, snap)
	e.updateVelocity()
	e.evict()
}

// updateVelocity re-estimates linear and angular velocity from the two
// newest snapshots. A degenerate Δt discards the sample pair and keeps the
// previous estimate.
func (e *RemoteEntity) updateVelocity() {
	n := len(e.history)
	if n < 2 {
		return
	}
	a, b := e.history[n-2], e.history[n-1]
	dt := b.ServerTime - a.ServerTime
	if dt < e.cfg.MinVelocityDt {
		return
	}
	e.velocity = b.Position.Sub(a.Position).Scale(1 / dt)
	e.angularVelocity = geom.AngleDelta(a.Rotation, b.Rotation) / dt
}

// evict trims the history to the configured size, oldest first. The newest
// entries are always the ones a bracketing search can still need because
// the render instant trails server time by a fixed delay.
func (e *RemoteEntity) evict() {
	if over := len(e.history) - e.cfg.SnapshotBufferSize; over > 0 {
		e.history = append(e.history[:0], e.history[over:]...)
	}
}

// Render advances the pose to the given instant on the server timeline.
// Reports whether a pose is available at all (false only before the first
// snapshot).
func (e *RemoteEntity) Render(renderInstant float64) (Pose, bool) {
	defer func() { e.snapped = false }()

	switch n := len(e.history); {
	case n == 0:
		return e.pose, e.hasPose

	case n == 1:
		only := e.history[0]
		e.setPose(only.Position, only.Rotation, only.Animation)
		return e.pose, true
	}

	newest := e.history[len(e.history)-1]
	if renderInstant >= newest.ServerTime {
		e.extrapolate(newest, renderInstant)
		return e.pose, true
	}

	// Locate the bracketing pair. History is strictly increasing in
	// timestamp, so the first entry past the render instant closes it.
	for i := 1; i < len(e.history); i++ {
		next := e.history[i]
		if renderInstant > next.ServerTime {
			continue
		}
		prev := e.history[i-1]
		span := next.ServerTime - prev.ServerTime
		if span <= 0 {
			e.setPose(next.Position, next.Rotation, next.Animation)
			return e.pose, true
		}
		t := (renderInstant - prev.ServerTime) / span
		e.setPose(
			geom.Lerp(prev.Position, next.Position, t),
			geom.LerpAngle(prev.Rotation, next.Rotation, t),
			prev.Animation,
		)
		return e.pose, true
	}

	// Render instant precedes the whole buffer (can happen right after a
	// teleport reset). Hold the oldest entry rather than guess backward.
	oldest := e.history[0]
	e.setPose(oldest.Position, oldest.Rotation, oldest.Animation)
	return e.pose, true
}

// extrapolate dead-reckons past the newest snapshot, capped at the horizon.
// Beyond the horizon the pose freezes: a wrong hold reads better than a
// player sprinting through a wall.
func (e *RemoteEntity) extrapolate(newest Snapshot, renderInstant float64) {
	ahead := renderInstant - newest.ServerTime
	if ahead > e.cfg.ExtrapolationHorizon {
		ahead = e.cfg.ExtrapolationHorizon
	}
	e.setPose(
		newest.Position.Add(e.velocity.Scale(ahead)),
		geom.WrapAngle(newest.Rotation+e.angularVelocity*ahead),
		newest.Animation,
	)
}

func (e *RemoteEntity) setPose(pos geom.Vec3, rot float64, anim string) {
	e.pose = Pose{Position: pos, Rotation: rot, Animation: anim, Snapped: e.snapped}
	e.hasPose = true
}

// Pose returns the last reconciled pose without advancing it.
func (e *RemoteEntity) Pose() (Pose, bool) {
	return e.pose, e.hasPose
}

// Velocity returns the current linear velocity estimate in units/s.
func (e *RemoteEntity) Velocity() geom.Vec3 {
	return e.velocity
}

// Facing returns the yaw the entity is currently rendered at.
func (e *RemoteEntity) Facing() float64 {
	return e.pose.Rotation
}

// BufferLen returns the number of buffered snapshots.
func (e *RemoteEntity) BufferLen() int {
	return len(e.history)
}

// DroppedCount returns how many snapshots were discarded as out of order.
func (e *RemoteEntity) DroppedCount() uint64 {
	return e.dropped
}

// Stale reports whether no snapshot has arrived for longer than the
// configured stale window. The caller surfaces this to the transport layer;
// the reconciler itself keeps rendering the frozen pose.
func (e *RemoteEntity) Stale(localNow float64) bool {
	if len(e.history) == 0 {
		return false
	}
	return localNow-e.lastIngestLocal > e.cfg.StalePeerAfter
}

// SpeedEstimate returns the scalar ground speed, a convenience for
// animation state selection on the host.
func (e *RemoteEntity) SpeedEstimate() float64 {
	return math.Hypot(e.velocity.X, e.velocity.Z)
}
