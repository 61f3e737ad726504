package sim

import (
	"city-chase/internal/config"
	"city-chase/internal/geom"
)

// PlayerStatus is the capture lifecycle state of one player.
type PlayerStatus uint8

const (
	// StatusActive means the player moves freely and can be targeted.
	StatusActive PlayerStatus = iota
	// StatusIncapacitated means the player was caught and is waiting out
	// the timeout. Incapacitation is cosmetic: nothing economic changes.
	StatusIncapacitated
)

// String returns the human-readable status name.
func (s PlayerStatus) String() string {
	if s == StatusIncapacitated {
		return "incapacitated"
	}
	return "active"
}

// CaptureState tracks the capture lifecycle for one player. Transitions are
// idempotent: capturing an already-down player or expiring an already-up
// one changes nothing and signals nothing.
type CaptureState struct {
	cfg       config.CaptureConfig
	status    PlayerStatus
	downSince float64
	captor    string    // agent that scored the capture, for telemetry
	home      geom.Vec3 // player position at capture time, the respawn placement
}

// NewCaptureState creates an active-state tracker.
func NewCaptureState(cfg config.CaptureConfig) *CaptureState {
	return &CaptureState{cfg: cfg}
}

// Status returns the current lifecycle state.
func (c *CaptureState) Status() PlayerStatus {
	return c.status
}

// Incapacitated reports whether the player is currently down.
func (c *CaptureState) Incapacitated() bool {
	return c.status == StatusIncapacitated
}

// Captor returns the agent ID that scored the current incapacitation, or
// empty when the player is active.
func (c *CaptureState) Captor() string {
	if c.status != StatusIncapacitated {
		return ""
	}
	return c.captor
}

// DownSince returns the simulation time the current incapacitation began.
// Only meaningful while incapacitated.
func (c *CaptureState) DownSince() float64 {
	return c.downSince
}

// HomeCoordinate returns the position snapshotted at the most recent
// capture. This is where the host places the player when they come back up.
func (c *CaptureState) HomeCoordinate() geom.Vec3 {
	return c.home
}

// Capture transitions active→incapacitated, snapshotting the player's last
// known position for the respawn. Returns true only on the transition; a
// capture landed on a player already down is swallowed and the original
// snapshot kept.
func (c *CaptureState) Capture(agentID string, home geom.Vec3, now float64) bool {
	if c.status == StatusIncapacitated {
		return false
	}
	c.status = StatusIncapacitated
	c.downSince = now
	c.captor = agentID
	c.home = home
	return true
}

// Update expires the incapacitation once the timeout elapses. Returns true
// exactly once per incapacitation, on the step the player comes back up.
func (c *CaptureState) Update(now float64) bool {
	if c.status != StatusIncapacitated {
		return false
	}
	if now-c.downSince < c.cfg.Timeout {
		return false
	}
	c.status = StatusActive
	c.captor = ""
	return true
}

// Reset returns the player to active immediately, for match restarts.
func (c *CaptureState) Reset() {
	c.status = StatusActive
	c.downSince = 0
	c.captor = ""
	c.home = geom.Vec3{}
}
