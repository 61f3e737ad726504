// Package netsync reconstructs smooth, temporally consistent poses for
// remote players from a noisy, rate-limited snapshot feed. It is a pure
// data transform: the transport hands snapshots in, the host render loop
// pulls poses out, and nothing here touches the network or the scene graph.
package netsync

import "city-chase/internal/geom"

// Snapshot is one timestamped state sample for a remote entity. Snapshots
// are immutable once ingested.
type Snapshot struct {
	EntityID   string    `json:"entityId"`
	Position   geom.Vec3 `json:"position"`
	Rotation   float64   `json:"rotation"` // yaw in radians
	Animation  string    `json:"animationState"`
	ServerTime float64   `json:"serverTimestamp"` // seconds on the authoritative clock
}

// Pose is the smoothed output the host renders each frame.
type Pose struct {
	Position  geom.Vec3
	Rotation  float64
	Animation string
	// Snapped is set for exactly one render after a teleport so the host
	// can skip its own visual smoothing for that frame.
	Snapped bool
}
