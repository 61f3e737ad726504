// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all sync and pursuit tuning.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// WORLD CONFIGURATION
// =============================================================================

// WorldConfig describes the playable city footprint on the X/Z ground plane.
// The scene graph and collision live elsewhere; the core only needs the
// bounds to place scatter corners and clamp agent motion.
type WorldConfig struct {
	Width        float64 // X extent in world units
	Depth        float64 // Z extent in world units
	CornerMargin float64 // inset of scatter corners from the world edge
}

// DefaultWorld returns the default world configuration.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		Width:        240,
		Depth:        240,
		CornerMargin: 12,
	}
}

// WorldFromEnv returns world configuration with environment overrides.
func WorldFromEnv() WorldConfig {
	cfg := DefaultWorld()

	if w := getEnvFloat("WORLD_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if d := getEnvFloat("WORLD_DEPTH", 0); d > 0 {
		cfg.Depth = d
	}
	return cfg
}

// =============================================================================
// NETWORK SYNC CONFIGURATION
// =============================================================================

// SyncConfig tunes remote-player pose reconstruction.
type SyncConfig struct {
	InterpolationDelay   float64 // seconds behind estimated server time to render
	ExtrapolationHorizon float64 // max seconds of dead reckoning past the newest snapshot
	TeleportThreshold    float64 // position delta that snaps instead of interpolating
	SnapshotBufferSize   int     // retained snapshots per remote entity
	ClockWindowSize      int     // samples in the clock offset median window
	MinVelocityDt        float64 // below this Δt a velocity sample is degenerate
	StalePeerAfter       float64 // seconds without snapshots before a peer is flagged stale
}

// DefaultSync returns the default sync configuration.
func DefaultSync() SyncConfig {
	return SyncConfig{
		InterpolationDelay:   0.1, // one snapshot interval at 10 Hz feeds
		ExtrapolationHorizon: 0.25,
		TeleportThreshold:    15.0,
		SnapshotBufferSize:   5,
		ClockWindowSize:      5,
		MinVelocityDt:        1e-4,
		StalePeerAfter:       2.0,
	}
}

// SyncFromEnv returns sync configuration with environment overrides.
func SyncFromEnv() SyncConfig {
	cfg := DefaultSync()

	if d := getEnvFloat("SYNC_INTERP_DELAY", 0); d > 0 {
		cfg.InterpolationDelay = d
	}
	if h := getEnvFloat("SYNC_EXTRAP_HORIZON", 0); h > 0 {
		cfg.ExtrapolationHorizon = h
	}
	if t := getEnvFloat("SYNC_TELEPORT_THRESHOLD", 0); t > 0 {
		cfg.TeleportThreshold = t
	}
	return cfg
}

// =============================================================================
// PURSUIT CONFIGURATION
// =============================================================================

// PursuitConfig tunes pursuer behavior shared by all personalities.
// Per-tier roster composition lives in the pursuit package next to the
// resolver that consumes it.
type PursuitConfig struct {
	ScatterDwell float64 // seconds spent retreating per cycle
	ChaseDwell   float64 // seconds spent hunting per cycle
	BaseSpeed    float64 // chase speed in units/s before tier bonus
	ScatterSpeed float64 // retreat speed in units/s
	TurnRate     float64 // max yaw rate in rad/s
	AmbushLead   float64 // forward offset ahead of the victim for ambushers
	PincerLead   float64 // forward offset used as the pincer mirror pivot
	ErraticRange float64 // distance inside which the erratic pursuer breaks off
}

// DefaultPursuit returns the default pursuit configuration.
func DefaultPursuit() PursuitConfig {
	return PursuitConfig{
		ScatterDwell: 7,
		ChaseDwell:   20,
		BaseSpeed:    8.0,
		ScatterSpeed: 6.0,
		TurnRate:     4.0,
		AmbushLead:   6.0,
		PincerLead:   3.0,
		ErraticRange: 16.0,
	}
}

// PursuitFromEnv returns pursuit configuration with environment overrides.
func PursuitFromEnv() PursuitConfig {
	cfg := DefaultPursuit()

	if d := getEnvFloat("PURSUIT_SCATTER_DWELL", 0); d > 0 {
		cfg.ScatterDwell = d
	}
	if d := getEnvFloat("PURSUIT_CHASE_DWELL", 0); d > 0 {
		cfg.ChaseDwell = d
	}
	if s := getEnvFloat("PURSUIT_BASE_SPEED", 0); s > 0 {
		cfg.BaseSpeed = s
	}
	return cfg
}

// =============================================================================
// CAPTURE CONFIGURATION
// =============================================================================

// CaptureConfig tunes the cosmetic incapacitation window.
type CaptureConfig struct {
	Radius  float64 // agent-player contact distance in world units
	Timeout float64 // seconds a captured player stays incapacitated
}

// DefaultCapture returns the default capture configuration.
func DefaultCapture() CaptureConfig {
	return CaptureConfig{
		Radius:  1.8,
		Timeout: 5,
	}
}

// CaptureFromEnv returns capture configuration with environment overrides.
func CaptureFromEnv() CaptureConfig {
	cfg := DefaultCapture()

	if r := getEnvFloat("CAPTURE_RADIUS", 0); r > 0 {
		cfg.Radius = r
	}
	if t := getEnvFloat("CAPTURE_TIMEOUT", 0); t > 0 {
		cfg.Timeout = t
	}
	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds the host process settings: step rate for the
// simulation loop plus the inspector HTTP listener.
type ServerConfig struct {
	StepRate      int    // simulation steps per second
	InspectorAddr string // inspector REST/WS listener
	JournalPath   string // append-only event journal, empty disables
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		StepRate:      30,
		InspectorAddr: ":8780",
		JournalPath:   "chase-events.jsonl",
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if r := getEnvInt("STEP_RATE", 0); r > 0 {
		cfg.StepRate = r
	}
	if a := os.Getenv("INSPECTOR_ADDR"); a != "" {
		cfg.InspectorAddr = a
	}
	if p, ok := os.LookupEnv("JOURNAL_PATH"); ok {
		cfg.JournalPath = p
	}
	return cfg
}

// StepInterval returns the wall-clock duration of one simulation step.
func (c ServerConfig) StepInterval() time.Duration {
	return time.Second / time.Duration(c.StepRate)
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	World   WorldConfig
	Sync    SyncConfig
	Pursuit PursuitConfig
	Capture CaptureConfig
	Server  ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		World:   WorldFromEnv(),
		Sync:    SyncFromEnv(),
		Pursuit: PursuitFromEnv(),
		Capture: CaptureFromEnv(),
		Server:  ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
