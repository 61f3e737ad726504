package sim

import (
	"encoding/json"
	"time"

	"city-chase/internal/geom"
)

// EventType enum for journal event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeStep              // Step boundary with timing info
	EventTypeAgentSpawn
	EventTypePhaseChange
	EventTypeTierChange
	EventTypeCapture
	EventTypeRespawn
	EventTypePlayerJoin
	EventTypePlayerLeave
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is the journal record written per simulation occurrence
type Event struct {
	Version   uint8     `json:"version"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"` // Unix nano
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence
	StepNum   uint64    `json:"stepNum"`   // Simulation step this occurred in
	EntityID  string    `json:"entityId"`  // Player or agent the event concerns
	Payload   []byte    `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeStep:
		return "step"
	case EventTypeAgentSpawn:
		return "agent_spawn"
	case EventTypePhaseChange:
		return "phase_change"
	case EventTypeTierChange:
		return "tier_change"
	case EventTypeCapture:
		return "capture"
	case EventTypeRespawn:
		return "respawn"
	case EventTypePlayerJoin:
		return "player_join"
	case EventTypePlayerLeave:
		return "player_leave"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// StepPayload records step boundary timing for replay
type StepPayload struct {
	SimTime     float64 `json:"simTime"`
	PlayerCount int     `json:"playerCount"`
	AgentCount  int     `json:"agentCount"`
	DeltaTimeNs int64   `json:"deltaTimeNs"`
}

// AgentSpawnPayload records a roster addition
type AgentSpawnPayload struct {
	AgentID     string  `json:"agentId"`
	Personality string  `json:"personality"`
	Instance    int     `json:"instance"`
	SpawnX      float64 `json:"spawnX"`
	SpawnZ      float64 `json:"spawnZ"`
	Tier        string  `json:"tier"`
}

// PhaseChangePayload records a scatter/chase flip
type PhaseChangePayload struct {
	Phase     string  `json:"phase"`
	EnteredAt float64 `json:"enteredAt"`
}

// TierChangePayload records an escalation ladder climb
type TierChangePayload struct {
	Smell    float64 `json:"smell"`
	Tier     string  `json:"tier"`
	PrevTier string  `json:"prevTier"`
}

// CapturePayload records an agent catching a player
type CapturePayload struct {
	AgentID     string  `json:"agentId"`
	PlayerID    string  `json:"playerId"`
	Personality string  `json:"personality"`
	X           float64 `json:"x"`
	Z           float64 `json:"z"`
}

// RespawnPayload records a player returning to active at the home
// coordinate snapshotted when they were captured
type RespawnPayload struct {
	PlayerID   string    `json:"playerId"`
	Coordinate geom.Vec3 `json:"coordinate"`
	DownFor    float64   `json:"downFor"` // seconds spent incapacitated
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, stepNum uint64, entityID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		StepNum:   stepNum,
		EntityID:  entityID,
		Payload:   EncodePayload(payload),
	}
}
