package pursuit

import (
	"city-chase/internal/config"
	"city-chase/internal/geom"
)

// Agent is one pursuer. Agents are created when the roster delta demands
// one and never destroyed mid-match; a match restart clears the set.
type Agent struct {
	ID          string
	Personality Personality
	Instance    int // per-personality instance index, 0-based

	Position geom.Vec3
	Rotation float64 // yaw in radians

	// Last resolved verdict, applied by Step.
	Target          geom.Vec3
	Speed           float64
	CaptureEligible bool

	// Handle is the host's renderable for this agent, attached at spawn
	// and opaque to the pursuit logic.
	Handle interface{}

	Active bool
}

// NewAgent creates an active agent at the given spawn point, facing the
// world center by default-ish zero yaw.
func NewAgent(id string, p Personality, instance int, spawn geom.Vec3) *Agent {
	return &Agent{
		ID:          id,
		Personality: p,
		Instance:    instance,
		Position:    spawn,
		Active:      true,
	}
}

// Apply stores a resolver verdict on the agent for the coming Step.
func (a *Agent) Apply(res Resolution) {
	a.Target = res.Target
	a.Speed = res.Speed
	a.CaptureEligible = res.CaptureEligible
}

// Step advances the agent toward its target: seek steering on the ground
// plane at the resolved speed, clamped so a step never overshoots, with
// yaw turning toward the travel heading at the fixed rate.
func (a *Agent) Step(dt float64, cfg config.PursuitConfig) {
	if !a.Active || dt <= 0 {
		return
	}

	to := a.Target.Sub(a.Position)
	to.Y = 0 // agents walk the street, the scene graph settles height
	dist := a.Position.HorizontalDistance(a.Target)

	if dist > 1e-9 {
		step := a.Speed * dt
		if step > dist {
			step = dist
		}
		a.Position = a.Position.Add(to.Scale(step / dist))

		heading := geom.Heading(a.Position, a.Target, a.Rotation)
		a.Rotation = geom.StepAngle(a.Rotation, heading, cfg.TurnRate*dt)
	}
}

// CaptureCheck returns the first active player within the capture radius,
// in input order. The caller is responsible for gating on phase and
// eligibility; this is pure geometry.
func (a *Agent) CaptureCheck(players []PlayerState, radius float64) (PlayerState, bool) {
	for _, p := range players {
		if p.Incapacitated {
			continue
		}
		if a.Position.HorizontalDistance(p.Position) <= radius {
			return p, true
		}
	}
	return PlayerState{}, false
}
