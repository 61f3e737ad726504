package pursuit

import (
	"math"

	"city-chase/internal/config"
	"city-chase/internal/geom"
)

// PlayerState is the resolver's read-only view of one player: the
// reconciled pose for remotes, the locally authored pose for the local
// player. Incapacitated players are invisible to targeting so the pack
// moves on to someone it can still catch.
type PlayerState struct {
	ID            string
	Position      geom.Vec3
	Facing        float64 // yaw in radians
	Incapacitated bool
}

// Resolution is the resolver's verdict for one agent for one step.
type Resolution struct {
	Target          geom.Vec3
	Speed           float64
	CaptureEligible bool
}

// Resolver maps (agent, phase, players, siblings) to a target point, a
// speed, and capture eligibility. It is a pure function of its arguments
// plus fixed tuning; the same inputs always produce the same verdict, which
// is what makes the four strategies property-testable side by side.
type Resolver struct {
	cfg     config.PursuitConfig
	corners [4]geom.Vec3
}

// NewResolver builds a resolver for the given world footprint.
func NewResolver(cfg config.PursuitConfig, world config.WorldConfig) *Resolver {
	return &Resolver{cfg: cfg, corners: worldCorners(world)}
}

// Corner returns the scatter corner at the given index, for inspection.
func (r *Resolver) Corner(i int) geom.Vec3 {
	return r.corners[i&3]
}

// Resolve computes the agent's target for this step. speedBonus is the
// tier multiplier the budget engine applies to the chaser personality.
func (r *Resolver) Resolve(agent *Agent, phase Phase, players []PlayerState, siblings []*Agent, speedBonus float64) Resolution {
	switch agent.Personality {
	case PersonalityAmbusher:
		return r.resolveAmbusher(agent, phase, players)
	case PersonalityPincer:
		return r.resolvePincer(agent, phase, players, siblings)
	case PersonalityErratic:
		return r.resolveErratic(agent, phase, players)
	default:
		// Unknown tags degrade to the direct pursuer rather than halting.
		return r.resolveChaser(agent, phase, players, speedBonus)
	}
}

// resolveChaser: chase → nearest player's current position; scatter → the
// fixed home corner. The chaser is the only personality that carries the
// tier speed bonus.
func (r *Resolver) resolveChaser(agent *Agent, phase Phase, players []PlayerState, speedBonus float64) Resolution {
	if phase != PhaseChase {
		return r.retreat(agent, 0)
	}
	prey, ok := nearestPlayer(agent.Position, players)
	if !ok {
		return r.retreat(agent, 0)
	}
	return Resolution{
		Target:          prey.Position,
		Speed:           r.cfg.BaseSpeed * speedBonus,
		CaptureEligible: true,
	}
}

// resolveAmbusher: chase → a point ahead of the nearest player along their
// facing; scatter → corners rotated by instance index so two ambushers
// never pile into the same corner.
func (r *Resolver) resolveAmbusher(agent *Agent, phase Phase, players []PlayerState) Resolution {
	if phase != PhaseChase {
		return r.retreat(agent, agent.Instance)
	}
	prey, ok := nearestPlayer(agent.Position, players)
	if !ok {
		return r.retreat(agent, agent.Instance)
	}
	return Resolution{
		Target:          aheadOf(prey, r.cfg.AmbushLead),
		Speed:           r.cfg.BaseSpeed,
		CaptureEligible: true,
	}
}

// resolvePincer: chase → mirror the lead point through the chaser sibling
// (instance 0), producing an emergent flank; without a chaser sibling the
// pincer falls back to plain ambusher behavior. Scatter → whichever corner
// currently has the largest minimum distance to any player.
func (r *Resolver) resolvePincer(agent *Agent, phase Phase, players []PlayerState, siblings []*Agent) Resolution {
	if phase != PhaseChase {
		return Resolution{
			Target: r.safestCorner(players),
			Speed:  r.cfg.ScatterSpeed,
		}
	}
	prey, ok := nearestPlayer(agent.Position, players)
	if !ok {
		return Resolution{
			Target: r.safestCorner(players),
			Speed:  r.cfg.ScatterSpeed,
		}
	}

	chaser := findChaserSibling(siblings)
	if chaser == nil {
		return r.resolveAmbusher(agent, phase, players)
	}

	pivot := aheadOf(prey, r.cfg.PincerLead)
	// Reflect the chaser through the pivot: target = pivot + (pivot - chaser).
	mirrored := pivot.Add(pivot.Sub(chaser.Position))
	return Resolution{
		Target:          mirrored,
		Speed:           r.cfg.BaseSpeed,
		CaptureEligible: true,
	}
}

// resolveErratic: chase like a chaser while far away, but inside the break
// range flee to the home corner and give up capture eligibility.
func (r *Resolver) resolveErratic(agent *Agent, phase Phase, players []PlayerState) Resolution {
	if phase != PhaseChase {
		return r.retreat(agent, 0)
	}
	prey, ok := nearestPlayer(agent.Position, players)
	if !ok {
		return r.retreat(agent, 0)
	}
	if agent.Position.HorizontalDistance(prey.Position) > r.cfg.ErraticRange {
		return Resolution{
			Target:          prey.Position,
			Speed:           r.cfg.BaseSpeed,
			CaptureEligible: true,
		}
	}
	return r.retreat(agent, 0)
}

// retreat sends the agent to its home corner, rotated by the given
// instance offset, never capture-eligible.
func (r *Resolver) retreat(agent *Agent, rotateBy int) Resolution {
	idx := (agent.Personality.homeCorner() + rotateBy) & 3
	return Resolution{
		Target: r.corners[idx],
		Speed:  r.cfg.ScatterSpeed,
	}
}

// safestCorner returns the corner whose minimum distance to any active
// player is largest. With no players every corner is equally safe and the
// first wins.
func (r *Resolver) safestCorner(players []PlayerState) geom.Vec3 {
	best := r.corners[0]
	bestScore := -1.0
	for _, corner := range r.corners {
		score := math.MaxFloat64
		for _, p := range players {
			if p.Incapacitated {
				continue
			}
			if d := corner.HorizontalDistance(p.Position); d < score {
				score = d
			}
		}
		if score == math.MaxFloat64 {
			score = 0
		}
		if score > bestScore {
			bestScore = score
			best = corner
		}
	}
	return best
}

// nearestPlayer returns the closest active player on the ground plane.
// Ties keep the first-encountered player, so ordering of the input slice
// is the tiebreak.
func nearestPlayer(from geom.Vec3, players []PlayerState) (PlayerState, bool) {
	var best PlayerState
	bestDist := math.MaxFloat64
	found := false
	for _, p := range players {
		if p.Incapacitated {
			continue
		}
		if d := from.HorizontalDistance(p.Position); d < bestDist {
			bestDist = d
			best = p
			found = true
		}
	}
	return best, found
}

// findChaserSibling returns the chaser with instance index 0, or nil.
func findChaserSibling(siblings []*Agent) *Agent {
	for _, s := range siblings {
		if s != nil && s.Active && s.Personality == PersonalityChaser && s.Instance == 0 {
			return s
		}
	}
	return nil
}

// aheadOf projects a point lead units in front of the player's facing.
func aheadOf(p PlayerState, lead float64) geom.Vec3 {
	return geom.Vec3{
		X: p.Position.X + math.Cos(p.Facing)*lead,
		Y: p.Position.Y,
		Z: p.Position.Z + math.Sin(p.Facing)*lead,
	}
}
