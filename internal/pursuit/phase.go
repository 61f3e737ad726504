package pursuit

import "city-chase/internal/config"

// Phase is the single global pursuit mode. Every agent observes the same
// value within one simulation step.
type Phase uint8

const (
	// PhaseScatter sends all agents to their retreat corners.
	PhaseScatter Phase = iota
	// PhaseChase sends all agents after the players.
	PhaseChase
)

// String returns the human-readable phase name.
func (p Phase) String() string {
	if p == PhaseChase {
		return "chase"
	}
	return "scatter"
}

// PhaseClock cycles the global phase between scatter and chase on fixed
// dwell times. The clock only starts ticking once agents first exist; an
// empty city has nothing to scatter.
type PhaseClock struct {
	cfg       config.PursuitConfig
	phase     Phase
	enteredAt float64
	started   bool
}

// NewPhaseClock creates a stopped phase clock.
func NewPhaseClock(cfg config.PursuitConfig) *PhaseClock {
	return &PhaseClock{cfg: cfg, phase: PhaseScatter}
}

// Start begins cycling at the given simulation time. Calling Start on a
// running clock is a no-op.
func (c *PhaseClock) Start(now float64) {
	if c.started {
		return
	}
	c.started = true
	c.phase = PhaseScatter
	c.enteredAt = now
}

// Update advances the clock to the given simulation time and returns the
// current phase. A long stall flips through as many dwells as elapsed so
// the phase stays aligned with wall time.
func (c *PhaseClock) Update(now float64) Phase {
	if !c.started {
		return c.phase
	}
	for {
		dwell := c.cfg.ScatterDwell
		if c.phase == PhaseChase {
			dwell = c.cfg.ChaseDwell
		}
		if now-c.enteredAt < dwell {
			return c.phase
		}
		c.enteredAt += dwell
		if c.phase == PhaseScatter {
			c.phase = PhaseChase
		} else {
			c.phase = PhaseScatter
		}
	}
}

// Phase returns the current phase without advancing the clock.
func (c *PhaseClock) Phase() Phase {
	return c.phase
}

// EnteredAt returns the simulation time the current phase began.
func (c *PhaseClock) EnteredAt() float64 {
	return c.enteredAt
}

// Started reports whether the clock has begun cycling.
func (c *PhaseClock) Started() bool {
	return c.started
}

// Reset stops the clock and returns it to scatter, for match restarts.
func (c *PhaseClock) Reset() {
	c.phase = PhaseScatter
	c.enteredAt = 0
	c.started = false
}
