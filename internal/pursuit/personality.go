// Package pursuit drives the adversarial agent population: a global
// scatter/chase phase clock, a smell-driven population budget, and a pure
// targeting resolver with four personality strategies. Everything here is
// deterministic given its inputs; the package never reads the network and
// never touches economic state.
package pursuit

import (
	"city-chase/internal/config"
	"city-chase/internal/geom"
)

// Personality selects one of the four fixed pursuit strategies.
type Personality uint8

const (
	// PersonalityChaser runs straight at the nearest player.
	PersonalityChaser Personality = iota
	// PersonalityAmbusher aims ahead of where the nearest player is facing.
	PersonalityAmbusher
	// PersonalityPincer mirrors the ambush point through the chaser to
	// close a flank.
	PersonalityPincer
	// PersonalityErratic chases from afar but loses its nerve up close.
	PersonalityErratic

	personalityCount
)

// String returns the human-readable personality name.
func (p Personality) String() string {
	switch p {
	case PersonalityChaser:
		return "chaser"
	case PersonalityAmbusher:
		return "ambusher"
	case PersonalityPincer:
		return "pincer"
	case PersonalityErratic:
		return "erratic"
	default:
		return "unknown"
	}
}

// AllPersonalities returns the four personalities in roster order.
func AllPersonalities() [4]Personality {
	return [4]Personality{
		PersonalityChaser,
		PersonalityAmbusher,
		PersonalityPincer,
		PersonalityErratic,
	}
}

// HomeCorner maps a personality to its retreat corner index, for spawn
// placement.
func HomeCorner(p Personality) int {
	return p.homeCorner()
}

// homeCorner maps each personality to its retreat corner index.
// Corner order: 0=NE, 1=NW, 2=SE, 3=SW (see worldCorners).
func (p Personality) homeCorner() int {
	switch p {
	case PersonalityChaser:
		return 0
	case PersonalityAmbusher:
		return 1
	case PersonalityPincer:
		return 2
	case PersonalityErratic:
		return 3
	default:
		return 0
	}
}

// worldCorners returns the four scatter corners inset from the world edge.
func worldCorners(world config.WorldConfig) [4]geom.Vec3 {
	m := world.CornerMargin
	return [4]geom.Vec3{
		{X: world.Width - m, Z: world.Depth - m}, // NE
		{X: m, Z: world.Depth - m},               // NW
		{X: world.Width - m, Z: m},               // SE
		{X: m, Z: m},                             // SW
	}
}
