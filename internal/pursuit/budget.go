package pursuit

// The population budget converts the externally derived smell aggregate
// into a target agent roster. Smell is read-only here: the budget engine
// decides how many hunters the city fields, never what they are hunting for.

// Roster counts agents per personality, indexed in AllPersonalities order.
type Roster [4]int

// Total returns the summed agent count across personalities.
func (r Roster) Total() int {
	n := 0
	for _, c := range r {
		n += c
	}
	return n
}

// Count returns the roster entry for one personality.
func (r Roster) Count(p Personality) int {
	if int(p) >= len(r) {
		return 0
	}
	return r[p]
}

// Tier is one smell bucket with its target roster and chaser speed bonus.
type Tier struct {
	Name       string  `json:"name"`
	Threshold  float64 `json:"threshold"` // inclusive lower smell bound
	Targets    Roster  `json:"targets"`
	SpeedBonus float64 `json:"speedBonus"` // multiplier applied to the chaser
}

// smellTiers is the fixed escalation ladder. Order matters: tiers are
// scanned from the top and the first threshold at or below the smell wins.
var smellTiers = []Tier{
	{Name: "trace", Threshold: 0, Targets: Roster{1, 0, 0, 0}, SpeedBonus: 1.0},
	{Name: "whiff", Threshold: 10, Targets: Roster{1, 1, 0, 0}, SpeedBonus: 1.0},
	{Name: "waft", Threshold: 25, Targets: Roster{1, 1, 1, 0}, SpeedBonus: 1.05},
	{Name: "reek", Threshold: 50, Targets: Roster{1, 1, 1, 1}, SpeedBonus: 1.1},
	{Name: "stench", Threshold: 100, Targets: Roster{2, 2, 1, 1}, SpeedBonus: 1.2},
}

// Budget is the resolved roster target for the current smell reading.
type Budget struct {
	Smell      float64 `json:"smell"`
	Tier       Tier    `json:"tier"`
	TierIndex  int     `json:"tierIndex"`
	SpeedBonus float64 `json:"speedBonus"`
}

// BudgetFor maps a smell aggregate to its tier. Negative readings clamp to
// the bottom tier rather than erroring; the reader is trusted but the core
// degrades instead of halting.
func BudgetFor(smell float64) Budget {
	idx := 0
	for i := len(smellTiers) - 1; i >= 0; i-- {
		if smell >= smellTiers[i].Threshold {
			idx = i
			break
		}
	}
	tier := smellTiers[idx]
	return Budget{
		Smell:      smell,
		Tier:       tier,
		TierIndex:  idx,
		SpeedBonus: tier.SpeedBonus,
	}
}

// RosterDelta returns, per personality, how many agents must be spawned to
// reach the budget target: max(0, target-current). The delta never signals
// removal — the population is a one-way ratchet within a match, so a smell
// dip mid-match leaves the streets as dangerous as they already were.
func (b Budget) RosterDelta(current Roster) Roster {
	var delta Roster
	for i := range delta {
		if d := b.Tier.Targets[i] - current[i]; d > 0 {
			delta[i] = d
		}
	}
	return delta
}

// TierCount returns the number of tiers on the escalation ladder.
func TierCount() int {
	return len(smellTiers)
}

// TierAt returns the tier definition at the given index, for inspection.
func TierAt(i int) Tier {
	return smellTiers[i]
}
