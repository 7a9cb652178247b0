// Package gamification contains the XP and leveling domain model for TradeYa.
// This is the core of the reward system - no external dependencies beyond uuid.
package gamification

import (
	"fmt"
	"math"
)

// LevelTier describes one level's XP interval. Intervals are inclusive on
// both ends, contiguous, and together cover [0, +inf). The final tier is
// open-ended and uses MaxXP = math.MaxInt as its upper bound.
type LevelTier struct {
	Level int
	MinXP int
	MaxXP int
	Title string
}

// IsOpenEnded returns true for the final, unbounded tier.
func (t LevelTier) IsOpenEnded() bool {
	return t.MaxXP == math.MaxInt
}

// Contains reports whether totalXP falls inside this tier's interval.
func (t LevelTier) Contains(totalXP int) bool {
	return totalXP >= t.MinXP && totalXP <= t.MaxXP
}

// Tiers is the static ordered level table. Thresholds mirror the reward
// curve of the web application: early levels are quick, later levels are
// long grinds that reward sustained trading activity.
var Tiers = []LevelTier{
	{Level: 1, MinXP: 0, MaxXP: 100, Title: "Newcomer"},
	{Level: 2, MinXP: 101, MaxXP: 250, Title: "Trader"},
	{Level: 3, MinXP: 251, MaxXP: 500, Title: "Collaborator"},
	{Level: 4, MinXP: 501, MaxXP: 1000, Title: "Specialist"},
	{Level: 5, MinXP: 1001, MaxXP: 2500, Title: "Expert"},
	{Level: 6, MinXP: 2501, MaxXP: 5000, Title: "Mentor"},
	{Level: 7, MinXP: 5001, MaxXP: math.MaxInt, Title: "Legend"},
}

// MaxLevel is the highest reachable level.
var MaxLevel = Tiers[len(Tiers)-1].Level

// ValidateTiers checks that the tier table is ordered, contiguous and
// non-overlapping, covering [0, +inf). Called from tests; a broken table is
// a programming error, not a runtime condition.
func ValidateTiers(tiers []LevelTier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("tier table is empty")
	}
	if tiers[0].MinXP != 0 {
		return fmt.Errorf("first tier must start at 0, got %d", tiers[0].MinXP)
	}
	for i, t := range tiers {
		if t.MinXP > t.MaxXP {
			return fmt.Errorf("tier %d: minXP %d > maxXP %d", t.Level, t.MinXP, t.MaxXP)
		}
		if i > 0 {
			prev := tiers[i-1]
			if t.Level != prev.Level+1 {
				return fmt.Errorf("tier levels not sequential at level %d", t.Level)
			}
			if t.MinXP != prev.MaxXP+1 {
				return fmt.Errorf("gap or overlap between tier %d and %d", prev.Level, t.Level)
			}
		}
	}
	if !tiers[len(tiers)-1].IsOpenEnded() {
		return fmt.Errorf("final tier must be open-ended")
	}
	return nil
}
