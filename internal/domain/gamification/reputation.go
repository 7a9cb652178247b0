package gamification

import "math"

// ComputeReputation derives a reputation score from accumulated XP.
// Growth is sub-linear so early trades matter more than late ones.
func ComputeReputation(totalXP int) float64 {
	if totalXP <= 0 {
		return 0
	}
	return math.Round(math.Sqrt(float64(totalXP))*100) / 100
}
