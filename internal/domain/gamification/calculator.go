package gamification

// openEndedSpan is the synthetic interval width used to report progress on
// the final tier, which has no real upper bound.
const openEndedSpan = 1000

// LevelCalculation is the result of mapping cumulative XP onto the tier table.
type LevelCalculation struct {
	// CurrentLevel is the level whose interval contains the XP value.
	CurrentLevel int

	// Tier is the matched tier entry.
	Tier LevelTier

	// XPToNextLevel is how much XP is missing until the next tier starts.
	// Zero at the maximum level.
	XPToNextLevel int

	// ProgressPercentage is the position inside the current tier, in [0,100].
	ProgressPercentage float64
}

// CalculateLevel maps totalXP to its level tier. Pure and deterministic;
// both the award transaction and read-side queries go through this single
// implementation so the level formula is never duplicated.
//
// Negative input is treated as zero XP.
func CalculateLevel(totalXP int) LevelCalculation {
	if totalXP < 0 {
		totalXP = 0
	}

	tier := Tiers[0]
	idx := 0
	for i, t := range Tiers {
		if t.Contains(totalXP) {
			tier = t
			idx = i
			break
		}
	}

	xpToNext := 0
	if idx < len(Tiers)-1 {
		xpToNext = Tiers[idx+1].MinXP - totalXP
		if xpToNext < 0 {
			xpToNext = 0
		}
	}

	// For the open-ended final tier there is no real upper bound, so a
	// synthetic one keeps the percentage finite.
	tierEnd := tier.MaxXP
	if tier.IsOpenEnded() {
		tierEnd = totalXP + openEndedSpan
	}

	progress := 0.0
	if span := tierEnd - tier.MinXP; span > 0 {
		progress = float64(totalXP-tier.MinXP) / float64(span) * 100
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	return LevelCalculation{
		CurrentLevel:       tier.Level,
		Tier:               tier,
		XPToNextLevel:      xpToNext,
		ProgressPercentage: progress,
	}
}

// XPToNextLevelFromZero returns the ceiling of the first tier, used when a
// user XP record is synthesized lazily on the first award.
func XPToNextLevelFromZero() int {
	if len(Tiers) < 2 {
		return 0
	}
	return Tiers[1].MinXP
}
