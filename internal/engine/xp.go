package engine

import "math"

// Profile level curve: the total XP needed to stand at level L is 500 * L^1.5.
const (
	levelCurveCoef = 500.0
	MaxLevel       = 999
)

// XPRequiredForLevel returns the total XP threshold for level. Level 0 needs nothing.
func XPRequiredForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	level = min(level, MaxLevel+1)
	// Ceil so float error never lowers a threshold.
	return int(math.Ceil(levelCurveCoef * math.Pow(float64(level), 1.5)))
}

// LevelForTotalXP inverts the curve: the highest level whose threshold totalXP meets.
func LevelForTotalXP(totalXP int) int {
	if totalXP <= 0 {
		return 0
	}
	guess := int(math.Cbrt(math.Pow(float64(totalXP)/levelCurveCoef, 2)))
	level := min(max(guess, 0), MaxLevel)
	for level > 0 && XPRequiredForLevel(level) > totalXP {
		level--
	}
	for level < MaxLevel && XPRequiredForLevel(level+1) <= totalXP {
		level++
	}
	return level
}

// LevelProgress splits total XP into the current level and the XP still needed for the next.
func LevelProgress(totalXP int) (level, next, toGo int) {
	level = LevelForTotalXP(totalXP)
	next = XPRequiredForLevel(level + 1)
	toGo = max(next-totalXP, 0)
	return level, next, toGo
}
