package srs

import (
	"math"

	"github.com/eslsoft/wordpace/internal/entity"
)

// Streak bonus tuning: no bonus below three reviews in a row, then capped
// linear growth.
const (
	streakBonusMinStreak = 3
	streakBonusStep      = 0.05
	streakBonusCapStreak = 12
)

// Reward computes the XP awarded for an attempt from the item difficulty, the
// post-attempt mastery tier and streak. Incorrect attempts earn nothing.
func Reward(difficulty entity.Difficulty, tier entity.MasteryTier, streak int32, correct bool) int32 {
	if !correct {
		return 0
	}
	xp := 10 * difficulty.RewardMultiplier() * tier.RewardBonus() * StreakBonus(streak)
	return int32(math.Round(xp))
}

// StreakBonus is a monotone multiplier over the streak length.
func StreakBonus(streak int32) float64 {
	if streak < streakBonusMinStreak {
		return 1.0
	}
	if streak > streakBonusCapStreak {
		streak = streakBonusCapStreak
	}
	return 1.0 + streakBonusStep*float64(streak)
}
