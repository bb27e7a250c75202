package srs

import (
	"testing"

	"github.com/eslsoft/wordpace/internal/entity"
)

func TestRewardIncorrectEarnsNothing(t *testing.T) {
	got := Reward(entity.DifficultyAdvanced, entity.MasteryMastered, 10, false)
	if got != 0 {
		t.Errorf("incorrect attempt rewarded %d XP", got)
	}
}

func TestRewardComposition(t *testing.T) {
	cases := []struct {
		name       string
		difficulty entity.Difficulty
		tier       entity.MasteryTier
		streak     int32
		want       int32
	}{
		{"beginner baseline", entity.DifficultyBeginner, entity.MasteryLearning, 0, 10},
		{"intermediate", entity.DifficultyIntermediate, entity.MasteryLearning, 0, 15},
		{"advanced familiar", entity.DifficultyAdvanced, entity.MasteryFamiliar, 0, 24},
		{"advanced mastered", entity.DifficultyAdvanced, entity.MasteryMastered, 0, 30},
		{"streak bonus kicks in at three", entity.DifficultyBeginner, entity.MasteryLearning, 3, 12},
		{"capped streak", entity.DifficultyAdvanced, entity.MasteryMastered, 50, 48},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Reward(tc.difficulty, tc.tier, tc.streak, true)
			if got != tc.want {
				t.Errorf("Reward(%v, %v, %d) = %d, want %d", tc.difficulty, tc.tier, tc.streak, got, tc.want)
			}
		})
	}
}

func TestStreakBonusMonotone(t *testing.T) {
	prev := 0.0
	for streak := int32(0); streak <= 30; streak++ {
		bonus := StreakBonus(streak)
		if bonus < prev {
			t.Fatalf("streak %d: bonus %v shrank below %v", streak, bonus, prev)
		}
		if streak < 3 && bonus != 1.0 {
			t.Errorf("streak %d: bonus %v, want no bonus below 3", streak, bonus)
		}
		prev = bonus
	}
}
