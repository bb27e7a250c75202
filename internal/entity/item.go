package entity

import (
	"strings"
	"time"
)

// Difficulty is the editorial difficulty tier assigned to a learning item.
type Difficulty int32

const (
	DifficultyBeginner Difficulty = iota
	DifficultyIntermediate
	DifficultyAdvanced
)

// String returns the lowercase name used in storage and transport.
func (d Difficulty) String() string {
	switch d {
	case DifficultyIntermediate:
		return "intermediate"
	case DifficultyAdvanced:
		return "advanced"
	default:
		return "beginner"
	}
}

// ParseDifficulty converts a storage/transport label back into a Difficulty.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intermediate":
		return DifficultyIntermediate
	case "advanced":
		return DifficultyAdvanced
	default:
		return DifficultyBeginner
	}
}

// RewardMultiplier maps the tier to the XP multiplier used by reward computation.
func (d Difficulty) RewardMultiplier() float64 {
	switch d {
	case DifficultyIntermediate:
		return 1.5
	case DifficultyAdvanced:
		return 2.0
	default:
		return 1.0
	}
}

// ComplexityProfile holds per-mistake-type language-complexity coefficients
// for an item. A zero coefficient disables the corresponding check for the
// item; values above 1 mark the sub-skill as harder than baseline.
type ComplexityProfile struct {
	Article  float64
	Phonetic float64
	Compound float64
	Case     float64
}

// Coefficient returns the multiplier applied to the base severity of the
// given mistake type. Types without a per-item coefficient scale by 1.
func (p ComplexityProfile) Coefficient(t MistakeType) float64 {
	switch t {
	case MistakeArticle:
		return p.Article
	case MistakePhonetic:
		return p.Phonetic
	case MistakeCompound:
		return p.Compound
	case MistakeCase:
		return p.Case
	default:
		return 1
	}
}

// LearningItem is an atomic fact to be learned: a term/translation pair with
// its language profile. Items are immutable once created.
type LearningItem struct {
	ID          int64
	Term        string
	Translation string
	Language    Language
	Difficulty  Difficulty
	Complexity  ComplexityProfile
	CreatedAt   time.Time
}

// Normalize ensures defaults & constraints before persistence.
func (it *LearningItem) Normalize(now time.Time) {
	it.Term = strings.TrimSpace(it.Term)
	it.Translation = strings.TrimSpace(it.Translation)
	it.Language = NormalizeLanguage(it.Language)
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
}
