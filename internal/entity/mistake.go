package entity

import (
	"strings"
	"time"
)

// MistakeType classifies what went wrong in an incorrect answer.
type MistakeType int32

const (
	MistakeUnclassified MistakeType = iota
	MistakeArticle
	MistakeDiacritic
	MistakeCompound
	MistakeCase
	MistakePhonetic
	MistakeVisual
	MistakeCapitalization
)

// String returns the lowercase label used in storage and transport.
func (t MistakeType) String() string {
	switch t {
	case MistakeArticle:
		return "article"
	case MistakeDiacritic:
		return "diacritic"
	case MistakeCompound:
		return "compound"
	case MistakeCase:
		return "case"
	case MistakePhonetic:
		return "phonetic"
	case MistakeVisual:
		return "visual"
	case MistakeCapitalization:
		return "capitalization"
	default:
		return "unclassified"
	}
}

// ParseMistakeType converts a storage/transport label back into a MistakeType.
func ParseMistakeType(s string) MistakeType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "article":
		return MistakeArticle
	case "diacritic":
		return MistakeDiacritic
	case "compound":
		return MistakeCompound
	case "case":
		return MistakeCase
	case "phonetic":
		return MistakePhonetic
	case "visual":
		return MistakeVisual
	case "capitalization":
		return MistakeCapitalization
	default:
		return MistakeUnclassified
	}
}

// BaseSeverity is the language-independent severity of the mistake type,
// scaled later by the item's complexity coefficient.
func (t MistakeType) BaseSeverity() float64 {
	switch t {
	case MistakeArticle:
		return 0.8
	case MistakeDiacritic:
		return 0.7
	case MistakeCompound:
		return 0.7
	case MistakeCase:
		return 0.75
	case MistakePhonetic:
		return 0.6
	case MistakeVisual:
		return 0.5
	case MistakeCapitalization:
		return 0.3
	default:
		return 0.5
	}
}

// MistakeRecord is one classified mistake observed on an incorrect attempt.
// Records are immutable once written.
type MistakeRecord struct {
	ID            int64
	AttemptID     int64
	LearnerID     int64
	ItemID        int64
	Type          MistakeType
	Severity      float64
	CorrectAnswer string
	GivenAnswer   string
	CreatedAt     time.Time
}
