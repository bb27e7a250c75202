package entity

import (
	"strings"
	"time"
)

// MasteryTier is a coarse classification of how well-learned an item is.
// The ordering is meaningful: planners sort less-mastered items first.
type MasteryTier int32

const (
	MasteryNotLearned MasteryTier = iota
	MasteryLearning
	MasteryFamiliar
	MasteryMastered
)

// String returns the lowercase label used in storage and transport.
func (t MasteryTier) String() string {
	switch t {
	case MasteryLearning:
		return "learning"
	case MasteryFamiliar:
		return "familiar"
	case MasteryMastered:
		return "mastered"
	default:
		return "not_learned"
	}
}

// ParseMasteryTier converts a storage/transport label back into a MasteryTier.
func ParseMasteryTier(s string) MasteryTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "learning":
		return MasteryLearning
	case "familiar":
		return MasteryFamiliar
	case "mastered":
		return MasteryMastered
	default:
		return MasteryNotLearned
	}
}

// RewardBonus maps the tier to the XP mastery bonus.
func (t MasteryTier) RewardBonus() float64 {
	switch t {
	case MasteryFamiliar:
		return 1.2
	case MasteryMastered:
		return 1.5
	default:
		return 1.0
	}
}

// Scheduling defaults for freshly created progress records.
const (
	DefaultEaseFactor   = 2.5
	MinEaseFactor       = 1.3
	DefaultIntervalDays = 1
)

// ProgressRecord is the per-(learner, item) scheduling state. It is created
// lazily on the first attempt and mutated exclusively through the interval
// scheduler. NextReviewAt is nil until the item has been scheduled once.
type ProgressRecord struct {
	ID              int64
	LearnerID       int64
	ItemID          int64
	Tier            MasteryTier
	CorrectAttempts int32
	TotalAttempts   int32
	EaseFactor      float64
	Repetitions     int32
	IntervalDays    int32
	LapseCount      int32
	Streak          int32
	LastSeenAt      time.Time
	NextReviewAt    *time.Time
	// Version is the optimistic concurrency token checked by Upsert.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProgressRecord returns the default-initialized state for a first attempt.
func NewProgressRecord(learnerID, itemID int64) *ProgressRecord {
	return &ProgressRecord{
		LearnerID:    learnerID,
		ItemID:       itemID,
		Tier:         MasteryNotLearned,
		EaseFactor:   DefaultEaseFactor,
		IntervalDays: DefaultIntervalDays,
	}
}

// Accuracy is the running correct/total ratio, 0 when no attempts exist.
func (p *ProgressRecord) Accuracy() float64 {
	if p.TotalAttempts <= 0 {
		return 0
	}
	return float64(p.CorrectAttempts) / float64(p.TotalAttempts)
}

// Due reports whether the record should appear in a review queue at now.
// Never-scheduled records are always due.
func (p *ProgressRecord) Due(now time.Time) bool {
	return p.NextReviewAt == nil || !p.NextReviewAt.After(now)
}

// Normalize ensures defaults & constraints before persistence.
func (p *ProgressRecord) Normalize(now time.Time) {
	if p.EaseFactor < MinEaseFactor {
		p.EaseFactor = MinEaseFactor
	}
	if p.IntervalDays < 1 {
		p.IntervalDays = DefaultIntervalDays
	}
	if p.Repetitions < 0 {
		p.Repetitions = 0
	}
	if p.CorrectAttempts > p.TotalAttempts {
		p.CorrectAttempts = p.TotalAttempts
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}
