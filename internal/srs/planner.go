package srs

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/wordpace/internal/entity"
)

// Session planning bounds.
const (
	DefaultQueueLimit  = 10
	MinSessionSize     = 5
	MaxSessionSize     = 20
	DefaultSessionSize = 10
	// AttemptWindow is the rolling number of recent attempts considered when
	// recommending a session size.
	AttemptWindow = 30
)

// Planner ranks due items and recommends session sizes. Both operations are
// pure functions over snapshots of a learner's progress and attempt history.
type Planner struct{}

// NewPlanner constructs the planner.
func NewPlanner() *Planner { return &Planner{} }

// DueItems selects every record due at now (never-scheduled records count as
// maximally overdue), orders them by next-review ascending with nulls first,
// breaking ties by mastery tier ascending then item ID, and truncates to
// limit. A non-positive limit falls back to DefaultQueueLimit. The input
// slice is not reordered.
func (p *Planner) DueItems(records []*entity.ProgressRecord, now time.Time, limit int32) []*entity.ProgressRecord {
	if limit <= 0 {
		limit = DefaultQueueLimit
	}

	due := lo.Filter(records, func(r *entity.ProgressRecord, _ int) bool {
		return r != nil && r.Due(now)
	})

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i], due[j]
		switch {
		case a.NextReviewAt == nil && b.NextReviewAt != nil:
			return true
		case a.NextReviewAt != nil && b.NextReviewAt == nil:
			return false
		case a.NextReviewAt != nil && b.NextReviewAt != nil:
			if !a.NextReviewAt.Equal(*b.NextReviewAt) {
				return a.NextReviewAt.Before(*b.NextReviewAt)
			}
		}
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		return a.ItemID < b.ItemID
	})

	if int32(len(due)) > limit {
		due = due[:limit]
	}
	return due
}

// OptimalSessionSize recommends how many items the next session should hold,
// from the learner's most recent attempts (newest first; only the first
// AttemptWindow entries are considered). Higher accuracy and faster answers
// yield larger sessions; the result is always within
// [MinSessionSize, MaxSessionSize], and DefaultSessionSize when no history
// exists.
func (p *Planner) OptimalSessionSize(attempts []*entity.AttemptRecord) int32 {
	if len(attempts) > AttemptWindow {
		attempts = attempts[:AttemptWindow]
	}
	if len(attempts) == 0 {
		return DefaultSessionSize
	}

	var correct int
	var totalMs int64
	for _, a := range attempts {
		if a.Correct {
			correct++
		}
		if a.ResponseTimeMs > 0 {
			totalMs += int64(a.ResponseTimeMs)
		}
	}
	accuracy := float64(correct) / float64(len(attempts))
	meanMs := float64(totalMs) / float64(len(attempts))

	size := (float64(MinSessionSize) + 15*accuracy) * speedFactor(meanMs)
	recommended := int32(math.Round(size))
	if recommended < MinSessionSize {
		recommended = MinSessionSize
	}
	if recommended > MaxSessionSize {
		recommended = MaxSessionSize
	}
	return recommended
}

// speedFactor shrinks the recommendation as mean response time grows.
func speedFactor(meanMs float64) float64 {
	switch {
	case meanMs <= 5000:
		return 1.0
	case meanMs <= 10000:
		return 0.85
	default:
		return 0.7
	}
}
