package srs

import (
	"time"

	"github.com/eslsoft/wordpace/internal/entity"
)

// onScheduleWindowDays is how many truncated calendar days a review may
// deviate from its scheduled date and still extend the streak.
const onScheduleWindowDays = 1

// NextStreak computes the learner's streak after an attempt, from the state
// recorded before the attempt. A correct review within one day of its
// scheduled date continues the streak; a correct review far off schedule (or
// a first-ever review) starts a new streak at 1; an incorrect attempt resets
// it to 0.
func NextStreak(progress *entity.ProgressRecord, correct bool, now time.Time) int32 {
	if !correct {
		return 0
	}
	if progress == nil || progress.NextReviewAt == nil {
		return 1
	}
	if onSchedule(*progress.NextReviewAt, now) {
		return progress.Streak + 1
	}
	return 1
}

// onSchedule truncates the millisecond difference to whole calendar days, so
// a review 1.01 days past due still counts as on time while 2.0 days does
// not. The truncation quirk is intentional and covered by tests.
func onSchedule(scheduled, now time.Time) bool {
	days := int64(now.Sub(scheduled) / (24 * time.Hour))
	return days >= -onScheduleWindowDays && days <= onScheduleWindowDays
}
