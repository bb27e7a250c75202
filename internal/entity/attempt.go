package entity

import "time"

// AttemptRecord is an immutable append-only log entry for one exercise attempt.
type AttemptRecord struct {
	ID             int64
	LearnerID      int64
	ItemID         int64
	SessionID      string
	Correct        bool
	ResponseTimeMs int32
	HintsUsed      int32
	Exercise       string
	CreatedAt      time.Time
}
