package repository

import (
	"context"
	"time"

	"github.com/eslsoft/wordpace/internal/entity"
)

// ListProgressQuery holds parameters for listing a learner's progress records.
type ListProgressQuery struct {
	Pagination
	FilterOrder

	LearnerID int64
}

// ProgressRepository abstracts persistence for per-(learner, item) scheduling
// state. Get returns (nil, nil) when no record exists yet so callers can
// default-initialize lazily. Upsert enforces the optimistic version check:
// updating a record whose stored version no longer matches returns
// entity.ErrConflict, and the caller retries the whole read-compute-write
// sequence.
type ProgressRepository interface {
	Get(ctx context.Context, learnerID, itemID int64) (*entity.ProgressRecord, error)
	Upsert(ctx context.Context, record *entity.ProgressRecord) (*entity.ProgressRecord, error)
	// AllByLearner returns a snapshot of every record for the learner, used
	// by session planning. Staleness of a few seconds is acceptable.
	AllByLearner(ctx context.Context, learnerID int64) ([]*entity.ProgressRecord, error)
	List(ctx context.Context, query *ListProgressQuery) ([]entity.ProgressRecord, int64, error)
	CountDue(ctx context.Context, now time.Time) (int64, error)
}
