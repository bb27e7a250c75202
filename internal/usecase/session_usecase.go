package usecase

import (
	"context"
	"time"

	"github.com/eslsoft/wordpace/internal/entity"
	"github.com/eslsoft/wordpace/internal/repository"
	"github.com/eslsoft/wordpace/internal/srs"
)

// SessionUsecase plans review sessions over snapshots of a learner's progress
// and attempt history. Reads are non-blocking snapshot reads; staleness of a
// few seconds is acceptable.
type SessionUsecase interface {
	BuildQueue(ctx context.Context, learnerID int64, limit int32) ([]*entity.ProgressRecord, error)
	RecommendSessionSize(ctx context.Context, learnerID int64) (int32, error)
	ListProgress(ctx context.Context, query *repository.ListProgressQuery) ([]entity.ProgressRecord, int64, error)
}

// NewSessionUsecase wires the repositories with the session planner.
func NewSessionUsecase(progress repository.ProgressRepository, attempts repository.AttemptRepository) SessionUsecase {
	return &sessionUsecase{
		progress: progress,
		attempts: attempts,
		planner:  srs.NewPlanner(),
		clock:    time.Now,
	}
}

type sessionUsecase struct {
	progress repository.ProgressRepository
	attempts repository.AttemptRepository
	planner  *srs.Planner
	clock    func() time.Time
}

func (u *sessionUsecase) BuildQueue(ctx context.Context, learnerID int64, limit int32) ([]*entity.ProgressRecord, error) {
	if learnerID <= 0 {
		return nil, entity.ErrInvalidLearnerID
	}
	records, err := u.progress.AllByLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return u.planner.DueItems(records, u.clock(), limit), nil
}

func (u *sessionUsecase) RecommendSessionSize(ctx context.Context, learnerID int64) (int32, error) {
	if learnerID <= 0 {
		return 0, entity.ErrInvalidLearnerID
	}
	recent, err := u.attempts.ListRecent(ctx, learnerID, srs.AttemptWindow)
	if err != nil {
		return 0, err
	}
	return u.planner.OptimalSessionSize(recent), nil
}

func (u *sessionUsecase) ListProgress(ctx context.Context, query *repository.ListProgressQuery) ([]entity.ProgressRecord, int64, error) {
	return u.progress.List(ctx, query)
}
