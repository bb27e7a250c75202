package repository

import (
	"context"

	"github.com/eslsoft/wordpace/internal/entity"
)

// AttemptRepository persists the append-only attempt log.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *entity.AttemptRecord) (*entity.AttemptRecord, error)
	// ListRecent returns the learner's latest attempts, newest first.
	ListRecent(ctx context.Context, learnerID int64, limit int32) ([]*entity.AttemptRecord, error)
}

// MistakeRepository persists classified mistakes for incorrect attempts.
type MistakeRepository interface {
	CreateBatch(ctx context.Context, mistakes []*entity.MistakeRecord) error
	ListByAttempt(ctx context.Context, attemptID int64) ([]*entity.MistakeRecord, error)
}
