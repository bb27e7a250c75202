package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eslsoft/wordpace/internal/entity"
	"github.com/eslsoft/wordpace/internal/repository"
)

type sessionFixture struct {
	progress *fakeProgressRepo
	attempts *fakeAttemptRepo
	uc       SessionUsecase
}

func newSessionFixture(t *testing.T, now time.Time) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		progress: newFakeProgressRepo(),
		attempts: newFakeAttemptRepo(),
	}
	f.uc = NewSessionUsecase(f.progress, f.attempts)
	impl := f.uc.(*sessionUsecase)
	impl.clock = func() time.Time { return now }
	return f
}

func (f *sessionFixture) seedProgress(t *testing.T, learnerID, itemID int64, nextReview *time.Time) {
	t.Helper()
	rec := entity.NewProgressRecord(learnerID, itemID)
	rec.Tier = entity.MasteryLearning
	rec.NextReviewAt = nextReview
	if _, err := f.progress.Upsert(context.Background(), rec); err != nil {
		t.Fatalf("seed progress: %v", err)
	}
}

func (f *sessionFixture) seedAttempt(t *testing.T, learnerID int64, correct bool, responseMs int32, at time.Time) {
	t.Helper()
	_, err := f.attempts.Create(context.Background(), &entity.AttemptRecord{
		LearnerID:      learnerID,
		ItemID:         1,
		Correct:        correct,
		ResponseTimeMs: responseMs,
		CreatedAt:      at,
	})
	if err != nil {
		t.Fatalf("seed attempt: %v", err)
	}
}

func TestBuildQueueOrdersDueRecords(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	f := newSessionFixture(t, now)

	overdue := now.Add(-48 * time.Hour)
	future := now.Add(72 * time.Hour)
	f.seedProgress(t, 7, 1, &overdue)
	f.seedProgress(t, 7, 2, &future)
	f.seedProgress(t, 7, 3, nil) // never scheduled, always due
	f.seedProgress(t, 8, 4, &overdue)

	queue, err := f.uc.BuildQueue(context.Background(), 7, 0)
	if err != nil {
		t.Fatalf("BuildQueue: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("queue length = %d, want 2", len(queue))
	}
	if queue[0].ItemID != 3 || queue[1].ItemID != 1 {
		t.Errorf("queue order = [%d, %d], want [3, 1]", queue[0].ItemID, queue[1].ItemID)
	}
}

func TestBuildQueueHonorsLimit(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	f := newSessionFixture(t, now)

	overdue := now.Add(-time.Hour)
	for itemID := int64(1); itemID <= 4; itemID++ {
		f.seedProgress(t, 7, itemID, &overdue)
	}

	queue, err := f.uc.BuildQueue(context.Background(), 7, 2)
	if err != nil {
		t.Fatalf("BuildQueue: %v", err)
	}
	if len(queue) != 2 {
		t.Errorf("queue length = %d, want 2", len(queue))
	}
}

func TestBuildQueueInvalidLearner(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	f := newSessionFixture(t, now)

	if _, err := f.uc.BuildQueue(context.Background(), 0, 10); !errors.Is(err, entity.ErrInvalidLearnerID) {
		t.Errorf("err = %v, want ErrInvalidLearnerID", err)
	}
}

func TestRecommendSessionSizeWithoutHistory(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	f := newSessionFixture(t, now)

	size, err := f.uc.RecommendSessionSize(context.Background(), 7)
	if err != nil {
		t.Fatalf("RecommendSessionSize: %v", err)
	}
	if size != 10 {
		t.Errorf("size = %d, want the default 10", size)
	}
}

func TestRecommendSessionSizeFastAccurateLearner(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	f := newSessionFixture(t, now)

	for i := 0; i < 10; i++ {
		f.seedAttempt(t, 7, true, 2000, now.Add(-time.Duration(i)*time.Minute))
	}

	size, err := f.uc.RecommendSessionSize(context.Background(), 7)
	if err != nil {
		t.Fatalf("RecommendSessionSize: %v", err)
	}
	if size != 20 {
		t.Errorf("size = %d, want 20 for fast fully-accurate history", size)
	}
}

func TestRecommendSessionSizeInvalidLearner(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	f := newSessionFixture(t, now)

	if _, err := f.uc.RecommendSessionSize(context.Background(), -1); !errors.Is(err, entity.ErrInvalidLearnerID) {
		t.Errorf("err = %v, want ErrInvalidLearnerID", err)
	}
}

func TestListProgressDelegates(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	f := newSessionFixture(t, now)
	f.seedProgress(t, 7, 1, nil)
	f.seedProgress(t, 7, 2, nil)

	records, total, err := f.uc.ListProgress(context.Background(), &repository.ListProgressQuery{LearnerID: 7})
	if err != nil {
		t.Fatalf("ListProgress: %v", err)
	}
	if total != 2 || len(records) != 2 {
		t.Errorf("got %d records (total %d), want 2", len(records), total)
	}
}
