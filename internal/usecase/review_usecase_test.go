package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/eslsoft/wordpace/internal/entity"
)

type reviewFixture struct {
	items    *fakeItemRepo
	progress *fakeProgressRepo
	attempts *fakeAttemptRepo
	mistakes *fakeMistakeRepo
	uc       ReviewUsecase
}

func newReviewFixture(t *testing.T, now time.Time) *reviewFixture {
	t.Helper()
	f := &reviewFixture{
		items:    newFakeItemRepo(),
		progress: newFakeProgressRepo(),
		attempts: newFakeAttemptRepo(),
		mistakes: newFakeMistakeRepo(),
	}
	f.uc = NewReviewUsecase(f.items, f.progress, f.attempts, f.mistakes, DefaultReviewConfig())
	impl := f.uc.(*reviewUsecase)
	impl.clock = func() time.Time { return now }
	return f
}

func (f *reviewFixture) seedItem(t *testing.T, item *entity.LearningItem) *entity.LearningItem {
	t.Helper()
	created, err := f.items.Create(context.Background(), item)
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return created
}

func TestRecordAttemptFirstCorrect(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newReviewFixture(t, now)
	item := f.seedItem(t, &entity.LearningItem{
		Term:        "Katze",
		Translation: "die Katze",
		Language:    entity.LanguageGerman,
	})

	result, err := f.uc.RecordAttempt(context.Background(), &AttemptInput{
		LearnerID:      7,
		ItemID:         item.ID,
		Correct:        true,
		GivenAnswer:    "die Katze",
		ResponseTimeMs: 2000,
	})
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	if result.Quality != 5 {
		t.Errorf("quality = %d, want 5", result.Quality)
	}
	p := result.Progress
	if p.Repetitions != 1 {
		t.Errorf("repetitions = %d, want 1", p.Repetitions)
	}
	if p.IntervalDays != 1 {
		t.Errorf("interval = %d, want 1", p.IntervalDays)
	}
	if p.Tier != entity.MasteryLearning {
		t.Errorf("tier = %v, want learning", p.Tier)
	}
	if p.Streak != 1 {
		t.Errorf("streak = %d, want 1", p.Streak)
	}
	if p.TotalAttempts != 1 || p.CorrectAttempts != 1 {
		t.Errorf("counters = %d/%d, want 1/1", p.CorrectAttempts, p.TotalAttempts)
	}
	if math.Abs(p.EaseFactor-entity.DefaultEaseFactor) > 1e-9 {
		t.Errorf("ease = %v, want %v", p.EaseFactor, entity.DefaultEaseFactor)
	}
	if p.NextReviewAt == nil || !p.NextReviewAt.Equal(now.AddDate(0, 0, 1)) {
		t.Errorf("next review = %v, want %v", p.NextReviewAt, now.AddDate(0, 0, 1))
	}
	if p.Version != 1 {
		t.Errorf("version = %d, want 1", p.Version)
	}
	if !result.StreakExtended {
		t.Error("expected streak extension on first correct attempt")
	}
	if result.XP != 10 {
		t.Errorf("xp = %d, want 10", result.XP)
	}
	if result.MistakeCount != 0 {
		t.Errorf("mistake count = %d, want 0", result.MistakeCount)
	}
	if len(f.attempts.attempts) != 1 {
		t.Fatalf("attempts persisted = %d, want 1", len(f.attempts.attempts))
	}
	if len(f.mistakes.mistakes) != 0 {
		t.Errorf("mistakes persisted = %d, want 0", len(f.mistakes.mistakes))
	}
}

func TestRecordAttemptIncorrectPersistsMistakes(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newReviewFixture(t, now)
	item := f.seedItem(t, &entity.LearningItem{
		Term:        "Katze",
		Translation: "die Katze",
		Language:    entity.LanguageGerman,
		Complexity:  entity.ComplexityProfile{Article: 1.2},
	})

	result, err := f.uc.RecordAttempt(context.Background(), &AttemptInput{
		LearnerID:      7,
		ItemID:         item.ID,
		Correct:        false,
		GivenAnswer:    "der Katze",
		ResponseTimeMs: 4000,
	})
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	if result.Quality != 2 {
		t.Errorf("quality = %d, want 2", result.Quality)
	}
	if result.MistakeCount != 1 {
		t.Fatalf("mistake count = %d, want 1", result.MistakeCount)
	}
	if result.XP != 0 {
		t.Errorf("xp = %d, want 0 for incorrect attempt", result.XP)
	}
	p := result.Progress
	if p.Repetitions != 0 {
		t.Errorf("repetitions = %d, want reset to 0", p.Repetitions)
	}
	if p.LapseCount != 1 {
		t.Errorf("lapses = %d, want 1", p.LapseCount)
	}
	if p.Streak != 0 {
		t.Errorf("streak = %d, want 0", p.Streak)
	}
	if p.Tier != entity.MasteryLearning {
		t.Errorf("tier = %v, want learning", p.Tier)
	}

	attemptID := f.attempts.attempts[0].ID
	persisted, err := f.mistakes.ListByAttempt(context.Background(), attemptID)
	if err != nil {
		t.Fatalf("ListByAttempt: %v", err)
	}
	if len(persisted) != 1 {
		t.Fatalf("mistakes for attempt = %d, want 1", len(persisted))
	}
	m := persisted[0]
	if m.Type != entity.MistakeArticle {
		t.Errorf("mistake type = %v, want article", m.Type)
	}
	if math.Abs(m.Severity-0.96) > 1e-9 {
		t.Errorf("severity = %v, want 0.96", m.Severity)
	}
	if m.LearnerID != 7 || m.ItemID != item.ID {
		t.Errorf("mistake scoped to %d/%d, want 7/%d", m.LearnerID, m.ItemID, item.ID)
	}
}

func TestRecordAttemptOnScheduleExtendsStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	f := newReviewFixture(t, now)
	item := f.seedItem(t, &entity.LearningItem{
		Term:        "Haus",
		Translation: "house",
		Language:    entity.LanguageGerman,
	})

	scheduled := now.Add(-2 * time.Hour)
	seed := entity.NewProgressRecord(7, item.ID)
	seed.Tier = entity.MasteryLearning
	seed.Repetitions = 2
	seed.TotalAttempts = 2
	seed.CorrectAttempts = 2
	seed.IntervalDays = 6
	seed.Streak = 2
	seed.NextReviewAt = &scheduled
	if _, err := f.progress.Upsert(context.Background(), seed); err != nil {
		t.Fatalf("seed progress: %v", err)
	}

	result, err := f.uc.RecordAttempt(context.Background(), &AttemptInput{
		LearnerID:      7,
		ItemID:         item.ID,
		Correct:        true,
		GivenAnswer:    "house",
		ResponseTimeMs: 3000,
	})
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	p := result.Progress
	if p.Streak != 3 {
		t.Errorf("streak = %d, want 3", p.Streak)
	}
	if !result.StreakExtended {
		t.Error("expected streak extension for on-schedule review")
	}
	if p.Repetitions != 3 {
		t.Errorf("repetitions = %d, want 3", p.Repetitions)
	}
	// Quality 5 lifts the ease factor to 2.6, so the interval is round(6*2.6).
	if p.IntervalDays != 16 {
		t.Errorf("interval = %d, want 16", p.IntervalDays)
	}
	if math.Abs(p.EaseFactor-2.6) > 1e-9 {
		t.Errorf("ease = %v, want 2.6", p.EaseFactor)
	}
	if p.Tier != entity.MasteryFamiliar {
		t.Errorf("tier = %v, want familiar", p.Tier)
	}
	if p.Version != 2 {
		t.Errorf("version = %d, want 2", p.Version)
	}
	// 10 * 1.0 (beginner) * 1.2 (familiar) * 1.15 (streak 3) rounds to 14.
	if result.XP != 14 {
		t.Errorf("xp = %d, want 14", result.XP)
	}
}

func TestRecordAttemptMissingItem(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newReviewFixture(t, now)

	_, err := f.uc.RecordAttempt(context.Background(), &AttemptInput{
		LearnerID: 7,
		ItemID:    42,
		Correct:   true,
	})
	if !errors.Is(err, entity.ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}
	if len(f.attempts.attempts) != 0 {
		t.Errorf("attempts persisted = %d, want none", len(f.attempts.attempts))
	}
	if len(f.progress.items) != 0 {
		t.Errorf("progress persisted = %d, want none", len(f.progress.items))
	}
}

func TestRecordAttemptConflictSurfaces(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newReviewFixture(t, now)
	item := f.seedItem(t, &entity.LearningItem{
		Term:        "Haus",
		Translation: "house",
		Language:    entity.LanguageGerman,
	})
	f.progress.conflictNext = true

	_, err := f.uc.RecordAttempt(context.Background(), &AttemptInput{
		LearnerID: 7,
		ItemID:    item.ID,
		Correct:   true,
	})
	if !errors.Is(err, entity.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if len(f.attempts.attempts) != 0 {
		t.Errorf("attempts persisted = %d, want none after conflict", len(f.attempts.attempts))
	}
}

func TestRecordAttemptInvalidInput(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newReviewFixture(t, now)

	inputs := []*AttemptInput{
		nil,
		{LearnerID: 0, ItemID: 1},
		{LearnerID: 1, ItemID: 0},
		{LearnerID: -3, ItemID: 5},
	}
	for _, input := range inputs {
		if _, err := f.uc.RecordAttempt(context.Background(), input); !errors.Is(err, entity.ErrInvalidAttempt) {
			t.Errorf("input %+v: err = %v, want ErrInvalidAttempt", input, err)
		}
	}
}

func TestRecordAttemptClampsNegativeTimings(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newReviewFixture(t, now)
	item := f.seedItem(t, &entity.LearningItem{
		Term:        "Haus",
		Translation: "house",
		Language:    entity.LanguageGerman,
	})

	result, err := f.uc.RecordAttempt(context.Background(), &AttemptInput{
		LearnerID:      7,
		ItemID:         item.ID,
		Correct:        true,
		GivenAnswer:    "house",
		ResponseTimeMs: -500,
		HintsUsed:      -2,
	})
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if result.Quality != 5 {
		t.Errorf("quality = %d, want 5 after clamping", result.Quality)
	}
	stored := f.attempts.attempts[0]
	if stored.ResponseTimeMs != 0 || stored.HintsUsed != 0 {
		t.Errorf("persisted attempt = %d ms / %d hints, want 0/0", stored.ResponseTimeMs, stored.HintsUsed)
	}
}
