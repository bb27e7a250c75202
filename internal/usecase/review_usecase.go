package usecase

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/wordpace/internal/entity"
	"github.com/eslsoft/wordpace/internal/repository"
	"github.com/eslsoft/wordpace/internal/srs"
)

// ReviewConfig tunes the attempt-processing pipeline. Interval bounds are
// caller-supplied rather than ambient so the scheduler stays explicit.
type ReviewConfig struct {
	MinIntervalDays    int32
	MaxIntervalDays    int32
	ExpectedResponseMs int32
	SlowRatio          float64
	Scheduler          srs.SchedulerConfig
}

// DefaultReviewConfig returns the production tuning.
func DefaultReviewConfig() ReviewConfig {
	return ReviewConfig{
		MinIntervalDays:    1,
		MaxIntervalDays:    365,
		ExpectedResponseMs: srs.DefaultExpectedResponseMs,
		SlowRatio:          srs.DefaultSlowRatio,
		Scheduler:          srs.DefaultSchedulerConfig(),
	}
}

// AttemptInput is one learner attempt as reported by the exercise surface.
type AttemptInput struct {
	LearnerID      int64
	ItemID         int64
	SessionID      string
	Correct        bool
	GivenAnswer    string
	CorrectAnswer  string
	ResponseTimeMs int32
	HintsUsed      int32
	Exercise       string
	// ExpectedTimeMs overrides the configured expected response time when
	// positive.
	ExpectedTimeMs int32
}

// AttemptResult is the outcome of processing one attempt.
type AttemptResult struct {
	Progress       *entity.ProgressRecord
	Quality        int32
	MistakeCount   int32
	StreakExtended bool
	XP             int32
}

// ReviewUsecase orchestrates the per-attempt pipeline: classify, rate,
// schedule, update the streak and persist.
type ReviewUsecase interface {
	RecordAttempt(ctx context.Context, input *AttemptInput) (*AttemptResult, error)
}

// NewReviewUsecase wires the repositories with the pure scheduling core.
func NewReviewUsecase(
	items repository.ItemRepository,
	progress repository.ProgressRepository,
	attempts repository.AttemptRepository,
	mistakes repository.MistakeRepository,
	cfg ReviewConfig,
) ReviewUsecase {
	if cfg.MinIntervalDays <= 0 {
		cfg.MinIntervalDays = 1
	}
	if cfg.MaxIntervalDays < cfg.MinIntervalDays {
		cfg.MaxIntervalDays = DefaultReviewConfig().MaxIntervalDays
	}
	if cfg.ExpectedResponseMs <= 0 {
		cfg.ExpectedResponseMs = srs.DefaultExpectedResponseMs
	}
	return &reviewUsecase{
		items:      items,
		progress:   progress,
		attempts:   attempts,
		mistakes:   mistakes,
		cfg:        cfg,
		classifier: srs.NewClassifier(),
		rater:      srs.NewRater(cfg.SlowRatio),
		scheduler:  srs.NewScheduler(cfg.Scheduler),
		clock:      time.Now,
	}
}

type reviewUsecase struct {
	items    repository.ItemRepository
	progress repository.ProgressRepository
	attempts repository.AttemptRepository
	mistakes repository.MistakeRepository

	cfg        ReviewConfig
	classifier *srs.Classifier
	rater      *srs.Rater
	scheduler  *srs.Scheduler
	clock      func() time.Time
}

func (u *reviewUsecase) RecordAttempt(ctx context.Context, input *AttemptInput) (*AttemptResult, error) {
	if input == nil || input.LearnerID <= 0 || input.ItemID <= 0 {
		return nil, entity.ErrInvalidAttempt
	}

	item, err := u.items.GetByID(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}

	record, err := u.progress.Get(ctx, input.LearnerID, input.ItemID)
	if err != nil {
		return nil, err
	}
	now := u.clock()
	if record == nil {
		record = entity.NewProgressRecord(input.LearnerID, input.ItemID)
	}

	correctAnswer := input.CorrectAnswer
	if correctAnswer == "" {
		correctAnswer = item.Translation
	}

	var classification srs.Classification
	if !input.Correct {
		classification = u.classifier.Classify(item, correctAnswer, input.GivenAnswer, item.Language)
	} else {
		classification = srs.Classification{ComplexityWeight: srs.NeutralComplexityWeight}
	}

	expected := input.ExpectedTimeMs
	if expected <= 0 {
		expected = u.cfg.ExpectedResponseMs
	}
	quality := u.rater.Rate(input.Correct, input.HintsUsed, input.ResponseTimeMs, expected)

	// The streak looks at the schedule recorded before this attempt.
	priorStreak := record.Streak
	streak := srs.NextStreak(record, input.Correct, now)

	record.TotalAttempts++
	if input.Correct {
		record.CorrectAttempts++
	}

	adj := srs.Adjustments{
		ComplexityWeight:    classification.ComplexityWeight,
		MistakeTypeWeight:   mistakeTypeWeight(classification),
		TimeSpentMultiplier: timeSpentMultiplier(input.ResponseTimeMs, expected, u.cfg.SlowRatio),
		MinimumIntervalDays: u.cfg.MinIntervalDays,
		MaximumIntervalDays: u.cfg.MaxIntervalDays,
	}
	schedule, err := u.scheduler.Schedule(record, quality, adj, now)
	if err != nil {
		return nil, err
	}

	record.EaseFactor = schedule.EaseFactor
	record.Repetitions = schedule.Repetitions
	record.IntervalDays = schedule.IntervalDays
	record.Tier = schedule.Tier
	record.LapseCount = schedule.LapseCount
	record.Streak = streak
	record.LastSeenAt = now
	next := schedule.NextReviewAt
	record.NextReviewAt = &next
	record.Normalize(now)

	stored, err := u.progress.Upsert(ctx, record)
	if err != nil {
		return nil, err
	}

	attempt, err := u.attempts.Create(ctx, &entity.AttemptRecord{
		LearnerID:      input.LearnerID,
		ItemID:         input.ItemID,
		SessionID:      input.SessionID,
		Correct:        input.Correct,
		ResponseTimeMs: maxInt32(input.ResponseTimeMs, 0),
		HintsUsed:      maxInt32(input.HintsUsed, 0),
		Exercise:       input.Exercise,
		CreatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	if classification.HasMistakes() {
		records := lo.Map(classification.Mistakes, func(m srs.Mistake, _ int) *entity.MistakeRecord {
			return &entity.MistakeRecord{
				AttemptID:     attempt.ID,
				LearnerID:     input.LearnerID,
				ItemID:        input.ItemID,
				Type:          m.Type,
				Severity:      m.Severity,
				CorrectAnswer: correctAnswer,
				GivenAnswer:   input.GivenAnswer,
				CreatedAt:     now,
			}
		})
		if err := u.mistakes.CreateBatch(ctx, records); err != nil {
			return nil, err
		}
	}

	return &AttemptResult{
		Progress:       stored,
		Quality:        quality,
		MistakeCount:   int32(len(classification.Mistakes)),
		StreakExtended: streak > priorStreak,
		XP:             srs.Reward(item.Difficulty, stored.Tier, stored.Streak, input.Correct),
	}, nil
}

// mistakeTypeWeight dampens interval growth after attempts whose mistakes hit
// genuinely hard sub-skills: the heavier the worst mistake, the smaller the
// multiplier, floored at 0.5.
func mistakeTypeWeight(c srs.Classification) float64 {
	if !c.HasMistakes() {
		return 1
	}
	return 1 - 0.5*c.MaxSeverity()
}

// timeSpentMultiplier shrinks interval growth for answers that took notably
// longer than expected; fast answers are neutral.
func timeSpentMultiplier(responseMs, expectedMs int32, slowRatio float64) float64 {
	if responseMs <= 0 || expectedMs <= 0 {
		return 1
	}
	if slowRatio <= 1 {
		slowRatio = srs.DefaultSlowRatio
	}
	ratio := float64(responseMs) / float64(expectedMs)
	switch {
	case ratio <= 1:
		return 1
	case ratio <= slowRatio:
		return 0.95
	default:
		return 0.85
	}
}

func maxInt32(v, floor int32) int32 {
	if v < floor {
		return floor
	}
	return v
}
