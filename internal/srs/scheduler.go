package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/eslsoft/wordpace/internal/entity"
)

// PassThreshold is the minimum quality treated as a successful recall.
const PassThreshold = 3

// SchedulerConfig carries every tunable of the interval computation. All
// values are passed in explicitly; the scheduler reads no ambient state.
type SchedulerConfig struct {
	// LapsePenalty is subtracted from the ease factor on a failed recall.
	LapsePenalty float64
	// FamiliarMinReps / FamiliarAccuracy gate the LEARNING -> FAMILIAR promotion.
	FamiliarMinReps  int32
	FamiliarAccuracy float64
	// MasteredMinReps / MasteredMinIntervalDays / MasteredAccuracy gate the
	// FAMILIAR -> MASTERED promotion.
	MasteredMinReps         int32
	MasteredMinIntervalDays int32
	MasteredAccuracy        float64
	// AdjustmentCap bounds the product of the three interval multipliers.
	AdjustmentCap float64
}

// DefaultSchedulerConfig returns the tuning used in production.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		LapsePenalty:            0.2,
		FamiliarMinReps:         2,
		FamiliarAccuracy:        0.7,
		MasteredMinReps:         5,
		MasteredMinIntervalDays: 21,
		MasteredAccuracy:        0.85,
		AdjustmentCap:           3.0,
	}
}

// Adjustments are the per-attempt multipliers and interval bounds supplied by
// the orchestration layer.
type Adjustments struct {
	ComplexityWeight    float64
	MistakeTypeWeight   float64
	TimeSpentMultiplier float64
	MinimumIntervalDays int32
	MaximumIntervalDays int32
}

// DefaultAdjustments returns neutral multipliers with the given interval bounds.
func DefaultAdjustments(minDays, maxDays int32) Adjustments {
	return Adjustments{
		ComplexityWeight:    1,
		MistakeTypeWeight:   1,
		TimeSpentMultiplier: 1,
		MinimumIntervalDays: minDays,
		MaximumIntervalDays: maxDays,
	}
}

// ScheduleResult is the fresh scheduling state computed for one attempt. The
// caller owns merging it into the progress record and persisting.
type ScheduleResult struct {
	EaseFactor   float64
	Repetitions  int32
	IntervalDays int32
	Tier         entity.MasteryTier
	LapseCount   int32
	NextReviewAt time.Time
}

// Scheduler is the SM-2-derived interval computation. It is deterministic,
// side-effect-free and safe for concurrent use.
type Scheduler struct {
	cfg SchedulerConfig
}

// NewScheduler builds a scheduler with the given tuning; zero-valued fields
// fall back to the defaults.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	def := DefaultSchedulerConfig()
	if cfg.LapsePenalty <= 0 {
		cfg.LapsePenalty = def.LapsePenalty
	}
	if cfg.FamiliarMinReps <= 0 {
		cfg.FamiliarMinReps = def.FamiliarMinReps
	}
	if cfg.FamiliarAccuracy <= 0 {
		cfg.FamiliarAccuracy = def.FamiliarAccuracy
	}
	if cfg.MasteredMinReps <= 0 {
		cfg.MasteredMinReps = def.MasteredMinReps
	}
	if cfg.MasteredMinIntervalDays <= 0 {
		cfg.MasteredMinIntervalDays = def.MasteredMinIntervalDays
	}
	if cfg.MasteredAccuracy <= 0 {
		cfg.MasteredAccuracy = def.MasteredAccuracy
	}
	if cfg.AdjustmentCap <= 0 {
		cfg.AdjustmentCap = def.AdjustmentCap
	}
	return &Scheduler{cfg: cfg}
}

// Schedule computes the next scheduling state from the prior progress record,
// the attempt's quality rating and the adjustment multipliers. The progress
// counters (correct/total) are expected to already include the current
// attempt, so the running accuracy reflects it. The input record is not
// mutated.
func (s *Scheduler) Schedule(progress *entity.ProgressRecord, quality int32, adj Adjustments, now time.Time) (ScheduleResult, error) {
	if progress == nil {
		return ScheduleResult{}, fmt.Errorf("%w: progress record required", entity.ErrInvalidConfiguration)
	}
	if adj.MinimumIntervalDays < 1 {
		adj.MinimumIntervalDays = 1
	}
	if adj.MaximumIntervalDays < adj.MinimumIntervalDays {
		return ScheduleResult{}, fmt.Errorf("%w: maximum interval %d below minimum %d",
			entity.ErrInvalidConfiguration, adj.MaximumIntervalDays, adj.MinimumIntervalDays)
	}
	if quality < 0 {
		quality = 0
	}
	if quality > 5 {
		quality = 5
	}

	result := ScheduleResult{
		EaseFactor: progress.EaseFactor,
		LapseCount: progress.LapseCount,
	}
	if result.EaseFactor < entity.MinEaseFactor {
		result.EaseFactor = entity.MinEaseFactor
	}

	if quality < PassThreshold {
		// Lapse: regress the schedule and relearn from the floor.
		result.Repetitions = 0
		result.EaseFactor -= s.cfg.LapsePenalty
		if result.EaseFactor < entity.MinEaseFactor {
			result.EaseFactor = entity.MinEaseFactor
		}
		result.IntervalDays = adj.MinimumIntervalDays
		result.LapseCount++
		result.Tier = entity.MasteryLearning
	} else {
		result.Repetitions = progress.Repetitions + 1
		result.EaseFactor = nextEase(result.EaseFactor, quality)

		var base float64
		switch result.Repetitions {
		case 1:
			base = 1
		case 2:
			base = 6
		default:
			base = float64(progress.IntervalDays) * result.EaseFactor
		}
		base *= s.multiplier(adj)

		interval := int32(math.Round(base))
		if interval < adj.MinimumIntervalDays {
			interval = adj.MinimumIntervalDays
		}
		if interval > adj.MaximumIntervalDays {
			interval = adj.MaximumIntervalDays
		}
		result.IntervalDays = interval
		result.Tier = s.promote(progress, result)
	}

	result.NextReviewAt = now.AddDate(0, 0, int(result.IntervalDays))
	return result, nil
}

// nextEase applies the classic SM-2 ease update, floored at the minimum.
func nextEase(ease float64, quality int32) float64 {
	q := float64(quality)
	ease += 0.1 - (5-q)*(0.08+(5-q)*0.02)
	if ease < entity.MinEaseFactor {
		ease = entity.MinEaseFactor
	}
	return ease
}

// multiplier combines the three adjustment weights, treating non-positive
// inputs as neutral and capping the product.
func (s *Scheduler) multiplier(adj Adjustments) float64 {
	m := 1.0
	for _, w := range []float64{adj.ComplexityWeight, adj.MistakeTypeWeight, adj.TimeSpentMultiplier} {
		if w > 0 {
			m *= w
		}
	}
	if m > s.cfg.AdjustmentCap {
		m = s.cfg.AdjustmentCap
	}
	return m
}

func (s *Scheduler) promote(progress *entity.ProgressRecord, result ScheduleResult) entity.MasteryTier {
	tier := progress.Tier
	if tier == entity.MasteryNotLearned {
		tier = entity.MasteryLearning
	}
	accuracy := progress.Accuracy()
	if tier == entity.MasteryLearning &&
		result.Repetitions >= s.cfg.FamiliarMinReps &&
		accuracy >= s.cfg.FamiliarAccuracy {
		tier = entity.MasteryFamiliar
	}
	if tier == entity.MasteryFamiliar &&
		result.Repetitions >= s.cfg.MasteredMinReps &&
		result.IntervalDays >= s.cfg.MasteredMinIntervalDays &&
		accuracy >= s.cfg.MasteredAccuracy {
		tier = entity.MasteryMastered
	}
	return tier
}
