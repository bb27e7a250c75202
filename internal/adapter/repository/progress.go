package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/wordpace/internal/entity"
	"github.com/eslsoft/wordpace/internal/repository"
)

type progressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository builds the PostgreSQL-backed progress repository.
func NewProgressRepository(pool *pgxpool.Pool) repository.ProgressRepository {
	return &progressRepository{pool: pool}
}

const progressColumns = `id, learner_id, item_id, tier, correct_attempts, total_attempts,
	ease_factor, repetitions, interval_days, lapse_count, streak,
	last_seen_at, next_review_at, version, created_at, updated_at`

func (r *progressRepository) Get(ctx context.Context, learnerID, itemID int64) (*entity.ProgressRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+progressColumns+`
		FROM progress_records
		WHERE learner_id = $1 AND item_id = $2`,
		learnerID, itemID,
	)
	record, err := scanProgress(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get progress record: %w", err)
	}
	return record, nil
}

// Upsert inserts a fresh record or updates an existing one guarded by the
// version column. A second writer racing on the same (learner, item) pair
// loses with entity.ErrConflict and retries from Get.
func (r *progressRepository) Upsert(ctx context.Context, record *entity.ProgressRecord) (*entity.ProgressRecord, error) {
	if record.ID == 0 {
		row := r.pool.QueryRow(ctx, `
			INSERT INTO progress_records
				(learner_id, item_id, tier, correct_attempts, total_attempts,
				 ease_factor, repetitions, interval_days, lapse_count, streak,
				 last_seen_at, next_review_at, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, $13, $14)
			ON CONFLICT (learner_id, item_id) DO NOTHING
			RETURNING `+progressColumns,
			record.LearnerID, record.ItemID, record.Tier.String(),
			record.CorrectAttempts, record.TotalAttempts,
			record.EaseFactor, record.Repetitions, record.IntervalDays, record.LapseCount, record.Streak,
			record.LastSeenAt, record.NextReviewAt, record.CreatedAt, record.UpdatedAt,
		)
		created, err := scanProgress(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Another writer created the row first.
				return nil, entity.ErrConflict
			}
			return nil, fmt.Errorf("insert progress record: %w", err)
		}
		return created, nil
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE progress_records
		SET tier = $1, correct_attempts = $2, total_attempts = $3,
			ease_factor = $4, repetitions = $5, interval_days = $6,
			lapse_count = $7, streak = $8, last_seen_at = $9,
			next_review_at = $10, updated_at = $11, version = version + 1
		WHERE id = $12 AND version = $13
		RETURNING `+progressColumns,
		record.Tier.String(), record.CorrectAttempts, record.TotalAttempts,
		record.EaseFactor, record.Repetitions, record.IntervalDays,
		record.LapseCount, record.Streak, record.LastSeenAt,
		record.NextReviewAt, record.UpdatedAt,
		record.ID, record.Version,
	)
	updated, err := scanProgress(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrConflict
		}
		return nil, fmt.Errorf("update progress record: %w", err)
	}
	return updated, nil
}

func (r *progressRepository) AllByLearner(ctx context.Context, learnerID int64) ([]*entity.ProgressRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+progressColumns+`
		FROM progress_records
		WHERE learner_id = $1
		ORDER BY item_id`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list progress records: %w", err)
	}
	defer rows.Close()
	return collectProgress(rows)
}

func (r *progressRepository) List(ctx context.Context, query *repository.ListProgressQuery) ([]entity.ProgressRecord, int64, error) {
	where, args, err := buildWhere(query.GetFilter(), progressSchema())
	if err != nil {
		return nil, 0, err
	}
	args = append(args, query.LearnerID)
	where = append(where, fmt.Sprintf("learner_id = $%d", len(args)))

	orderBy, err := parseOrder(query.GetOrderBy(), progressSchema())
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM progress_records`+whereClause(where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count progress records: %w", err)
	}

	sql := `SELECT ` + progressColumns + ` FROM progress_records` + whereClause(where) +
		` ORDER BY ` + orderBy + limitOffset(&args, query.Pagination)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list progress records: %w", err)
	}
	defer rows.Close()

	records, err := collectProgress(rows)
	if err != nil {
		return nil, 0, err
	}
	out := make([]entity.ProgressRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, *rec)
	}
	return out, total, nil
}

func (r *progressRepository) CountDue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM progress_records
		WHERE next_review_at IS NULL OR next_review_at <= $1`,
		now,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count due records: %w", err)
	}
	return count, nil
}

func scanProgress(row pgx.Row) (*entity.ProgressRecord, error) {
	var (
		record entity.ProgressRecord
		tier   string
	)
	err := row.Scan(
		&record.ID, &record.LearnerID, &record.ItemID, &tier,
		&record.CorrectAttempts, &record.TotalAttempts,
		&record.EaseFactor, &record.Repetitions, &record.IntervalDays,
		&record.LapseCount, &record.Streak,
		&record.LastSeenAt, &record.NextReviewAt, &record.Version,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Tier = entity.ParseMasteryTier(tier)
	return &record, nil
}

func collectProgress(rows pgx.Rows) ([]*entity.ProgressRecord, error) {
	var records []*entity.ProgressRecord
	for rows.Next() {
		record, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
