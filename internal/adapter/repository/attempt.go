package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/wordpace/internal/entity"
	"github.com/eslsoft/wordpace/internal/repository"
)

type attemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository builds the PostgreSQL-backed attempt log.
func NewAttemptRepository(pool *pgxpool.Pool) repository.AttemptRepository {
	return &attemptRepository{pool: pool}
}

const attemptColumns = `id, learner_id, item_id, session_id, correct, response_time_ms, hints_used, exercise, created_at`

func (r *attemptRepository) Create(ctx context.Context, attempt *entity.AttemptRecord) (*entity.AttemptRecord, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO attempt_records
			(learner_id, item_id, session_id, correct, response_time_ms, hints_used, exercise, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+attemptColumns,
		attempt.LearnerID, attempt.ItemID, attempt.SessionID, attempt.Correct,
		attempt.ResponseTimeMs, attempt.HintsUsed, attempt.Exercise, attempt.CreatedAt,
	)
	created, err := scanAttempt(row)
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	return created, nil
}

func (r *attemptRepository) ListRecent(ctx context.Context, learnerID int64, limit int32) ([]*entity.AttemptRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+attemptColumns+`
		FROM attempt_records
		WHERE learner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		learnerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*entity.AttemptRecord
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

func scanAttempt(row pgx.Row) (*entity.AttemptRecord, error) {
	var attempt entity.AttemptRecord
	err := row.Scan(
		&attempt.ID, &attempt.LearnerID, &attempt.ItemID, &attempt.SessionID,
		&attempt.Correct, &attempt.ResponseTimeMs, &attempt.HintsUsed,
		&attempt.Exercise, &attempt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

type mistakeRepository struct {
	pool *pgxpool.Pool
}

// NewMistakeRepository builds the PostgreSQL-backed mistake log.
func NewMistakeRepository(pool *pgxpool.Pool) repository.MistakeRepository {
	return &mistakeRepository{pool: pool}
}

func (r *mistakeRepository) CreateBatch(ctx context.Context, mistakes []*entity.MistakeRecord) error {
	if len(mistakes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range mistakes {
		batch.Queue(`
			INSERT INTO mistake_records
				(attempt_id, learner_id, item_id, mistake_type, severity, correct_answer, given_answer, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			m.AttemptID, m.LearnerID, m.ItemID, m.Type.String(), m.Severity,
			m.CorrectAnswer, m.GivenAnswer, m.CreatedAt,
		)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range mistakes {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert mistakes: %w", err)
		}
	}
	return nil
}

func (r *mistakeRepository) ListByAttempt(ctx context.Context, attemptID int64) ([]*entity.MistakeRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, attempt_id, learner_id, item_id, mistake_type, severity, correct_answer, given_answer, created_at
		FROM mistake_records
		WHERE attempt_id = $1
		ORDER BY id`,
		attemptID,
	)
	if err != nil {
		return nil, fmt.Errorf("list mistakes: %w", err)
	}
	defer rows.Close()

	var mistakes []*entity.MistakeRecord
	for rows.Next() {
		var (
			m       entity.MistakeRecord
			typeStr string
		)
		if err := rows.Scan(
			&m.ID, &m.AttemptID, &m.LearnerID, &m.ItemID, &typeStr,
			&m.Severity, &m.CorrectAnswer, &m.GivenAnswer, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan mistake: %w", err)
		}
		m.Type = entity.ParseMistakeType(typeStr)
		mistakes = append(mistakes, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return mistakes, nil
}
