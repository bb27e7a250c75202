package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/wordpace/internal/entity"
	"github.com/eslsoft/wordpace/internal/repository"
)

const uniqueViolation = "23505"

type itemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository builds the PostgreSQL-backed item repository.
func NewItemRepository(pool *pgxpool.Pool) repository.ItemRepository {
	return &itemRepository{pool: pool}
}

const itemColumns = `id, term, translation, language, difficulty,
	complexity_article, complexity_phonetic, complexity_compound, complexity_case, created_at`

func (r *itemRepository) Create(ctx context.Context, item *entity.LearningItem) (*entity.LearningItem, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO learning_items
			(term, translation, language, difficulty,
			 complexity_article, complexity_phonetic, complexity_compound, complexity_case, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+itemColumns,
		item.Term, item.Translation, item.Language.Code(), item.Difficulty.String(),
		item.Complexity.Article, item.Complexity.Phonetic, item.Complexity.Compound, item.Complexity.Case,
		item.CreatedAt,
	)
	created, err := scanItem(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, entity.ErrDuplicateItem
		}
		return nil, fmt.Errorf("insert learning item: %w", err)
	}
	return created, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*entity.LearningItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM learning_items WHERE id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrItemNotFound
		}
		return nil, fmt.Errorf("get learning item: %w", err)
	}
	return item, nil
}

func (r *itemRepository) FindByTerm(ctx context.Context, term string, lang entity.Language) (*entity.LearningItem, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM learning_items
		WHERE lower(term) = $1 AND language = $2`,
		entity.NormalizeTerm(term), entity.NormalizeLanguage(lang).Code(),
	)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find learning item by term: %w", err)
	}
	return item, nil
}

func (r *itemRepository) List(ctx context.Context, query *repository.ListItemQuery) ([]entity.LearningItem, int64, error) {
	where, args, err := buildWhere(query.GetFilter(), itemSchema())
	if err != nil {
		return nil, 0, err
	}
	if query.Language != entity.LanguageUnspecified {
		args = append(args, query.Language.Code())
		where = append(where, fmt.Sprintf("language = $%d", len(args)))
	}
	orderBy, err := parseOrder(query.GetOrderBy(), itemSchema())
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM learning_items`+whereClause(where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count learning items: %w", err)
	}

	sql := `SELECT ` + itemColumns + ` FROM learning_items` + whereClause(where) +
		` ORDER BY ` + orderBy + limitOffset(&args, query.Pagination)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list learning items: %w", err)
	}
	defer rows.Close()

	var items []entity.LearningItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan learning item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func scanItem(row pgx.Row) (*entity.LearningItem, error) {
	var (
		item       entity.LearningItem
		language   string
		difficulty string
	)
	err := row.Scan(
		&item.ID, &item.Term, &item.Translation, &language, &difficulty,
		&item.Complexity.Article, &item.Complexity.Phonetic, &item.Complexity.Compound, &item.Complexity.Case,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Language = entity.ParseLanguage(language)
	item.Difficulty = entity.ParseDifficulty(difficulty)
	return &item, nil
}
