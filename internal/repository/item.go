package repository

import (
	"context"

	"github.com/eslsoft/wordpace/internal/entity"
)

// ListItemQuery holds parameters for listing learning items.
type ListItemQuery struct {
	Pagination
	FilterOrder

	Language entity.Language
}

// ItemRepository abstracts persistence for learning items. Items are owned by
// content management; this subsystem only reads them, plus bulk-creates
// through the importer.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.LearningItem) (*entity.LearningItem, error)
	GetByID(ctx context.Context, id int64) (*entity.LearningItem, error)
	FindByTerm(ctx context.Context, term string, lang entity.Language) (*entity.LearningItem, error)
	List(ctx context.Context, query *ListItemQuery) ([]entity.LearningItem, int64, error)
}
