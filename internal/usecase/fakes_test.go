package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eslsoft/wordpace/internal/entity"
	"github.com/eslsoft/wordpace/internal/repository"
)

type fakeItemRepo struct {
	mu    sync.RWMutex
	seq   int64
	items map[int64]*entity.LearningItem
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[int64]*entity.LearningItem)}
}

func (r *fakeItemRepo) Create(ctx context.Context, item *entity.LearningItem) (*entity.LearningItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	copy := *item
	copy.ID = r.seq
	r.items[copy.ID] = &copy
	out := copy
	return &out, nil
}

func (r *fakeItemRepo) GetByID(ctx context.Context, id int64) (*entity.LearningItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, entity.ErrItemNotFound
	}
	copy := *item
	return &copy, nil
}

func (r *fakeItemRepo) FindByTerm(ctx context.Context, term string, lang entity.Language) (*entity.LearningItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if entity.NormalizeTerm(item.Term) == entity.NormalizeTerm(term) && item.Language == entity.NormalizeLanguage(lang) {
			copy := *item
			return &copy, nil
		}
	}
	return nil, nil
}

func (r *fakeItemRepo) List(ctx context.Context, query *repository.ListItemQuery) ([]entity.LearningItem, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.LearningItem
	for _, item := range r.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

type progressKey struct {
	learnerID int64
	itemID    int64
}

type fakeProgressRepo struct {
	mu    sync.RWMutex
	seq   int64
	items map[progressKey]*entity.ProgressRecord

	// conflictNext makes the next Upsert fail with ErrConflict, simulating a
	// lost optimistic-concurrency race.
	conflictNext bool
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{items: make(map[progressKey]*entity.ProgressRecord)}
}

func cloneProgress(src *entity.ProgressRecord) *entity.ProgressRecord {
	if src == nil {
		return nil
	}
	copy := *src
	if src.NextReviewAt != nil {
		next := *src.NextReviewAt
		copy.NextReviewAt = &next
	}
	return &copy
}

func (r *fakeProgressRepo) Get(ctx context.Context, learnerID, itemID int64) (*entity.ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneProgress(r.items[progressKey{learnerID, itemID}]), nil
}

func (r *fakeProgressRepo) Upsert(ctx context.Context, record *entity.ProgressRecord) (*entity.ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictNext {
		r.conflictNext = false
		return nil, entity.ErrConflict
	}
	key := progressKey{record.LearnerID, record.ItemID}
	existing, ok := r.items[key]
	copy := cloneProgress(record)
	if !ok {
		r.seq++
		copy.ID = r.seq
		copy.Version = 1
	} else {
		if existing.Version != record.Version {
			return nil, entity.ErrConflict
		}
		copy.ID = existing.ID
		copy.Version = existing.Version + 1
	}
	r.items[key] = copy
	return cloneProgress(copy), nil
}

func (r *fakeProgressRepo) AllByLearner(ctx context.Context, learnerID int64) ([]*entity.ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.ProgressRecord
	for _, rec := range r.items {
		if rec.LearnerID == learnerID {
			out = append(out, cloneProgress(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (r *fakeProgressRepo) List(ctx context.Context, query *repository.ListProgressQuery) ([]entity.ProgressRecord, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	records, err := r.AllByLearner(ctx, query.LearnerID)
	if err != nil {
		return nil, 0, err
	}
	out := make([]entity.ProgressRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, *rec)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProgressRepo) CountDue(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, rec := range r.items {
		if rec.Due(now) {
			count++
		}
	}
	return count, nil
}

type fakeAttemptRepo struct {
	mu       sync.RWMutex
	seq      int64
	attempts []*entity.AttemptRecord
}

func newFakeAttemptRepo() *fakeAttemptRepo { return &fakeAttemptRepo{} }

func (r *fakeAttemptRepo) Create(ctx context.Context, attempt *entity.AttemptRecord) (*entity.AttemptRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	copy := *attempt
	copy.ID = r.seq
	r.attempts = append(r.attempts, &copy)
	out := copy
	return &out, nil
}

func (r *fakeAttemptRepo) ListRecent(ctx context.Context, learnerID int64, limit int32) ([]*entity.AttemptRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.AttemptRecord
	for i := len(r.attempts) - 1; i >= 0; i-- {
		if r.attempts[i].LearnerID != learnerID {
			continue
		}
		copy := *r.attempts[i]
		out = append(out, &copy)
		if limit > 0 && int32(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

type fakeMistakeRepo struct {
	mu       sync.RWMutex
	seq      int64
	mistakes []*entity.MistakeRecord
}

func newFakeMistakeRepo() *fakeMistakeRepo { return &fakeMistakeRepo{} }

func (r *fakeMistakeRepo) CreateBatch(ctx context.Context, mistakes []*entity.MistakeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range mistakes {
		r.seq++
		copy := *m
		copy.ID = r.seq
		r.mistakes = append(r.mistakes, &copy)
	}
	return nil
}

func (r *fakeMistakeRepo) ListByAttempt(ctx context.Context, attemptID int64) ([]*entity.MistakeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.MistakeRecord
	for _, m := range r.mistakes {
		if m.AttemptID == attemptID {
			copy := *m
			out = append(out, &copy)
		}
	}
	return out, nil
}
