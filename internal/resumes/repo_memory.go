package resumes

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Record
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID: make(map[string]Record),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Insert stores the record.
func (r *MemoryRepo) Insert(ctx context.Context, rec NewRecord) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	out := Record{
		ID:              rec.ID,
		Name:            rec.Name,
		ResumeURL:       rec.ResumeURL,
		SummaryOfResume: rec.SummaryOfResume,
		StructuredData:  rec.StructuredData,
		CreatedAt:       r.now(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[out.ID] = out
	return out, nil
}

// GetByID returns a record by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// List returns records newest first, with limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)

	r.mu.RLock()
	all := make([]Record, 0, len(r.byID))
	for _, rec := range r.byID {
		all = append(all, rec)
	}
	r.mu.RUnlock()

	if offset >= len(all) {
		return []Record{}, nil
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	end := len(all)
	if offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

// Len reports how many records are stored.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

var _ Repo = (*MemoryRepo)(nil)
