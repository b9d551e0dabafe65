package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/soochol/aihub/internal/hub"
)

// MemoryRunRepository keeps run records in process memory.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[string]*hub.RunRecord
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[string]*hub.RunRecord)}
}

func (r *MemoryRunRepository) Create(_ context.Context, rec *hub.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dup := *rec
	r.runs[rec.ID] = &dup
	return nil
}

func (r *MemoryRunRepository) Update(_ context.Context, rec *hub.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[rec.ID]; !ok {
		return ErrRunNotFound
	}
	dup := *rec
	r.runs[rec.ID] = &dup
	return nil
}

func (r *MemoryRunRepository) Get(_ context.Context, id string) (*hub.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	dup := *rec
	return &dup, nil
}

func (r *MemoryRunRepository) List(_ context.Context, family string, limit int) ([]*hub.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*hub.RunRecord
	for _, rec := range r.runs {
		if family != "" && rec.Family != family {
			continue
		}
		dup := *rec
		out = append(out, &dup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
