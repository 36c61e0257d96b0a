package casestudies

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps case studies in process. It backs tests and the
// memory store backend used for local development.
type MemoryRepository struct {
	mu    sync.RWMutex
	items []CaseStudy
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Insert(ctx context.Context, item CaseStudy) (CaseStudy, error) {
	if err := ctx.Err(); err != nil {
		return CaseStudy{}, err
	}
	item = cloneItem(item)
	item.ID = uuid.NewString()

	r.mu.Lock()
	r.items = append(r.items, item)
	r.mu.Unlock()
	return cloneItem(item), nil
}

func (r *MemoryRepository) Find(ctx context.Context, q Query) ([]CaseStudy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(q.Apply(r.items)), nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (CaseStudy, error) {
	if err := ctx.Err(); err != nil {
		return CaseStudy{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.ID == id {
			return cloneItem(item), nil
		}
	}
	return CaseStudy{}, ErrNotFound
}

// Facets scans every record; fine for the sizes this store is used with.
func (r *MemoryRepository) Facets(ctx context.Context) (Facets, error) {
	if err := ctx.Err(); err != nil {
		return Facets{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return DeriveFacets(r.items), nil
}

func cloneItem(item CaseStudy) CaseStudy {
	item.AWSServices = slices.Clone(item.AWSServices)
	if item.MRR != nil {
		v := *item.MRR
		item.MRR = &v
	}
	return item
}

func cloneAll(items []CaseStudy) []CaseStudy {
	out := make([]CaseStudy, len(items))
	for i, item := range items {
		out[i] = cloneItem(item)
	}
	return out
}
