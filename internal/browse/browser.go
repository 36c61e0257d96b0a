// Package browse holds the client-side state of the case study list: the
// current filters, the last applied result and the facet options.
package browse

import (
	"context"
	"slices"
	"sync"

	"github.com/harshnakad-cyber/Finastra/internal/casestudies"
)

// Fetcher runs list and facet queries. *casestudies.Service satisfies it.
type Fetcher interface {
	List(ctx context.Context, state casestudies.FilterState) ([]casestudies.CaseStudy, error)
	Facets(ctx context.Context) casestudies.Facets
}

// View is a snapshot of the browser. Items keeps the last good result when
// the latest query failed; Err carries that failure.
type View struct {
	Filters casestudies.FilterState
	Items   []casestudies.CaseStudy
	Facets  casestudies.Facets
	Err     error
	Loading bool
}

// Browser serializes filter changes and applies query results in issue
// order. Every fetch is tagged with a sequence number; a result is applied
// only if it belongs to the most recently issued fetch. Earlier fetches are
// left to finish and their results are dropped.
type Browser struct {
	fetch Fetcher

	mu      sync.Mutex
	state   casestudies.FilterState
	issued  uint64
	applied uint64
	items   []casestudies.CaseStudy
	err     error
	facets  casestudies.Facets
}

func New(fetch Fetcher) *Browser {
	return &Browser{
		fetch:  fetch,
		state:  casestudies.DefaultFilterState(),
		facets: casestudies.Facets{}.WithDefaults(),
	}
}

// Update applies mutate to the current filters and refetches. applied
// reports whether this call's result became the visible one. An error from
// mutate leaves the browser untouched.
func (b *Browser) Update(ctx context.Context, mutate func(casestudies.FilterState) (casestudies.FilterState, error)) (View, bool, error) {
	b.mu.Lock()
	next, err := mutate(b.state)
	if err != nil {
		b.mu.Unlock()
		return b.Snapshot(), false, err
	}
	b.state = next
	b.issued++
	seq := b.issued
	b.mu.Unlock()

	items, err := b.fetch.List(ctx, next)

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq != b.issued || seq <= b.applied {
		return b.viewLocked(), false, nil
	}
	b.applied = seq
	if err != nil {
		b.err = err
	} else {
		b.items = items
		b.err = nil
	}
	return b.viewLocked(), true, nil
}

// Refresh refetches with the current filters.
func (b *Browser) Refresh(ctx context.Context) (View, bool, error) {
	return b.Update(ctx, func(s casestudies.FilterState) (casestudies.FilterState, error) { return s, nil })
}

func (b *Browser) SetSearch(ctx context.Context, search string) (View, bool, error) {
	return b.Update(ctx, func(s casestudies.FilterState) (casestudies.FilterState, error) {
		return s.WithSearch(search), nil
	})
}

func (b *Browser) Toggle(ctx context.Context, facet casestudies.Facet, value string) (View, bool, error) {
	return b.Update(ctx, func(s casestudies.FilterState) (casestudies.FilterState, error) {
		return s.Toggle(facet, value)
	})
}

func (b *Browser) SetMRRRange(ctx context.Context, lo, hi float64) (View, bool, error) {
	return b.Update(ctx, func(s casestudies.FilterState) (casestudies.FilterState, error) {
		return s.WithMRRRange(lo, hi), nil
	})
}

// ClearFilters resets every facet and the MRR range. The search text stays.
func (b *Browser) ClearFilters(ctx context.Context) (View, bool, error) {
	return b.Update(ctx, func(s casestudies.FilterState) (casestudies.FilterState, error) {
		return s.ClearFacets(), nil
	})
}

// LoadFacets fetches the facet options. They do not depend on the filters.
func (b *Browser) LoadFacets(ctx context.Context) casestudies.Facets {
	facets := b.fetch.Facets(ctx)
	b.mu.Lock()
	b.facets = facets
	b.mu.Unlock()
	return facets
}

func (b *Browser) Snapshot() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewLocked()
}

func (b *Browser) viewLocked() View {
	return View{
		Filters: b.state,
		Items:   slices.Clone(b.items),
		Facets:  b.facets,
		Err:     b.err,
		Loading: b.issued > b.applied,
	}
}
