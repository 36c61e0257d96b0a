package browse

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/harshnakad-cyber/Finastra/internal/casestudies"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// gatedFetcher blocks List calls for a search term until its gate is released.
type gatedFetcher struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
	fail    map[string]error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 8),
		fail:    make(map[string]error),
	}
}

func (f *gatedFetcher) gate(search string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.gates[search]
	if !ok {
		g = make(chan struct{})
		f.gates[search] = g
	}
	return g
}

func (f *gatedFetcher) List(ctx context.Context, state casestudies.FilterState) ([]casestudies.CaseStudy, error) {
	f.started <- state.Search
	<-f.gate(state.Search)
	f.mu.Lock()
	err := f.fail[state.Search]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return []casestudies.CaseStudy{{ID: state.Search, Heading: "result for " + state.Search}}, nil
}

func (f *gatedFetcher) Facets(ctx context.Context) casestudies.Facets {
	return casestudies.Facets{Cities: []string{"Pune"}}.WithDefaults()
}

type instantFetcher struct {
	items []casestudies.CaseStudy
	err   error
	calls []casestudies.FilterState
}

func (f *instantFetcher) List(ctx context.Context, state casestudies.FilterState) ([]casestudies.CaseStudy, error) {
	f.calls = append(f.calls, state)
	return f.items, f.err
}

func (f *instantFetcher) Facets(ctx context.Context) casestudies.Facets {
	return casestudies.Facets{}.WithDefaults()
}

func TestStaleResultIsDropped(t *testing.T) {
	fetch := newGatedFetcher()
	b := New(fetch)
	ctx := context.Background()

	type outcome struct {
		view    View
		applied bool
	}
	first := make(chan outcome, 1)
	go func() {
		v, applied, _ := b.SetSearch(ctx, "a")
		first <- outcome{v, applied}
	}()
	require.Equal(t, "a", <-fetch.started)

	second := make(chan outcome, 1)
	go func() {
		v, applied, _ := b.SetSearch(ctx, "ab")
		second <- outcome{v, applied}
	}()
	require.Equal(t, "ab", <-fetch.started)

	// the newer request finishes first
	close(fetch.gate("ab"))
	got := <-second
	assert.True(t, got.applied)
	require.Len(t, got.view.Items, 1)
	assert.Equal(t, "ab", got.view.Items[0].ID)

	close(fetch.gate("a"))
	got = <-first
	assert.False(t, got.applied)

	snap := b.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "ab", snap.Items[0].ID)
	assert.Equal(t, "ab", snap.Filters.Search)
	assert.False(t, snap.Loading)
}

func TestOlderResultDroppedEvenIfNewerStillPending(t *testing.T) {
	fetch := newGatedFetcher()
	b := New(fetch)
	ctx := context.Background()

	first := make(chan bool, 1)
	go func() {
		_, applied, _ := b.SetSearch(ctx, "x")
		first <- applied
	}()
	<-fetch.started

	second := make(chan bool, 1)
	go func() {
		_, applied, _ := b.SetSearch(ctx, "xy")
		second <- applied
	}()
	<-fetch.started

	close(fetch.gate("x"))
	assert.False(t, <-first)
	assert.True(t, b.Snapshot().Loading)
	assert.Empty(t, b.Snapshot().Items)

	close(fetch.gate("xy"))
	assert.True(t, <-second)
	assert.False(t, b.Snapshot().Loading)
}

func TestQueryFailureKeepsPreviousItems(t *testing.T) {
	fetch := &instantFetcher{items: []casestudies.CaseStudy{{ID: "1"}}}
	b := New(fetch)
	ctx := context.Background()

	view, applied, err := b.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, applied)
	require.Len(t, view.Items, 1)

	fetch.err = errors.New("query failed: timeout")
	view, applied, err = b.SetSearch(ctx, "alpha")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.EqualError(t, view.Err, "query failed: timeout")
	assert.Len(t, view.Items, 1)

	fetch.err = nil
	view, _, _ = b.Refresh(ctx)
	assert.NoError(t, view.Err)
}

func TestClearFiltersKeepsSearch(t *testing.T) {
	fetch := &instantFetcher{}
	b := New(fetch)
	ctx := context.Background()

	_, _, err := b.SetSearch(ctx, "bank")
	require.NoError(t, err)
	_, _, err = b.Toggle(ctx, casestudies.FacetCity, "Pune")
	require.NoError(t, err)
	_, _, err = b.SetMRRRange(ctx, 200, 800)
	require.NoError(t, err)

	view, _, err := b.ClearFilters(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bank", view.Filters.Search)
	assert.Empty(t, view.Filters.City)
	assert.Equal(t, casestudies.MRRRange{casestudies.MRRFloor, casestudies.MRRCeiling}, view.Filters.MRRRange)
	assert.Len(t, fetch.calls, 4)
}

func TestUnknownFacetLeavesStateAlone(t *testing.T) {
	fetch := &instantFetcher{}
	b := New(fetch)

	_, applied, err := b.Toggle(context.Background(), casestudies.Facet("colour"), "red")
	assert.ErrorIs(t, err, casestudies.ErrUnknownFacet)
	assert.False(t, applied)
	assert.Empty(t, fetch.calls)
}

func TestLoadFacets(t *testing.T) {
	b := New(newGatedFetcher())
	facets := b.LoadFacets(context.Background())
	assert.Equal(t, []string{"Pune"}, facets.Cities)
	assert.Equal(t, facets, b.Snapshot().Facets)
	assert.NotEmpty(t, b.Snapshot().Facets.UseCases)
}
