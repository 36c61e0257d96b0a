package casestudies

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/harshnakad-cyber/Finastra/internal/validation"
)

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func mrr(v float64) *float64 { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedRepo inserts items into a memory repository, the i-th one created i
// hours after baseTime.
func seedRepo(t *testing.T, items ...CaseStudy) (*MemoryRepository, []CaseStudy) {
	t.Helper()
	repo := NewMemoryRepository()
	saved := make([]CaseStudy, 0, len(items))
	for i, item := range items {
		if item.CreatedAt.IsZero() {
			item.CreatedAt = baseTime.Add(time.Duration(i) * time.Hour)
		}
		out, err := repo.Insert(context.Background(), item)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		saved = append(saved, out)
	}
	return repo, saved
}

func ids(items []CaseStudy) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

// spyRepo wraps a Repository, counting calls and optionally failing them.
type spyRepo struct {
	Repository

	mu      sync.Mutex
	inserts int
	facets  int
	err     error
}

func (s *spyRepo) Insert(ctx context.Context, item CaseStudy) (CaseStudy, error) {
	s.mu.Lock()
	s.inserts++
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return CaseStudy{}, err
	}
	return s.Repository.Insert(ctx, item)
}

func (s *spyRepo) Find(ctx context.Context, q Query) ([]CaseStudy, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.Repository.Find(ctx, q)
}

func (s *spyRepo) FindByID(ctx context.Context, id string) (CaseStudy, error) {
	if s.err != nil {
		return CaseStudy{}, s.err
	}
	return s.Repository.FindByID(ctx, id)
}

func (s *spyRepo) Facets(ctx context.Context) (Facets, error) {
	s.mu.Lock()
	s.facets++
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return Facets{}, err
	}
	return s.Repository.Facets(ctx)
}

var errBackend = errors.New("connection reset by peer")

func newTestService(repo Repository) *Service {
	svc := NewService(repo, validation.New(), time.UTC, discardLogger())
	svc.now = func() time.Time { return baseTime.Add(24 * time.Hour) }
	return svc
}

func validRequest() CreateRequest {
	return CreateRequest{
		ClientName:     "Alpha Cooperative Bank",
		Heading:        "Core banking migration",
		AccountOwner:   "Priya Raman",
		Content:        "<p>Moved to AWS.</p>",
		MRR:            mrr(450),
		Industry:       "Financial Services",
		SubIndustry:    "Banking",
		City:           "Pune",
		UseCase:        "Migration",
		AccountSegment: "Scale",
		Availability:   AvailabilityPublic,
		AWSServices:    []string{"EC2", "RDS"},
	}
}
