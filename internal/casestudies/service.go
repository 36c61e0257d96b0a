package casestudies

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/harshnakad-cyber/Finastra/internal/cache"
	"github.com/harshnakad-cyber/Finastra/internal/telemetry"
	"github.com/harshnakad-cyber/Finastra/internal/validation"
)

var ErrNotFound = errors.New("case study not found")

// QueryError reports a failed call to the backing store. It carries the
// backend's own message; callers do not retry.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return "query failed: " + e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// ValidationError lists the creation-form fields that failed validation,
// keyed by wire field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

const facetsCacheKey = "casestudies:facets:v1"

var tracer = telemetry.Tracer("github.com/harshnakad-cyber/Finastra/internal/casestudies")

type Service struct {
	repo     Repository
	val      *validation.Validator
	log      *slog.Logger
	location *time.Location
	content  ContentPolicy
	cache    cache.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewService(repo Repository, val *validation.Validator, location *time.Location, log *slog.Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:     repo,
		val:      val,
		log:      log,
		location: location,
		content:  NewSanitizingPolicy(),
		cache:    cache.NewNoop(),
		now:      time.Now,
	}
}

// WithFacetCache caches facet options for ttl. A zero ttl disables caching.
func (s *Service) WithFacetCache(c cache.Cache, ttl time.Duration) *Service {
	if c == nil || ttl <= 0 {
		s.cache, s.cacheTTL = cache.NewNoop(), 0
		return s
	}
	s.cache, s.cacheTTL = c, ttl
	return s
}

func (s *Service) WithContentPolicy(p ContentPolicy) *Service {
	if p != nil {
		s.content = p
	}
	return s
}

// List runs the query composed from state and returns the matches, newest first.
func (s *Service) List(ctx context.Context, state FilterState) ([]CaseStudy, error) {
	ctx, span := tracer.Start(ctx, "casestudies.List")
	defer span.End()

	q := Compose(state)
	span.SetAttributes(
		attribute.Int("casestudies.conditions", len(q.Conditions)),
		attribute.Bool("casestudies.search", len(q.AnyOf) > 0),
	)

	items, err := s.repo.Find(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, &QueryError{Op: "list", Err: err}
	}
	if items == nil {
		items = []CaseStudy{}
	}
	span.SetAttributes(attribute.Int("casestudies.results", len(items)))
	return items, nil
}

func (s *Service) Get(ctx context.Context, id string) (CaseStudy, error) {
	ctx, span := tracer.Start(ctx, "casestudies.Get")
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		return CaseStudy{}, ErrNotFound
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return CaseStudy{}, ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return CaseStudy{}, &QueryError{Op: "get", Err: err}
	}
	return item, nil
}

// Create validates req locally and inserts it. Nothing reaches the store
// when validation fails.
func (s *Service) Create(ctx context.Context, req CreateRequest) (CaseStudy, error) {
	ctx, span := tracer.Start(ctx, "casestudies.Create")
	defer span.End()

	req = normalizeRequest(req)
	if err := s.validate(req); err != nil {
		return CaseStudy{}, err
	}

	content := s.content.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		return CaseStudy{}, &ValidationError{Fields: map[string]string{FieldContent: "Content is required"}}
	}

	item := CaseStudy{
		Heading:        req.Heading,
		ClientName:     req.ClientName,
		AccountOwner:   req.AccountOwner,
		MRR:            req.MRR,
		Industry:       req.Industry,
		SubIndustry:    req.SubIndustry,
		City:           req.City,
		UseCase:        req.UseCase,
		AccountSegment: req.AccountSegment,
		Availability:   req.Availability,
		AWSServices:    req.AWSServices,
		Content:        content,
		CreatedAt:      s.now().In(s.location).Truncate(time.Millisecond),
	}

	saved, err := s.repo.Insert(ctx, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return CaseStudy{}, &QueryError{Op: "create", Err: err}
	}

	if err := s.cache.Delete(ctx, facetsCacheKey); err != nil {
		s.log.Warn("case studies create: facet cache invalidation failed", slog.String("error", err.Error()))
	}
	return saved, nil
}

// Facets returns the selectable options for every facet, derived from the
// whole collection regardless of any filter. It never fails: when the store
// cannot be read the result holds only the static defaults.
func (s *Service) Facets(ctx context.Context) Facets {
	ctx, span := tracer.Start(ctx, "casestudies.Facets")
	defer span.End()

	if cached, ok := s.cachedFacets(ctx); ok {
		span.SetAttributes(attribute.Bool("casestudies.cache_hit", true))
		return cached
	}

	facets, err := s.repo.Facets(ctx)
	if err != nil {
		span.RecordError(err)
		s.log.Warn("case study facets: backend error", slog.String("error", err.Error()))
		return Facets{}.WithDefaults()
	}
	facets = facets.WithDefaults()

	if s.cacheTTL > 0 {
		if payload, err := json.Marshal(facets); err == nil {
			if err := s.cache.Set(ctx, facetsCacheKey, payload, s.cacheTTL); err != nil {
				s.log.Warn("case study facets: cache write failed", slog.String("error", err.Error()))
			}
		}
	}
	return facets
}

func (s *Service) cachedFacets(ctx context.Context) (Facets, bool) {
	if s.cacheTTL <= 0 {
		return Facets{}, false
	}
	payload, ok, err := s.cache.Get(ctx, facetsCacheKey)
	if err != nil {
		s.log.Warn("case study facets: cache read failed", slog.String("error", err.Error()))
		return Facets{}, false
	}
	if !ok {
		return Facets{}, false
	}
	var facets Facets
	if err := json.Unmarshal(payload, &facets); err != nil {
		return Facets{}, false
	}
	return facets, true
}

func (s *Service) validate(req CreateRequest) error {
	err := s.val.Struct(req)
	if err == nil {
		return nil
	}
	errs := s.val.ValidationErrors(err)
	if errs == nil {
		return err
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	if field == FieldAWSServices {
		return "At least one AWS Service is required"
	}
	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "gte":
		return label + " must not be negative"
	case "availability":
		return label + " must be " + AvailabilityPublic + " or " + AvailabilityNonReferenceable
	}
	return label + " is invalid"
}

// normalizeRequest trims every text field. Empty optional values count as absent.
func normalizeRequest(req CreateRequest) CreateRequest {
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.Heading = strings.TrimSpace(req.Heading)
	req.AccountOwner = strings.TrimSpace(req.AccountOwner)
	req.Content = strings.TrimSpace(req.Content)
	req.Industry = strings.TrimSpace(req.Industry)
	req.SubIndustry = strings.TrimSpace(req.SubIndustry)
	req.City = strings.TrimSpace(req.City)
	req.UseCase = strings.TrimSpace(req.UseCase)
	req.AccountSegment = strings.TrimSpace(req.AccountSegment)
	req.Availability = strings.TrimSpace(req.Availability)
	req.AWSServices = normalizeSet(req.AWSServices)
	return req
}
