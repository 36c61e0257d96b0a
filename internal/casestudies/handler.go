package casestudies

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harshnakad-cyber/Finastra/internal/httpx"
	"github.com/harshnakad-cyber/Finastra/internal/identity"
	"github.com/harshnakad-cyber/Finastra/internal/middleware"
	"github.com/harshnakad-cyber/Finastra/internal/transport"
)

type Handler struct {
	service *Service
	log     *slog.Logger
}

func NewHandler(service *Service, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// Routes registers the case study endpoints on r. Authentication is applied
// by the caller.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/search", h.Search)
	r.Get("/facets", h.Facets)
	r.Get("/{id}", h.Get)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	state, err := FilterStateFromQuery(r.URL.Query())
	if err != nil {
		log.Warn("case studies list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	h.list(w, r, log, state)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	state := DefaultFilterState()
	if err := httpx.DecodeJSON(r.Body, &state); err != nil {
		if errors.Is(err, ErrInvalidMRRRange) {
			log.Warn("case studies search: invalid mrr range")
			transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		log.Warn("case studies search: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	h.list(w, r, log, state)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, log *slog.Logger, state FilterState) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, state)
	if err != nil {
		h.writeServiceError(w, log, "case studies list", err)
		return
	}

	log.Info("case studies list: ok", slog.Int("count", len(items)), slog.Bool("filtered", !state.IsNeutral()))
	transport.WriteList(w, http.StatusOK, items)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("case studies get: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.Get(ctx, id)
	if err != nil {
		h.writeServiceError(w, log.With(slog.String("case_study_id", id)), "case studies get", err)
		return
	}

	log.Info("case studies get: ok", slog.String("case_study_id", id))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("case studies create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	item, err := h.service.Create(ctx, req)
	if err != nil {
		h.writeServiceError(w, log, "case studies create", err)
		return
	}

	log.Info("case studies create: ok", slog.String("case_study_id", item.ID))
	transport.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) Facets(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	facets := h.service.Facets(ctx)
	log.Info("case studies facets: ok", slog.Int("aws_services", len(facets.AWSServices)))
	transport.WriteJSON(w, http.StatusOK, facets)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	var validationErr *ValidationError
	var queryErr *QueryError
	switch {
	case errors.As(err, &validationErr):
		log.Warn(op+": validation error", slog.Int("fields", len(validationErr.Fields)))
		transport.WriteError(w, http.StatusBadRequest, "validation error", validationErr.Fields)
	case errors.Is(err, ErrNotFound):
		log.Warn(op + ": not found")
		transport.WriteError(w, http.StatusNotFound, "case study not found", nil)
	case errors.As(err, &queryErr):
		log.Error(op+": query failed", slog.String("error", queryErr.Err.Error()))
		transport.WriteError(w, http.StatusBadGateway, "query failed", map[string]string{"message": queryErr.Err.Error()})
	default:
		log.Error(op+": internal error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	log := h.log
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		log = log.With(slog.String("request_id", id))
	}
	if sess, ok := identity.FromContext(r.Context()); ok {
		log = log.With(slog.String("user_id", sess.UserID))
	}
	return log
}
