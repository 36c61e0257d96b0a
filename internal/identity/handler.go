package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harshnakad-cyber/Finastra/internal/httpx"
	"github.com/harshnakad-cyber/Finastra/internal/middleware"
	"github.com/harshnakad-cyber/Finastra/internal/transport"
	"github.com/harshnakad-cyber/Finastra/internal/validation"
)

const AccessCookie = "finastra_access"

type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type Handler struct {
	service      *Service
	val          *validation.Validator
	log          *slog.Logger
	frontendURL  string
	cookieSecure bool
}

// NewHandler serves the /auth routes. A nil service answers 503 on every
// route, which is how the server runs without a JWT secret.
func NewHandler(service *Service, val *validation.Validator, frontendURL string, cookieSecure bool, log *slog.Logger) *Handler {
	return &Handler{
		service:      service,
		val:          val,
		log:          log,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		cookieSecure: cookieSecure,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/signup", h.SignUp)
	r.Post("/signin", h.SignIn)
	r.Post("/signout", h.SignOut)
	r.Get("/session", h.Session)
	r.Get("/callback", h.Callback)
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	if !h.configured(w, log, "auth signup") {
		return
	}
	req, ok := h.decodeCredentials(w, r, log, "auth signup")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.service.SignUp(ctx, req.Email, req.Password); err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			log.Warn("auth signup: already registered")
			transport.WriteError(w, http.StatusConflict, "This email is already registered. Please try logging in instead.", nil)
			return
		}
		log.Error("auth signup: failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "signup failed", nil)
		return
	}

	log.Info("auth signup: ok")
	transport.WriteJSON(w, http.StatusCreated, StatusResponse{
		Status:  "confirmation_sent",
		Message: "Registration successful! Please check your email for confirmation.",
	})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	if !h.configured(w, log, "auth signin") {
		return
	}
	req, ok := h.decodeCredentials(w, r, log, "auth signin")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.service.SignIn(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		log.Warn("auth signin: invalid credentials")
		transport.WriteError(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	case errors.Is(err, ErrEmailNotConfirmed):
		log.Warn("auth signin: email not confirmed")
		transport.WriteError(w, http.StatusForbidden, "email not confirmed", nil)
		return
	case err != nil:
		log.Error("auth signin: failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "signin failed", nil)
		return
	}

	h.setSessionCookie(w, out.AccessToken, out.Session.ExpiresAt)
	log.Info("auth signin: ok", slog.String("user_id", out.Session.UserID))
	transport.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	h.clearSessionCookie(w)
	if h.service != nil {
		if token := TokenFromRequest(r); token != "" {
			if err := h.service.SignOut(r.Context(), token); err != nil && !errors.Is(err, ErrInvalidToken) {
				log.Warn("auth signout: registry error", slog.String("error", err.Error()))
			}
		}
	}
	log.Info("auth signout: ok")
	transport.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	if !h.configured(w, log, "auth session") {
		return
	}
	sess, err := h.service.Session(r.Context(), TokenFromRequest(r))
	if err != nil {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	transport.WriteJSON(w, http.StatusOK, sess)
}

// Callback redeems the link from the confirmation e-mail and sends the
// browser to the front end: its root when signed in, the login page otherwise.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	if h.service == nil {
		http.Redirect(w, r, h.frontendURL+"/login", http.StatusFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.service.Confirm(ctx, r.URL.Query().Get("token"))
	if err != nil {
		log.Warn("auth callback: rejected", slog.String("error", err.Error()))
		http.Redirect(w, r, h.frontendURL+"/login", http.StatusFound)
		return
	}

	h.setSessionCookie(w, out.AccessToken, out.Session.ExpiresAt)
	log.Info("auth callback: ok", slog.String("user_id", out.Session.UserID))
	http.Redirect(w, r, h.frontendURL+"/", http.StatusFound)
}

func (h *Handler) decodeCredentials(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn(op + ": invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return req, false
	}
	req.Email = normalizeEmail(req.Email)
	if err := h.val.Struct(req); err != nil {
		log.Warn(op + ": validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return req, false
	}
	return req, true
}

func (h *Handler) configured(w http.ResponseWriter, log *slog.Logger, op string) bool {
	if h.service != nil {
		return true
	}
	log.Warn(op + ": not configured")
	transport.WriteError(w, http.StatusServiceUnavailable, "auth not configured", nil)
	return false
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(expires).Seconds()),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
		MaxAge:   -1,
	})
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
