package identity

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshnakad-cyber/Finastra/internal/validation"
)

func newTestRouter(t *testing.T, svc *Service) http.Handler {
	t.Helper()
	h := NewHandler(svc, validation.New(), "http://localhost:5173/", false, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/auth", h.Routes)
	var reader SessionReader
	if svc != nil {
		reader = svc
	}
	r.With(RequireSession(reader)).Get("/private", func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromContext(r.Context())
		_, _ = w.Write([]byte(sess.Email))
	})
	return r
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw)))
	return rec
}

func TestAuthFlowOverHTTP(t *testing.T) {
	svc, mailer := newTestService(t)
	router := newTestRouter(t, svc)

	rec := postJSON(t, router, "/auth/signup", map[string]string{"email": "frank@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, router, "/auth/signup", map[string]string{"email": "frank@example.com", "password": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?token=garbage", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:5173/login", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?token="+mailer.lastToken(t), nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:5173/", rec.Header().Get("Location"))

	rec = postJSON(t, router, "/auth/signup", map[string]string{"email": "frank@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already registered")

	rec = postJSON(t, router, "/auth/signin", map[string]string{"email": "frank@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var out SignedIn
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.AccessToken)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+out.AccessToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "frank@example.com", rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: out.AccessToken})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: out.AccessToken})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnconfiguredAuth(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := postJSON(t, router, "/auth/signin", map[string]string{"email": "a@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
