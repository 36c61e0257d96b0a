package app

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/harshnakad-cyber/Finastra/internal/casestudies"
	"github.com/harshnakad-cyber/Finastra/internal/config"
	"github.com/harshnakad-cyber/Finastra/internal/identity"
	"github.com/harshnakad-cyber/Finastra/internal/middleware"
	"github.com/harshnakad-cyber/Finastra/internal/notifications"
	"github.com/harshnakad-cyber/Finastra/internal/transport"
	"github.com/harshnakad-cyber/Finastra/internal/validation"
)

// Services are the domain services behind the router. Identity is nil when
// no JWT secret is configured.
type Services struct {
	CaseStudies *casestudies.Service
	Identity    *identity.Service
}

// NewServices builds the domain services over opened stores.
func NewServices(cfg *config.Config, stores *Stores, val *validation.Validator, hub *identity.SessionContext, log *slog.Logger) Services {
	var content casestudies.ContentPolicy = casestudies.NewSanitizingPolicy()
	if cfg.ContentPolicy == config.ContentTrusted {
		content = casestudies.TrustedContent{}
	}
	caseStudies := casestudies.NewService(stores.CaseStudies, val, cfg.Location(), log).
		WithFacetCache(stores.Cache, cfg.FacetCacheTTL).
		WithContentPolicy(content)

	out := Services{CaseStudies: caseStudies}
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set: sign-in disabled and case study routes unavailable")
		return out
	}

	var mailer identity.Mailer
	if brevo := notifications.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, cfg.BrevoSenderName, cfg.BrevoSandbox); brevo != nil {
		brevo.WithProductName(cfg.ProductName)
		log.Info("brevo mailer enabled", slog.String("sender", cfg.BrevoSenderEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
		mailer = brevo
	} else {
		log.Info("brevo mailer disabled, confirmation links go to the log")
		mailer = notifications.NewLogMailer(log)
	}

	out.Identity = identity.NewService(stores.Users, stores.Cache, hub, mailer, identity.Config{
		Secret:      []byte(cfg.JWTSecret),
		AccessTTL:   cfg.AccessTTL,
		ConfirmTTL:  cfg.ConfirmTTL,
		Issuer:      "finastra",
		CallbackURL: strings.TrimRight(cfg.PublicURL, "/") + "/api/v1/auth/callback",
	}, log)
	return out
}

func NewRouter(cfg *config.Config, svc Services, val *validation.Validator, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authLimiter := middleware.NewRateLimiter(cfg.RateLimitAuth, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	authHandler := identity.NewHandler(svc.Identity, val, primaryOrigin(cfg.FrontendOrigin), cfg.CookieSecure, log)
	caseStudiesHandler := casestudies.NewHandler(svc.CaseStudies, log)

	var sessions identity.SessionReader
	if svc.Identity != nil {
		sessions = svc.Identity
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Use(authLimiter.Middleware)
			authHandler.Routes(auth)
		})
		api.Route("/case-studies", func(cs chi.Router) {
			cs.Use(identity.RequireSession(sessions))
			caseStudiesHandler.Routes(cs)
		})
	})

	return r
}

// primaryOrigin is the first entry of a comma separated origin list; auth
// redirects go there.
func primaryOrigin(origins string) string {
	first, _, _ := strings.Cut(origins, ",")
	return strings.TrimSpace(first)
}
