package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	ContentSanitize = "sanitize"
	ContentTrusted  = "trusted"
)

type Config struct {
	Env            string `env:"APP_ENV" envDefault:"development"`
	ServerAddr     string `env:"SERVER_ADDR" envDefault:":8080"`
	FrontendOrigin string `env:"FRONTEND_ORIGIN" envDefault:"http://localhost:5173"`
	// PublicURL is the externally reachable base of this API, used in confirmation links.
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"mongo"`
	MongoURI     string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017/finastra"`
	MongoDB      string `env:"MONGO_DB"`
	PostgresDSN  string `env:"POSTGRES_DSN"`

	RedisURL      string        `env:"REDIS_URL"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	FacetCacheTTL time.Duration `env:"FACET_CACHE_TTL" envDefault:"60s"`

	RateLimitAuth      int `env:"RATE_LIMIT_AUTH" envDefault:"10"`
	RateLimitWindowSec int `env:"RATE_LIMIT_WINDOW_SEC" envDefault:"60"`

	JWTSecret    string        `env:"JWT_SECRET"`
	AccessTTL    time.Duration `env:"ACCESS_TTL" envDefault:"12h"`
	ConfirmTTL   time.Duration `env:"CONFIRM_TTL" envDefault:"24h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`

	ContentPolicy string `env:"CONTENT_POLICY" envDefault:"sanitize"`

	BrevoAPIKey      string `env:"BREVO_API_KEY"`
	BrevoSenderEmail string `env:"BREVO_SENDER_EMAIL"`
	BrevoSenderName  string `env:"BREVO_SENDER_NAME" envDefault:"Finastra"`
	BrevoSandbox     bool   `env:"BREVO_SANDBOX" envDefault:"false"`
	ProductName      string `env:"PRODUCT_NAME" envDefault:"Finastra"`

	TracingEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	TracingSampleRatio float64 `env:"OTEL_SAMPLER_RATIO" envDefault:"1"`

	TimezoneName string `env:"TZ" envDefault:"UTC"`

	location *time.Location
}

func Load() (*Config, error) {
	loadDotEnv(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	loc, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return nil, err
	}
	cfg.location = loc

	if cfg.MongoDB == "" {
		cfg.MongoDB = mongoDBFromURI(cfg.MongoURI)
	}
	if cfg.MongoDB == "" {
		cfg.MongoDB = "finastra"
	}

	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	switch cfg.StoreBackend {
	case BackendMongo, BackendMemory:
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required when STORE_BACKEND=%s", BackendPostgres)
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	cfg.ContentPolicy = strings.ToLower(strings.TrimSpace(cfg.ContentPolicy))
	if cfg.ContentPolicy != ContentSanitize && cfg.ContentPolicy != ContentTrusted {
		return nil, fmt.Errorf("unknown CONTENT_POLICY %q", cfg.ContentPolicy)
	}

	return cfg, nil
}

// Location is the time zone record timestamps are expressed in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func mongoDBFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	db := strings.Trim(u.Path, "/")
	if db == "" {
		return ""
	}
	// mongodb URIs sometimes include extra path segments; we only support the first one as db name.
	if idx := strings.Index(db, "/"); idx >= 0 {
		db = db[:idx]
	}
	return db
}

func loadDotEnv(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}
}
