// Package app assembles the backends and the HTTP router shared by the
// api server and the casectl tool.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harshnakad-cyber/Finastra/internal/cache"
	"github.com/harshnakad-cyber/Finastra/internal/casestudies"
	"github.com/harshnakad-cyber/Finastra/internal/config"
	"github.com/harshnakad-cyber/Finastra/internal/db"
	"github.com/harshnakad-cyber/Finastra/internal/identity"
)

// Stores holds the opened backends. Cache serves both the facet cache and
// the session registry.
type Stores struct {
	CaseStudies casestudies.Repository
	Users       identity.Store
	Cache       cache.Cache

	closers []func(context.Context) error
}

// Close releases every backend in reverse opening order.
func (s *Stores) Close(ctx context.Context) error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

func OpenStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Stores, error) {
	s := &Stores{}

	switch cfg.StoreBackend {
	case config.BackendMongo:
		client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		s.closers = append(s.closers, client.Disconnect)
		log.Info("mongo connected", slog.String("db", cfg.MongoDB))

		if err := db.EnsureIndexes(ctx, cols); err != nil {
			_ = s.Close(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		s.CaseStudies = casestudies.NewRepository(cols.CaseStudies)
		s.Users = identity.NewMongoStore(cols.Users)

	case config.BackendPostgres:
		pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		log.Info("postgres connected")

		if err := db.EnsureSchema(ctx, pool); err != nil {
			_ = s.Close(context.Background())
			return nil, err
		}
		s.CaseStudies = casestudies.NewPostgresRepository(pool)
		s.Users = identity.NewPostgresStore(pool)

	case config.BackendMemory:
		log.Warn("memory store in use: data is lost on exit")
		s.CaseStudies = casestudies.NewMemoryRepository()
		s.Users = identity.NewMemoryStore()

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	c, err := openCache(ctx, cfg, log)
	if err != nil {
		_ = s.Close(context.Background())
		return nil, err
	}
	s.Cache = c
	if closer, ok := c.(interface{ Close() error }); ok {
		s.closers = append(s.closers, func(context.Context) error { return closer.Close() })
	}
	return s, nil
}

func openCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (cache.Cache, error) {
	if cfg.RedisURL == "" && cfg.RedisAddr == "" {
		log.Info("redis not configured, using in-process cache")
		return cache.NewMemory(), nil
	}

	var redisCache *cache.RedisCache
	if cfg.RedisURL != "" {
		var err error
		redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
	} else {
		redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}
	if err := redisCache.Ping(ctx); err != nil {
		_ = redisCache.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if cfg.RedisURL != "" {
		log.Info("redis connected (url)")
	} else {
		log.Info("redis connected", slog.String("addr", cfg.RedisAddr))
	}
	return redisCache, nil
}
