package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harshnakad-cyber/Finastra/internal/app"
	"github.com/harshnakad-cyber/Finastra/internal/config"
	"github.com/harshnakad-cyber/Finastra/internal/identity"
	"github.com/harshnakad-cyber/Finastra/internal/telemetry"
	"github.com/harshnakad-cyber/Finastra/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.TracingEnabled,
		ServiceName: "finastra-api",
		Environment: cfg.Env,
		SampleRatio: cfg.TracingSampleRatio,
	}, logger)
	if err != nil {
		logger.Error("tracing init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("store init failed", slog.String("backend", cfg.StoreBackend), slog.String("error", err.Error()))
		os.Exit(1)
	}

	sessions := identity.NewSessionContext()
	unsubscribe := sessions.Subscribe(func(e identity.Event) {
		logger.Info("session event", slog.String("kind", string(e.Kind)), slog.String("user_id", e.Session.UserID))
	})

	val := validation.New()
	services := app.NewServices(cfg, stores, val, sessions, logger)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           app.NewRouter(cfg, services, val, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr), slog.String("backend", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	unsubscribe()
	sessions.Close()
	if err := stores.Close(shutdownCtx); err != nil {
		logger.Error("store close error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
}
