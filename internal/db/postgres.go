package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectPostgres opens a pool against dsn and checks it with a ping.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE TABLE IF NOT EXISTS case_studies (
		id              uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		heading         text NOT NULL,
		client_name     text NOT NULL,
		account_owner   text NOT NULL,
		mrr             double precision,
		industry        text,
		sub_industry    text,
		city            text,
		use_case        text,
		account_segment text,
		availability    text,
		aws_services    text[] NOT NULL DEFAULT '{}',
		content         text NOT NULL,
		created_at      timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS case_studies_created_at_idx ON case_studies (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS case_studies_aws_services_idx ON case_studies USING gin (aws_services)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            text PRIMARY KEY,
		email         text NOT NULL UNIQUE,
		password_hash text NOT NULL,
		confirmed_at  timestamptz,
		created_at    timestamptz NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables and indexes if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	schemaTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, stmt := range schema {
		if _, err := pool.Exec(schemaTimeout, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
