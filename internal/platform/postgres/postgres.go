// Package postgres opens the node database and installs its schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"tokenregistry/internal/platform/config"
)

// Schema is applied at boot. Every statement is idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS chain_events (
		id          UUID PRIMARY KEY,
		chain_id    BIGINT NOT NULL,
		block       BIGINT NOT NULL,
		log_index   INTEGER NOT NULL,
		contract    TEXT NOT NULL,
		registry    TEXT NOT NULL,
		token_id    TEXT,
		name        TEXT NOT NULL,
		payload     JSONB NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		UNIQUE (chain_id, block, log_index)
	)`,
	`CREATE INDEX IF NOT EXISTS chain_events_token_idx
		ON chain_events (chain_id, registry, token_id, block, log_index)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id             UUID PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id   TEXT NOT NULL,
		event_type     TEXT NOT NULL,
		source_chain   BIGINT NOT NULL,
		seq            BIGINT NOT NULL,
		payload        JSONB NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		UNIQUE (source_chain, seq)
	)`,
}

// Open connects to cfg.URL and verifies the connection. It returns nil when
// no URL is configured.
func Open(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
