package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// Postgres manages the PostgreSQL pool used by the alternate store backend
type Postgres struct {
	dsn    string
	logger zerolog.Logger

	mu sync.Mutex
	db *sql.DB
}

// NewPostgres creates a connection manager for the given DSN. The pool is opened lazily.
func NewPostgres(dsn string, logger zerolog.Logger) *Postgres {
	return &Postgres{
		dsn:    dsn,
		logger: logger.With().Str("component", "postgres").Logger(),
	}
}

// DB returns the shared pool, opening and pinging it on first use
func (p *Postgres) DB(ctx context.Context) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db, nil
	}

	db, err := sql.Open("pgx", p.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	p.db = db
	p.logger.Info().Msg("connected to PostgreSQL")
	return p.db, nil
}

// Close releases the pool. Safe to call when already closed.
func (p *Postgres) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}

	err := p.db.Close()
	p.db = nil
	if err != nil {
		return fmt.Errorf("failed to close postgres: %w", err)
	}

	p.logger.Info().Msg("database connection closed")
	return nil
}
