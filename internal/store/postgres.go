// Package store provides storage backends for PulseBot.
//
// This file implements a PostgreSQL-backed result archive.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BTreeMap/PulseBot/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, r models.SurveyResult) error {
	responses, err := encodeResponses(r.Responses)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO survey_results (session_id, title, created_at, completed_at, average_rating, responses)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			title = EXCLUDED.title,
			created_at = EXCLUDED.created_at,
			completed_at = EXCLUDED.completed_at,
			average_rating = EXCLUDED.average_rating,
			responses = EXCLUDED.responses`,
		r.SessionID, r.Title, r.CreatedAt, r.CompletedAt, nullableFloat(r.AverageRating), responses)
	if err != nil {
		slog.Error("PostgresStore SaveResult failed", "error", err, "sessionID", r.SessionID)
		return fmt.Errorf("failed to upsert survey result for %s: %w", r.SessionID, err)
	}
	slog.Debug("PostgresStore SaveResult succeeded", "sessionID", r.SessionID)
	return nil
}

func (s *PostgresStore) ListResults(ctx context.Context) ([]models.SurveyResult, error) {
	results, err := queryResults(ctx, s.db, `
		SELECT session_id, title, created_at, completed_at, average_rating, responses::text
		FROM survey_results ORDER BY completed_at, session_id`)
	if err != nil {
		slog.Error("PostgresStore ListResults failed", "error", err)
		return nil, err
	}
	slog.Debug("PostgresStore ListResults succeeded", "count", len(results))
	return results, nil
}

// clear deletes all archived results (for tests).
func (s *PostgresStore) clear() error {
	_, err := s.db.Exec("DELETE FROM survey_results")
	return err
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
