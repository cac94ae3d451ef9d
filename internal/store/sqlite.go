// Package store provides storage backends for PulseBot.
//
// This file implements an SQLite-backed result archive.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/BTreeMap/PulseBot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully", "path", dsn)

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveResult(ctx context.Context, r models.SurveyResult) error {
	responses, err := encodeResponses(r.Responses)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO survey_results (session_id, title, created_at, completed_at, average_rating, responses)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.Title, r.CreatedAt.UTC(), r.CompletedAt.UTC(), nullableFloat(r.AverageRating), responses)
	if err != nil {
		slog.Error("SQLiteStore SaveResult failed", "error", err, "sessionID", r.SessionID)
		return fmt.Errorf("failed to insert survey result for %s: %w", r.SessionID, err)
	}
	slog.Debug("SQLiteStore SaveResult succeeded", "sessionID", r.SessionID)
	return nil
}

func (s *SQLiteStore) ListResults(ctx context.Context) ([]models.SurveyResult, error) {
	results, err := queryResults(ctx, s.db, `
		SELECT session_id, title, created_at, completed_at, average_rating, responses
		FROM survey_results ORDER BY completed_at, session_id`)
	if err != nil {
		slog.Error("SQLiteStore ListResults failed", "error", err)
		return nil, err
	}
	slog.Debug("SQLiteStore ListResults succeeded", "count", len(results))
	return results, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
