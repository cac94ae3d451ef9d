// Package store provides storage backends for archived survey results.
//
// Results are written once, when a session completes. The archive is an export:
// live sessions are held by the session registry and are never rebuilt from it.
// Backends: in-memory (default), SQLite and PostgreSQL.
package store

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/BTreeMap/PulseBot/internal/models"
)

// Store archives completed survey results.
type Store interface {
	// SaveResult stores a result, replacing any earlier result for the same session.
	SaveResult(ctx context.Context, result models.SurveyResult) error
	// ListResults returns every archived result ordered by completion time.
	ListResults(ctx context.Context) ([]models.SurveyResult, error)
	// Close releases backend resources.
	Close() error
}

// Opts holds configuration for store backends.
type Opts struct {
	DSN string // database connection string or SQLite file path
}

// Option configures a store backend.
type Option func(*Opts)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DSN types reported by DetectDSNType.
const (
	DSNTypePostgres = "postgres"
	DSNTypeSQLite   = "sqlite3"
	DSNTypeNone     = ""
)

// DetectDSNType classifies a DSN: PostgreSQL URLs and key/value strings are
// "postgres", any other non-empty value is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return DSNTypeNone
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DSNTypePostgres
	case strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname="):
		return DSNTypePostgres
	default:
		return DSNTypeSQLite
	}
}

// Open selects a backend for dsn. An empty DSN yields an in-memory store.
func Open(dsn string) (Store, error) {
	switch DetectDSNType(dsn) {
	case DSNTypePostgres:
		slog.Debug("store.Open: using PostgreSQL result archive")
		return NewPostgresStore(WithPostgresDSN(dsn))
	case DSNTypeSQLite:
		slog.Debug("store.Open: using SQLite result archive", "path", dsn)
		return NewSQLiteStore(WithSQLiteDSN(dsn))
	default:
		slog.Debug("store.Open: no DSN, using in-memory result archive")
		return NewInMemoryStore(), nil
	}
}

// InMemoryStore keeps results for the life of the process.
type InMemoryStore struct {
	mu      sync.RWMutex
	results map[string]models.SurveyResult
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{results: make(map[string]models.SurveyResult)}
}

func (s *InMemoryStore) SaveResult(_ context.Context, r models.SurveyResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	responses := make([]models.Response, len(r.Responses))
	copy(responses, r.Responses)
	r.Responses = responses
	s.results[r.SessionID] = r
	slog.Debug("InMemoryStore SaveResult succeeded", "sessionID", r.SessionID)
	return nil
}

func (s *InMemoryStore) ListResults(_ context.Context) ([]models.SurveyResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SurveyResult, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].CompletedAt.Before(out[j].CompletedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
