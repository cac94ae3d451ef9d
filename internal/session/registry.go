// Package session provides the in-memory registry of interview sessions.
//
// A Registry is owned by whoever builds the engine: it is created at service
// start and lives for the process lifetime. Sessions are never evicted by the
// registry itself; callers that need a retention policy use Len and Clear.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BTreeMap/PulseBot/internal/models"
)

// slot pairs a session with the lock that serializes its mutations.
type slot struct {
	mu      sync.Mutex
	session *models.Session
}

// Registry maps session ids to session state. It is safe for concurrent use;
// work on a single session is serialized through With.
type Registry struct {
	mu    sync.RWMutex
	slots map[string]*slot
	now   func() time.Time
	newID func() string
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithIDGenerator overrides session id generation. Ids must be unique.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) {
		r.newID = gen
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		slots: make(map[string]*slot),
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create inserts a fresh session positioned at the first question and returns a snapshot of it.
func (r *Registry) Create() (models.Session, error) {
	id := r.newID()
	s := models.NewSession(id, r.now())

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.slots[id]; exists {
		slog.Error("Registry.Create: session id collision", "sessionID", id)
		return models.Session{}, fmt.Errorf("session id collision: %s", id)
	}
	r.slots[id] = &slot{session: s}
	slog.Debug("Registry.Create: session created", "sessionID", id, "sessions", len(r.slots))
	return s.Snapshot(), nil
}

// Get returns a snapshot of the session with the given id.
func (r *Registry) Get(id string) (models.Session, error) {
	sl, ok := r.lookup(id)
	if !ok {
		return models.Session{}, models.ErrSessionNotFound
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.session.Snapshot(), nil
}

// With runs fn while holding the session's lock, so at most one mutation is in
// flight per session. The session pointer must not escape fn.
func (r *Registry) With(ctx context.Context, id string, fn func(*models.Session) error) error {
	sl, ok := r.lookup(id)
	if !ok {
		return models.ErrSessionNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return fn(sl.session)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}

// Clear drops every session. In-flight With calls finish against their own slot.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.slots)
	r.slots = make(map[string]*slot)
	slog.Info("Registry.Clear: sessions dropped", "count", n)
}

func (r *Registry) lookup(id string) (*slot, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	sl, ok := r.slots[id]
	return sl, ok
}
