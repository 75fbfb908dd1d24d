package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkboard/pkg/errors"
	"github.com/matzehuels/linkboard/pkg/observability"
)

// Registry holds the live sessions of a host, keyed by ID. Idle sessions
// are evicted by [Registry.Cleanup]; with a [Store] attached they are
// snapshotted on eviction and restored transparently by [Registry.Get].
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      Config
	store    Store
	logger   *log.Logger
}

// RegistryOption configures a [Registry].
type RegistryOption func(*Registry)

// WithStore persists evicted and deleted-on-shutdown sessions.
func WithStore(s Store) RegistryOption {
	return func(r *Registry) { r.store = s }
}

// NewRegistry creates a registry whose sessions use cfg.
func NewRegistry(cfg Config, opts ...RegistryOption) *Registry {
	cfg = cfg.withDefaults()
	r := &Registry{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		logger:   cfg.Logger,
	}
	if r.logger == nil {
		r.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create opens a new empty session.
func (r *Registry) Create(ctx context.Context) *Session {
	s := New(r.cfg)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	observability.Editor().OnSessionOpen(ctx, s.ID)
	r.logger.Debug("session opened", "id", s.ID)
	return s
}

// Get returns a live session, restoring it from the store if it was
// evicted.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}
	if r.store == nil {
		return nil, notFound(id)
	}
	if err := ValidateID(id); err != nil {
		return nil, notFound(id)
	}

	snap, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load session %s", id)
	}
	if snap == nil {
		return nil, notFound(id)
	}
	restored, err := Restore(ctx, snap, r.cfg)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		restored.Close()
		return s, nil
	}
	r.sessions[id] = restored
	observability.Editor().OnSessionOpen(ctx, id)
	r.logger.Debug("session restored", "id", id)
	return restored, nil
}

// Delete closes a session and removes any stored snapshot of it.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	stored := false
	if r.store != nil && ValidateID(id) == nil {
		snap, err := r.store.Get(ctx, id)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "load session %s", id)
		}
		stored = snap != nil
		if err := r.store.Delete(ctx, id); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "delete session %s", id)
		}
	}
	if !ok && !stored {
		return notFound(id)
	}
	if ok {
		s.Close()
		observability.Editor().OnSessionClose(ctx, id, "deleted")
	}
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cleanup evicts idle sessions and purges expired snapshots. It returns
// the number of sessions evicted.
func (r *Registry) Cleanup(ctx context.Context) (int, error) {
	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.IsExpired() {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		r.retire(ctx, s, "expired")
	}
	if r.store != nil {
		if err := r.store.Cleanup(ctx); err != nil {
			return len(expired), err
		}
	}
	return len(expired), nil
}

// Close retires every live session, snapshotting them if a store is
// attached.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range all {
		r.retire(ctx, s, "shutdown")
	}
}

func (r *Registry) retire(ctx context.Context, s *Session, reason string) {
	if r.store != nil {
		snap, err := s.Snapshot(ctx)
		if err == nil {
			err = r.store.Set(ctx, snap)
		}
		if err != nil {
			r.logger.Warn("session snapshot failed", "id", s.ID, "err", err)
		}
	}
	s.Close()
	observability.Editor().OnSessionClose(ctx, s.ID, reason)
	r.logger.Debug("session closed", "id", s.ID, "reason", reason)
}

// Run calls Cleanup every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := r.Cleanup(ctx); err != nil {
				r.logger.Warn("session cleanup failed", "err", err)
			} else if n > 0 {
				r.logger.Info("evicted idle sessions", "count", n)
			}
		}
	}
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
}
