package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/linkboard/pkg/canvas"
	"github.com/matzehuels/linkboard/pkg/errors"
)

// Snapshot is the persisted form of a session: its document plus the
// parts of the interaction state worth restoring.
type Snapshot struct {
	ID        string          `json:"id"`
	Document  json.RawMessage `json:"document"`
	Tool      string          `json:"tool"`
	Viewport  canvas.Viewport `json:"viewport"`
	CreatedAt time.Time       `json:"created_at"`
	SavedAt   time.Time       `json:"saved_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// IsExpired returns true if the snapshot has expired.
func (s *Snapshot) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Get retrieves a snapshot by session ID.
	// Returns nil, nil if the snapshot doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Snapshot, error)

	// Set stores a snapshot.
	Set(ctx context.Context, snap *Snapshot) error

	// Delete removes a snapshot.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired snapshots.
	Cleanup(ctx context.Context) error
}

// ValidateID checks that id is a session ID issued by [New].
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid session id %q", id)
	}
	return nil
}

// Snapshot captures the session for persistence. Pending property edits
// are committed first. The snapshot is retained for the session TTL.
func (s *Session) Snapshot(ctx context.Context) (*Snapshot, error) {
	doc, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.machine.State()
	now := time.Now()
	return &Snapshot{
		ID:        s.ID,
		Document:  doc,
		Tool:      st.Tool.String(),
		Viewport:  st.Viewport,
		CreatedAt: s.CreatedAt,
		SavedAt:   now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}, nil
}

// Restore rebuilds a session from a snapshot, keeping its ID.
func Restore(ctx context.Context, snap *Snapshot, cfg Config) (*Session, error) {
	if snap.Viewport.Width > 0 && snap.Viewport.Height > 0 {
		cfg.Viewport = snap.Viewport
	}
	s := newWithID(snap.ID, cfg)
	if !snap.CreatedAt.IsZero() {
		s.CreatedAt = snap.CreatedAt
	}
	if len(snap.Document) > 0 {
		if _, err := s.Import(ctx, snap.Document); err != nil {
			s.Close()
			return nil, err
		}
	}
	if tool, err := canvas.ParseTool(snap.Tool); err == nil && tool != canvas.ToolNone {
		s.SetTool(ctx, tool)
	}
	return s, nil
}

// MemoryStore keeps snapshots in memory. It is useful for tests and for a
// server that only needs to survive session eviction, not restarts.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]*Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]*Snapshot)}
}

func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[sessionID]
	if !ok || snap.IsExpired() {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

func (m *MemoryStore) Set(ctx context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *snap
	m.snaps[snap.ID] = &cp
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, sessionID)
	return nil
}

func (m *MemoryStore) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, snap := range m.snaps {
		if snap.IsExpired() {
			delete(m.snaps, id)
		}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
