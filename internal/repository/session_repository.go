package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stemsi/surveylab/internal/model"
)

var (
	// ErrSessionNotFound is returned when no live session exists for an id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionConflict is returned by Save when the stored session changed
	// since it was read.
	ErrSessionConflict = errors.New("session was modified concurrently")
)

// SessionRepository stores wizard sessions keyed by session id.
//
// Save is a compare-and-set on Session.Version: it succeeds only when the
// stored version equals s.Version (or nothing is stored and s.Version is
// zero), and bumps s.Version on success. A session deleted since it was read
// yields ErrSessionNotFound rather than being recreated.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	Exists(ctx context.Context, id string) (bool, error)
	Save(ctx context.Context, s *model.Session) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	session   *model.Session
	expiresAt time.Time
}

// MemorySessionRepository keeps sessions in process memory. Sessions vanish
// on restart or once their TTL elapses.
type MemorySessionRepository struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemorySessionRepository returns an empty store. A zero ttl disables expiry.
func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *MemorySessionRepository) Get(_ context.Context, id string) (*model.Session, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if r.expired(e) {
		r.mu.Lock()
		delete(r.entries, id)
		r.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return e.session.Clone(), nil
}

func (r *MemorySessionRepository) Exists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return ok && !r.expired(e), nil
}

func (r *MemorySessionRepository) Save(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.entries[s.ID]
	if ok && r.expired(cur) {
		delete(r.entries, s.ID)
		ok = false
	}
	switch {
	case !ok && s.Version != 0:
		return ErrSessionNotFound
	case ok && cur.session.Version != s.Version:
		return ErrSessionConflict
	}

	stored := s.Clone()
	stored.Version++
	e := memoryEntry{session: stored}
	if r.ttl > 0 {
		e.expiresAt = r.now().Add(r.ttl)
	}
	r.entries[s.ID] = e
	s.Version = stored.Version
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (r *MemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *MemorySessionRepository) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && r.now().After(e.expiresAt)
}
