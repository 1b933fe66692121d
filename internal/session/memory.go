package session

import (
	"context"
	"sync"
	"time"

	"github.com/DukeRupert/svelectricals/internal/domain"
	"github.com/google/uuid"
)

type memoryLock struct {
	token string
	until time.Time
}

type memoryEntry struct {
	state     *domain.FormState
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Suitable for a single
// instance; state is lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	locks    map[string]memoryLock
	ttl      time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a store whose entries expire after ttl of
// inactivity. A background goroutine sweeps expired entries until Close.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		locks:    make(map[string]memoryLock),
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go s.cleanup()
	return s
}

// cleanup periodically removes expired sessions and stale locks.
func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.sessions {
		if now.After(e.expiresAt) {
			delete(s.sessions, id)
		}
	}
	for id, l := range s.locks {
		if now.After(l.until) {
			delete(s.locks, id)
		}
	}
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

// load returns the live entry for id. Callers hold s.mu.
func (s *MemoryStore) load(id string) *domain.FormState {
	e, ok := s.sessions[id]
	if !ok || s.now().After(e.expiresAt) {
		return domain.NewFormState()
	}
	return e.state.Clone()
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*domain.FormState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id), nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, id string, fn UpdateFunc) (*domain.FormState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load(id)
	if err := fn(state); err != nil {
		return nil, err
	}
	s.sessions[id] = &memoryEntry{state: state.Clone(), expiresAt: s.now().Add(s.ttl)}
	return state, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// TryLock implements Store.
func (s *MemoryStore) TryLock(_ context.Context, id string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if l, ok := s.locks[id]; ok && now.Before(l.until) {
		return "", ErrLocked
	}
	token := uuid.NewString()
	s.locks[id] = memoryLock{token: token, until: now.Add(ttl)}
	return token, nil
}

// Unlock implements Store.
func (s *MemoryStore) Unlock(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[id]; ok && l.token == token {
		delete(s.locks, id)
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
