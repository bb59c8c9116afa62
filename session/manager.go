package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultTTL = time.Hour

// Manager keeps the live sessions, keyed by a random UUID.
type Manager struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Manager{
		ttl:      ttl,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
}

// Get returns the session for id, creating a new session with a fresh ID if
// id is unknown or has expired. The second return value is true for a new
// session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	if s, ok := m.sessions[id]; ok {
		if s.idle(now) < m.ttl {
			s.touch(now)
			return s, false
		}

		delete(m.sessions, id)
	}

	s := New(uuid.NewString())
	s.touch(now)
	m.sessions[s.ID] = s

	return s, true
}

// Prune removes every session idle for longer than the TTL and returns the
// number removed.
func (m *Manager) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	pruned := 0

	for id, s := range m.sessions {
		if s.idle(now) >= m.ttl {
			delete(m.sessions, id)
			pruned++
		}
	}

	return pruned
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}
