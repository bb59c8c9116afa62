// Package session holds the per-visitor state of the voting page: the copy of
// the album table being displayed and any notices waiting to be shown.
package session

import (
	"sync"
	"time"

	"github.com/nacionrock/album-votes/poll"
)

type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Session is the explicit, per-visitor replacement for shared page state. The
// table copy is only ever replaced wholesale.
type Session struct {
	ID string

	mu       sync.Mutex
	table    poll.Table
	loaded   bool
	notices  []Notice
	lastSeen time.Time
}

func New(id string) *Session {
	return &Session{
		ID:       id,
		table:    poll.Empty(),
		lastSeen: time.Now(),
	}
}

// Table returns a copy of the session's table.
func (s *Session) Table() poll.Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.table.Clone()
}

// Loaded is false until the first Replace.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loaded
}

func (s *Session) Replace(table poll.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.table = table.Clone()
	s.loaded = true
}

func (s *Session) Notify(level Level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notices = append(s.notices, Notice{Level: level, Message: message})
}

// Notices returns and clears the pending notices.
func (s *Session) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	notices := s.notices
	s.notices = nil

	return notices
}

// Pending returns the number of notices waiting to be shown.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.notices)
}

// Discard drops the notices posted after the first n, leaving older notices
// in place.
func (s *Session) Discard(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n >= 0 && n < len(s.notices) {
		s.notices = s.notices[:n:n]
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = now
}

func (s *Session) idle(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return now.Sub(s.lastSeen)
}
