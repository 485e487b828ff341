package session

import (
	"sync"
	"time"
)

// Config holds window sizing for new sessions.
type Config struct {
	AnalyticWindow int
	DisplayWindow  int
}

// DefaultConfig returns the default window sizes.
func DefaultConfig() Config {
	return Config{
		AnalyticWindow: DefaultAnalyticWindow,
		DisplayWindow:  DefaultDisplayWindow,
	}
}

// Manager maps session keys to sessions. The map lock is only held for
// lookup and insert; per-session work happens under each session's own
// lock, so unrelated sessions never serialize on each other.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      Config
}

// NewManager creates a session manager.
func NewManager(cfg Config) *Manager {
	if cfg.AnalyticWindow <= 0 {
		cfg.AnalyticWindow = DefaultAnalyticWindow
	}
	if cfg.DisplayWindow <= 0 {
		cfg.DisplayWindow = DefaultDisplayWindow
	}
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
	}
}

// Get returns the session for key, creating it on first use.
func (m *Manager) Get(key string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[key]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		return s
	}
	s = newSession(key, m.cfg.AnalyticWindow, m.cfg.DisplayWindow, time.Now())
	m.sessions[key] = s
	return s
}

// Peek returns the session for key without creating one.
func (m *Manager) Peek(key string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[key]
	return s, ok
}

// Reset clears a session's rolling state in place. Unknown keys are a
// no-op.
func (m *Manager) Reset(key string) {
	if s, ok := m.Peek(key); ok {
		s.reset()
	}
}

// Remove drops a session entirely.
func (m *Manager) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

// Evict removes sessions idle longer than maxIdle and returns how many
// were dropped. Session TTL policy belongs to the caller; this is the
// sweep primitive it drives.
func (m *Manager) Evict(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
