package session

import (
	"context"
	"sync"
	"time"

	"github.com/windoze95/saltybytes-search/internal/i18n"
	"github.com/windoze95/saltybytes-search/internal/logger"
	"github.com/windoze95/saltybytes-search/internal/metrics"
	"github.com/windoze95/saltybytes-search/internal/state"
	"go.uber.org/zap"
)

const DefaultTTL = 30 * time.Minute

// PublishFunc receives every snapshot a session publishes.
type PublishFunc func(sessionID string, snap state.Snapshot)

// Manager owns the live sessions, keyed by session id.
type Manager struct {
	api  API
	tr   *i18n.Catalog
	opts Options
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	publish  PublishFunc
}

// NewManager creates an empty manager. A ttl of zero means DefaultTTL.
func NewManager(api API, tr *i18n.Catalog, opts Options, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		api:      api,
		tr:       tr,
		opts:     opts,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// OnPublish sets the hook handed to sessions created afterwards.
func (m *Manager) OnPublish(fn PublishFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publish = fn
}

// Get returns the session for id, creating it in locale if needed.
func (m *Manager) Get(id, locale string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}

	s := New(id, m.api, m.tr, locale, m.opts)
	m.sessions[id] = s
	metrics.SessionOpened()
	logger.Get().Info("session created", zap.String("session_id", id), zap.String("locale", s.Snapshot().Locale))

	if m.publish != nil {
		publish := m.publish
		ch, _ := s.Subscribe()
		go func() {
			for snap := range ch {
				publish(id, snap)
			}
		}()
	}
	return s
}

// Lookup returns the session for id without creating one.
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the ttl and returns how many
// were removed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
		metrics.SessionClosed()
		logger.Get().Info("session expired", zap.String("session_id", s.ID))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		metrics.SessionClosed()
	}
}
