// Package session keeps one wizard per browser session in memory.
package session

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/accreditkit/quoteform/internal/wizard"
	"github.com/accreditkit/quoteform/pkg/logging"
)

// CookieName carries the session id.
const CookieName = "quoteform_session"

// Common manager errors.
var (
	ErrNotFound = errors.New("session not found")
	ErrClosed   = errors.New("session manager is closed")
)

// Factory builds the wizard for a new session.
type Factory func(id string) *wizard.Wizard

type entry struct {
	wizard   *wizard.Wizard
	lastSeen time.Time
}

// Manager is an in-memory registry of wizards keyed by session id.
// Sessions idle for longer than the TTL are dropped by a background loop.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*entry
	closed    bool
	cleanupCh chan struct{}
	done      chan struct{}

	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	factory  Factory
	logger   logging.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets how long an idle session survives.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) { m.ttl = d }
}

// WithCleanupInterval sets how often expired sessions are swept.
func WithCleanupInterval(d time.Duration) Option {
	return func(m *Manager) { m.interval = d }
}

// WithClock sets the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithFactory sets the wizard constructor.
func WithFactory(f Factory) Option {
	return func(m *Manager) { m.factory = f }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager and starts its cleanup loop.
// Close must be called to stop it.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:  make(map[string]*entry),
		cleanupCh: make(chan struct{}),
		done:      make(chan struct{}),
		ttl:       30 * time.Minute,
		interval:  time.Minute,
		now:       time.Now,
		factory:   func(string) *wizard.Wizard { return wizard.New() },
		logger:    logging.DefaultLogger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.interval <= 0 {
		m.interval = time.Minute
	}

	go m.cleanupLoop()
	return m
}

// Create starts a new session.
func (m *Manager) Create() (string, *wizard.Wizard, error) {
	id := uuid.NewString()
	w := m.factory(id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", nil, ErrClosed
	}
	m.sessions[id] = &entry{wizard: w, lastSeen: m.now()}
	m.logger.Debug("session created", logging.String("session", id))
	return id, w, nil
}

// Get returns the wizard for id and marks the session as used.
func (m *Manager) Get(id string) (*wizard.Wizard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	e, ok := m.sessions[id]
	if !ok || m.expired(e) {
		return nil, ErrNotFound
	}
	e.lastSeen = m.now()
	return e.wizard, nil
}

// GetOrCreate returns the session for id, or a new one when id is
// unknown or expired.
func (m *Manager) GetOrCreate(id string) (string, *wizard.Wizard, error) {
	if id != "" {
		w, err := m.Get(id)
		if err == nil {
			return id, w, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", nil, err
		}
	}
	return m.Create()
}

// Delete ends a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the cleanup loop and drops every session.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.sessions = make(map[string]*entry)
	close(m.cleanupCh)
	m.mu.Unlock()

	<-m.done
	return nil
}

func (m *Manager) expired(e *entry) bool {
	return m.ttl > 0 && m.now().Sub(e.lastSeen) > m.ttl
}

// cleanupLoop periodically removes expired sessions.
func (m *Manager) cleanupLoop() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.cleanupCh:
			return
		}
	}
}

// cleanup removes expired sessions and returns how many were dropped.
func (m *Manager) cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, e := range m.sessions {
		if m.expired(e) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		m.logger.Debug("sessions expired", logging.Int("count", n), logging.Int("live", len(m.sessions)))
	}
	return n
}

// FromRequest returns the session id cookie of r, or "".
func FromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// SetCookie writes the session cookie.
func SetCookie(w http.ResponseWriter, id string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
