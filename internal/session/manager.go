// Package session owns the process-wide token map. Sessions are
// volatile: a restart invalidates every outstanding token.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"scriptvault/api/internal/apperr"
	"scriptvault/api/internal/models"
	"scriptvault/api/internal/security"
)

const DefaultTTL = 24 * time.Hour

// Session is the in-memory state behind one token.
type Session struct {
	Token     string
	Username  string
	Role      models.UserRole
	CreatedAt time.Time
}

// Manager maps opaque tokens to sessions behind a single mutex. All
// mutation goes through Manager methods; the periodic sweep takes the
// same lock as the request path. No remote I/O ever happens under the
// lock.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewManager(ttl time.Duration, log zerolog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
		log:      log,
	}
}

// Create issues a fresh token for the user. Multiple concurrent sessions
// per user are allowed.
func (m *Manager) Create(username string, role models.UserRole) (Session, error) {
	token, err := security.GenerateSessionToken()
	if err != nil {
		return Session{}, apperr.Wrap(apperr.KindInternal, "failed to create session", err)
	}

	s := Session{
		Token:     token,
		Username:  username,
		Role:      role,
		CreatedAt: m.now(),
	}

	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()

	return s, nil
}

// Validate resolves a token, expiring it lazily: an entry past its TTL is
// removed on the spot regardless of sweep cadence.
func (m *Manager) Validate(token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return Session{}, apperr.New(apperr.KindUnauthorized, "invalid session")
	}
	if m.now().Sub(s.CreatedAt) > m.ttl {
		delete(m.sessions, token)
		return Session{}, apperr.New(apperr.KindUnauthorized, "session expired")
	}
	return s, nil
}

// RequireRole validates the token and checks the role.
func (m *Manager) RequireRole(token string, role models.UserRole) (Session, error) {
	s, err := m.Validate(token)
	if err != nil {
		return Session{}, err
	}
	if s.Role != role {
		return Session{}, apperr.New(apperr.KindForbidden, "insufficient privileges")
	}
	return s, nil
}

// Destroy removes the token, reporting whether it existed.
func (m *Manager) Destroy(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sessions[token]
	delete(m.sessions, token)
	return ok
}

// Sweep evicts every expired entry and returns the eviction count. It
// bounds memory growth from abandoned sessions independently of lazy
// validation.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for token, s := range m.sessions {
		if now.Sub(s.CreatedAt) > m.ttl {
			delete(m.sessions, token)
			evicted++
		}
	}
	if evicted > 0 {
		m.log.Info().Int("evicted", evicted).Msg("session sweep")
	}
	return evicted
}

// Count returns the number of live entries, expired or not.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
