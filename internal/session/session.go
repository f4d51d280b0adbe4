package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
)

// Session is the signed-in context handed to everything that talks to
// the API. It owns the token store and the gate.
type Session struct {
	store Store
	gate  *Gate

	mu     sync.RWMutex
	claims *Claims
}

func New(store Store, clock clockwork.Clock, logger *slog.Logger) *Session {
	return &Session{
		store: store,
		gate:  NewGate(store, clock, logger),
	}
}

// Init runs the gate against the stored token, as on application load.
func (s *Session) Init() Decision {
	return s.apply(s.gate.Check())
}

// Establish stores a freshly issued token and checks it.
func (s *Session) Establish(token string) (Decision, error) {
	const op = "session.Session.Establish"

	if err := s.store.Save(token); err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}

	d := s.apply(s.gate.Check())
	return d, d.Err()
}

// Token returns the bearer token for a request, running the gate first.
// A denied gate yields an *AuthError and clears the token.
func (s *Session) Token() (string, error) {
	d := s.apply(s.gate.Check())
	if !d.Allowed() {
		return "", d.Err()
	}

	token, err := s.store.Load()
	if err != nil {
		return "", fmt.Errorf("session.Session.Token: %w", err)
	}
	return token, nil
}

// Revoke ends the session after the server refused the token with status.
func (s *Session) Revoke(status int) *AuthError {
	d := s.apply(s.gate.Reject(status))
	return &AuthError{State: d.State, Notice: d.Notice}
}

// User returns the signed-in claims, if any.
func (s *Session) User() (*Claims, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims, s.claims != nil
}

func (s *Session) Logout() error {
	s.mu.Lock()
	s.claims = nil
	s.mu.Unlock()

	return s.store.Clear()
}

func (s *Session) apply(d Decision) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.Allowed() {
		s.claims = d.Claims
	} else {
		s.claims = nil
	}
	return d
}
