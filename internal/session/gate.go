package session

import (
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"

	"github.com/sellbook/sellbook/internal/domain"
)

type State int

const (
	Valid State = iota
	NoToken
	DecodeFailed
	Expired
	WrongRole
)

func (s State) String() string {
	switch s {
	case Valid:
		return "valid"
	case NoToken:
		return "no-token"
	case DecodeFailed:
		return "decode-failed"
	case Expired:
		return "expired"
	case WrongRole:
		return "wrong-role"
	}
	return "unknown"
}

// LoginPath is where every denied check redirects.
const LoginPath = "/login"

var notices = map[State]string{
	NoToken:      "You need to log in to access this page.",
	DecodeFailed: "Invalid session. Please log in again.",
	Expired:      "Your session has expired. Please log in again.",
	WrongRole:    "You do not have permission to access this page.",
}

// Notice returns the message shown for a denied state.
func Notice(s State) string {
	return notices[s]
}

// Decision is the outcome of one gate check.
type Decision struct {
	State    State
	Claims   *Claims
	Redirect string
	Notice   string
}

func (d Decision) Allowed() bool { return d.State == Valid }

// Err returns nil for an allowed decision and an *AuthError otherwise.
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	return &AuthError{State: d.State, Notice: d.Notice}
}

// AuthError reports a denied session. Its message is the user notice.
type AuthError struct {
	State  State
	Notice string
}

func (e *AuthError) Error() string { return e.Notice }

// Gate checks the stored token on entry to any protected view.
type Gate struct {
	store  Store
	clock  clockwork.Clock
	role   string
	logger *slog.Logger
}

func NewGate(store Store, clock clockwork.Clock, logger *slog.Logger) *Gate {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Gate{
		store:  store,
		clock:  clock,
		role:   domain.RoleSuperAdmin,
		logger: logger,
	}
}

// Check decodes the stored token and verifies expiry and role, in that
// order. Every denied outcome except NoToken clears the stored token.
func (g *Gate) Check() Decision {
	token, err := g.store.Load()
	if err != nil {
		g.logger.Warn("failed to load session token", "error", err)
	}
	if token == "" {
		return deny(NoToken)
	}

	claims, err := Decode(token)
	if err != nil {
		g.logger.Debug("session token rejected", "error", err)
		return g.clear(DecodeFailed)
	}

	if exp := claims.ExpiresAt; exp != nil && exp.Time.Before(g.clock.Now()) {
		return g.clear(Expired)
	}

	if claims.Role != g.role {
		return g.clear(WrongRole)
	}

	return Decision{State: Valid, Claims: claims}
}

// Reject handles a token the server refused. A 403 means the role is not
// allowed; anything else re-runs the local checks to pick the notice, and
// falls back to an invalid session when the token still looks valid.
func (g *Gate) Reject(status int) Decision {
	if status == http.StatusForbidden {
		return g.clear(WrongRole)
	}

	d := g.Check()
	if d.Allowed() {
		return g.clear(DecodeFailed)
	}
	return d
}

func (g *Gate) clear(s State) Decision {
	if err := g.store.Clear(); err != nil {
		g.logger.Warn("failed to clear session token", "error", err)
	}
	return deny(s)
}

func deny(s State) Decision {
	return Decision{State: s, Redirect: LoginPath, Notice: notices[s]}
}
