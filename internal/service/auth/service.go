package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/repository"
	postgresrepo "github.com/sellbook/sellbook/internal/repository/postgres"
	redisrepo "github.com/sellbook/sellbook/internal/repository/redis"
	"github.com/sellbook/sellbook/internal/session"
)

type Service struct {
	store   *postgresrepo.Store
	limiter *redisrepo.LoginLimiter
	tokens  *Tokens
	clock   clockwork.Clock
	logger  *slog.Logger
}

func New(
	store *postgresrepo.Store,
	limiter *redisrepo.LoginLimiter,
	tokens *Tokens,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:   store,
		limiter: limiter,
		tokens:  tokens,
		clock:   clock,
		logger:  logger,
	}
}

// Login checks the credentials and returns a signed token. Attempts are
// limited per client address and per account; a successful login clears
// the account's attempts.
//
// Returns:
//   - error: *auth.RateLimitError if the caller made too many attempts.
//   - error: auth.ErrInvalidCredentials if the email or password is wrong.
func (s *Service) Login(ctx context.Context, email, password, client string) (string, domain.User, error) {
	const op = "service.auth.Login"

	if s.limiter != nil {
		v, err := s.limiter.Attempt(ctx, client, email)
		if err != nil {
			return "", domain.User{}, fmt.Errorf("%s: %w", op, err)
		}
		if !v.Allowed {
			s.logger.Warn("login attempts limited", "client", client, "attempts", v.Attempts)
			return "", domain.User{}, fmt.Errorf("%s: %w", op, &RateLimitError{RetryAfter: v.RetryAfter})
		}
	}

	u, err := s.store.Users().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.User{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if !CheckPassword(u.PasswordHash, password) {
		return "", domain.User{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if s.limiter != nil {
		if err := s.limiter.Clear(ctx, email); err != nil {
			s.logger.Warn("failed to clear login attempts", "email", u.Email, "error", err)
		}
	}

	s.logger.Info("user logged in", "email", u.Email, "role", u.Role)

	return token, u, nil
}

// Verify checks a token presented on a request.
func (s *Service) Verify(raw string) (*session.Claims, error) {
	return s.tokens.Verify(raw)
}

// EnsureAdmin creates the super admin account, or resets its password when
// it already exists. It does nothing when email or password is empty.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	const op = "service.auth.EnsureAdmin"

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.store.Users().Upsert(ctx, domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleSuperAdmin,
		CreatedAt:    s.clock.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
