package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/session"
)

// Tokens issues and verifies HS256 login tokens carrying the user's email
// and role.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

func NewTokens(secret string, ttl time.Duration, clock clockwork.Clock) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Tokens{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clock,
	}
}

func (t *Tokens) Issue(u domain.User) (string, error) {
	const op = "auth.Tokens.Issue"

	now := t.clock.Now()
	claims := session.Claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Verify checks the signature and expiry of raw.
//
// Returns:
//   - error: auth.ErrTokenExpired if the token is past its expiry.
//   - error: auth.ErrInvalidToken for any other failure.
func (t *Tokens) Verify(raw string) (*session.Claims, error) {
	const op = "auth.Tokens.Verify"

	var claims session.Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock.Now),
	)
	switch {
	case err == nil:
		return &claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
	default:
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}
}
