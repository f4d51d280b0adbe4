// Package session decides whether the stored login token grants access to
// the back office and clears it when it does not.
package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded login token payload.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Decode reads the token payload without checking its signature. Only the
// server can verify the signature; the gate uses the claims to decide
// what to show.
func Decode(token string) (*Claims, error) {
	const op = "session.Decode"

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &claims, nil
}
