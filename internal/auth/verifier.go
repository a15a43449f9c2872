package auth

import (
	"errors"
	"strings"
)

var (
	ErrMissingToken  = errors.New("missing bearer token")
	ErrNotConfigured = errors.New("no token verifier configured")
	ErrInvalidHeader = errors.New("invalid authorization header format")
)

// Identity is the authenticated user behind a request
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// TokenVerifier validates a bearer token and returns who it belongs to
type TokenVerifier interface {
	Validate(tokenString string) (*Identity, error)
}

// Chain tries each verifier in order and returns the first identity that
// validates. An empty chain rejects every token.
type Chain []TokenVerifier

func (ch Chain) Validate(tokenString string) (*Identity, error) {
	var lastErr error = ErrNotConfigured
	for _, v := range ch {
		id, err := v.Validate(tokenString)
		if err == nil {
			return id, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Configured reports whether at least one verifier is present.
func (ch Chain) Configured() bool {
	return len(ch) > 0
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", ErrInvalidHeader
	}
	return parts[1], nil
}
