// Package session keeps the admin flag of a browser session.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession is returned for tokens that are unknown, expired or tampered with
var ErrInvalidSession = errors.New("invalid session")

// tokenStore keeps the session inside an HMAC-signed JWT so no server-side state is needed
type tokenStore struct {
	secret string
}

// NewTokenStore creates a new signed-cookie session store
func NewTokenStore(secret string) *tokenStore {
	return &tokenStore{
		secret: secret,
	}
}

// Issue signs a new admin session token valid for ttl
func (s *tokenStore) Issue(ctx context.Context, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"admin": true,
		"exp":   time.Now().Add(ttl).Unix(),
		"iat":   time.Now().Unix(),
		"type":  "session",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Validate checks the signature, expiry and admin flag of a session token
func (s *tokenStore) Validate(ctx context.Context, tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrInvalidSession
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "session" {
		return fmt.Errorf("%w: not a session token", ErrInvalidSession)
	}

	admin, ok := claims["admin"].(bool)
	if !ok || !admin {
		return fmt.Errorf("%w: admin flag not set", ErrInvalidSession)
	}

	return nil
}

// Revoke is a no-op: a signed token stays valid until it expires, the cookie is simply dropped
func (s *tokenStore) Revoke(ctx context.Context, tokenString string) error {
	return nil
}
