// Package token issues and verifies the signed bearer tokens used for
// authentication. Tokens are HS256 JWTs whose subject is the user ID.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskforge/task-manager-api/internal/constants"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Manager signs and parses authentication tokens with a shared secret.
type Manager struct {
	secret   []byte
	lifetime time.Duration
}

// NewManager creates a Manager with the fixed 7-day token lifetime.
func NewManager(secret string) *Manager {
	return &Manager{
		secret:   []byte(secret),
		lifetime: constants.TokenLifetime,
	}
}

// Generate returns a signed token for the given user.
func (m *Manager) Generate(userID uint64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token string and returns the user ID it was issued for.
func (m *Manager) Parse(tokenString string) (uint64, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
