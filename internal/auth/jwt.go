// Package auth provides shared-secret bearer tokens for the bridge
// REST API. There is no user database: tokens are minted offline with
// `weather-bridge -gen-token` and validated against the configured
// secret.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/btleweather/btleweather/internal/config"
)

// TokenManager mints and validates API tokens.
type TokenManager struct {
	secret string
	ttl    time.Duration
}

// NewTokenManager creates a token manager from the API configuration.
func NewTokenManager(cfg *config.APIConfig) *TokenManager {
	return &TokenManager{
		secret: cfg.AuthSecret,
		ttl:    cfg.TokenTTL,
	}
}

// Enabled reports whether authentication is configured at all. With no
// secret the API is open and the middleware is a no-op.
func (m *TokenManager) Enabled() bool {
	return m.secret != ""
}

// Generate mints a token for the given subject.
func (m *TokenManager) Generate(subject string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		NotBefore: jwt.NewNumericDate(time.Now()),
		Issuer:    "weather-bridge",
		ID:        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Validate validates a token and returns its claims.
func (m *TokenManager) Validate(tokenString string) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
