package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	customerrors "github.com/vborgne/urlshortener/internal/errors"
)

// TokenManager issues and verifies the JWT access and refresh tokens used by
// the API. Both token kinds share the signing secret and differ only in
// lifetime; the refresh token is additionally checked against the copy
// persisted on the user row when redeemed.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager creates a TokenManager with the given secret and lifetimes.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type userClaims struct {
	UserID uint `json:"uid"`
	jwt.RegisteredClaims
}

// GenerateAccessToken issues a short-lived access token for the user.
func (m *TokenManager) GenerateAccessToken(userID uint) (string, error) {
	return m.generate(userID, m.accessTTL)
}

// GenerateRefreshToken issues a long-lived refresh token for the user.
func (m *TokenManager) GenerateRefreshToken(userID uint) (string, error) {
	return m.generate(userID, m.refreshTTL)
}

func (m *TokenManager) generate(userID uint, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := userClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token's signature and expiry and returns the user ID
// it was issued for.
func (m *TokenManager) ParseToken(token string) (uint, error) {
	var claims userClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, customerrors.ErrInvalidToken
	}
	return claims.UserID, nil
}
