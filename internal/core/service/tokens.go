package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/t2m/license-platform/internal/core/domain"
)

// TokenIssuer mints and verifies the two JWT kinds. Access tokens carry
// enough identity to authorize requests without a storage lookup; refresh
// tokens carry only the subject plus a random jti so that two logins in the
// same second still produce distinct session entries.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// MintAccess issues a short-lived access token for the user.
func (t *TokenIssuer) MintAccess(u *domain.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":     u.ID,
		"email":   u.Email,
		"name":    u.Name,
		"role_id": u.RoleID,
		"iat":     now.Unix(),
		"exp":     now.Add(t.accessTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
}

// MintRefresh issues an opaque-to-the-client refresh token bound to userID.
func (t *TokenIssuer) MintRefresh(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": userID,
		"jti": randomJTI(),
		"iat": now.Unix(),
		"exp": now.Add(t.refreshTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
}

// ParseRefresh verifies signature and expiry and returns the subject.
func (t *TokenIssuer) ParseRefresh(token string) (string, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if tok.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return t.refreshSecret, nil
	})
	if err != nil || !parsed.Valid {
		return "", domain.ErrInvalidSession
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", domain.ErrInvalidSession
	}
	return sub, nil
}

// RefreshAlive reports whether a stored refresh token still verifies. Used
// by the session sweeper to drop abandoned sessions.
func (t *TokenIssuer) RefreshAlive(token string) bool {
	_, err := t.ParseRefresh(token)
	return err == nil
}

func randomJTI() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
