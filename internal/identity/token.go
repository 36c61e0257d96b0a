package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeAccess  = "access"
	PurposeConfirm = "confirm"
)

// TokenManager signs and verifies the HS256 tokens used for sessions and
// e-mail confirmation links.
type TokenManager struct {
	Secret     []byte
	AccessTTL  time.Duration
	ConfirmTTL time.Duration
	Issuer     string
}

type Claims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func (m *TokenManager) newToken(userID, email, purpose, jti string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(ttl)
	claims := Claims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    m.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
	return signed, expires, err
}

// NewAccessToken issues a session token; jti names the session in the registry.
func (m *TokenManager) NewAccessToken(userID, email, jti string) (string, time.Time, error) {
	return m.newToken(userID, email, PurposeAccess, jti, m.AccessTTL)
}

func (m *TokenManager) NewConfirmToken(userID, email string) (string, error) {
	token, _, err := m.newToken(userID, email, PurposeConfirm, "", m.ConfirmTTL)
	return token, err
}

// Parse verifies tokenStr and checks it was issued for purpose.
func (m *TokenManager) Parse(tokenStr, purpose string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	}, jwt.WithIssuer(m.Issuer))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Purpose != purpose {
		return nil, errors.New("token purpose mismatch")
	}
	if claims.Subject == "" {
		return nil, errors.New("token without subject")
	}
	return claims, nil
}
