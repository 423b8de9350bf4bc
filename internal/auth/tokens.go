package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"thinkwise/internal/errors"
	"thinkwise/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the JWT payload issued at login. Subject carries the user ID.
type Claims struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies HS256 access tokens
type TokenSigner struct {
	secret []byte
	expiry time.Duration
}

// NewTokenSigner creates a token signer. The secret must be non-empty;
// config validation enforces that before boot.
func NewTokenSigner(secret string, expiry time.Duration) *TokenSigner {
	return &TokenSigner{secret: []byte(secret), expiry: expiry}
}

// Sign issues an access token for the user
func (s *TokenSigner) Sign(user *models.User, now time.Time) (string, error) {
	claims := Claims{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}
	return signed, nil
}

// Verify parses and validates an access token, returning the user ID and
// claims. Expired, tampered, or wrongly signed tokens are rejected.
func (s *TokenSigner) Verify(tokenString string) (uuid.UUID, *Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Unauthorized("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, nil, errors.Unauthorized("invalid or expired token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, nil, errors.Unauthorized("invalid token subject")
	}

	return userID, claims, nil
}

// NewResetToken generates a password reset token. The raw token goes to
// the user by email; only its SHA-256 hex digest is stored, so a leaked
// database cannot redeem resets.
func NewResetToken() (raw string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, "failed to generate reset token")
	}
	raw = hex.EncodeToString(buf)
	return raw, HashResetToken(raw), nil
}

// HashResetToken returns the storage digest of a raw reset token
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
