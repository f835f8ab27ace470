package utils // package utils provides helper functions for token creation and hashing

import (
	"errors" // sentinel errors for callers
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionTTL is the fixed validity of a session token. There is no refresh
// flow; clients log in again once a token expires.
const SessionTTL = 7 * 24 * time.Hour

// ErrNoSecret is returned when a token operation is attempted while no
// signing secret is configured.
var ErrNoSecret = errors.New("jwt secret is not configured")

// SessionClaims is the payload carried by a session token. The JSON names
// are part of the public token format and must stay stable.
type SessionClaims struct {
	UserID   uint64 `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewSessionToken builds and signs an HS256 JWT for a user. The token is
// valid for SessionTTL starting at now. It returns the signed token and its
// expiration time.
func NewSessionToken(secret string, userID uint64, username, role string, now time.Time) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, ErrNoSecret
	}
	exp := now.UTC().Add(SessionTTL)
	claims := SessionClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now.UTC()),
		},
	}
	// Sign the token with the provided secret and obtain the string form.
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseSessionToken validates raw against secret and returns its claims.
// Only HS256 is accepted; tokens signed with any other algorithm, expired
// tokens and tokens without an expiry are rejected.
func ParseSessionToken(secret, raw string) (*SessionClaims, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	claims := &SessionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return claims, nil
}
