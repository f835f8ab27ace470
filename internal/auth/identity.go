// Package auth resolves who is making a request: the bearer identity carried
// by a session token, and whether the request holds the admin override.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cms-backend/internal/apperr"
	"github.com/iliyamo/cms-backend/internal/utils"
)

// Identity is an authenticated principal derived from a verified token.
// It is never constructed from unverified input.
type Identity struct {
	UserID   uint64 `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Tokens issues and verifies session tokens with a single HS256 secret.
type Tokens struct {
	secret string
	now    func() time.Time
}

// NewTokens returns a token service. An empty secret is accepted; every
// operation then fails with ServerMisconfigured.
func NewTokens(secret string) *Tokens {
	return &Tokens{secret: secret, now: time.Now}
}

// Configured reports whether a signing secret is present.
func (t *Tokens) Configured() bool { return t.secret != "" }

// Issue signs a token for id, valid for seven days.
func (t *Tokens) Issue(id Identity) (string, error) {
	if !t.Configured() {
		return "", apperr.New(apperr.ServerMisconfigured, "server misconfigured: JWT_SECRET is not set")
	}
	raw, _, err := utils.NewSessionToken(t.secret, id.UserID, id.Username, id.Role, t.now())
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "failed to sign token", err)
	}
	return raw, nil
}

// Verify returns the identity carried by raw. Any verification failure
// (expired, tampered, wrong secret or algorithm) is InvalidSession.
func (t *Tokens) Verify(raw string) (*Identity, error) {
	if !t.Configured() {
		return nil, apperr.New(apperr.ServerMisconfigured, "server misconfigured: JWT_SECRET is not set")
	}
	claims, err := utils.ParseSessionToken(t.secret, raw)
	if err != nil {
		if errors.Is(err, utils.ErrNoSecret) {
			return nil, apperr.New(apperr.ServerMisconfigured, "server misconfigured: JWT_SECRET is not set")
		}
		return nil, apperr.Wrap(apperr.InvalidSession, "invalid or expired token", err)
	}
	if claims.UserID == 0 {
		return nil, apperr.New(apperr.InvalidSession, "invalid or expired token")
	}
	return &Identity{UserID: claims.UserID, Username: claims.Username, Role: claims.Role}, nil
}

// BearerToken extracts the credential from an Authorization header value.
// The scheme is matched case-insensitively; an empty credential is treated
// as absent.
func BearerToken(header string) (string, bool) {
	scheme, cred, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	cred = strings.TrimSpace(cred)
	if cred == "" {
		return "", false
	}
	return cred, true
}
