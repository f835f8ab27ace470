package auth

import "github.com/iliyamo/cms-backend/internal/apperr"

// Resolver turns an Authorization header into an Identity.
type Resolver struct {
	tokens *Tokens
}

func NewResolver(tokens *Tokens) *Resolver {
	return &Resolver{tokens: tokens}
}

// Required resolves the identity of a request that must be authenticated.
// A missing or malformed header is Unauthenticated; a missing secret is
// ServerMisconfigured; a token that fails verification is InvalidSession.
func (r *Resolver) Required(header string) (*Identity, error) {
	raw, ok := BearerToken(header)
	if !ok {
		return nil, apperr.New(apperr.Unauthenticated, "missing bearer token")
	}
	return r.tokens.Verify(raw)
}

// Optional resolves the identity when one is present and valid. Every
// failure, including a missing secret, yields an anonymous (nil) identity.
func (r *Resolver) Optional(header string) *Identity {
	raw, ok := BearerToken(header)
	if !ok {
		return nil
	}
	id, err := r.tokens.Verify(raw)
	if err != nil {
		return nil
	}
	return id
}
