package auth

import "crypto/subtle"

// AdminGate decides whether a provided secret grants the admin override.
type AdminGate struct {
	password      string
	openWhenUnset bool
}

// NewAdminGate builds a gate for password. When password is empty the gate
// is open to everyone if openWhenUnset is true, and closed otherwise.
func NewAdminGate(password string, openWhenUnset bool) *AdminGate {
	return &AdminGate{password: password, openWhenUnset: openWhenUnset}
}

// Open reports whether the override is granted without any secret.
func (g *AdminGate) Open() bool {
	return g.password == "" && g.openWhenUnset
}

// Allow reports whether provided passes the gate on admin-only mutations.
// With no password configured the answer is the fail-open setting.
func (g *AdminGate) Allow(provided string) bool {
	if g.password == "" {
		return g.openWhenUnset
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(g.password)) == 1
}

// Override reports whether provided widens read visibility. Unlike Allow it
// never fails open: without a configured password nobody reads drafts they
// do not own.
func (g *AdminGate) Override(provided string) bool {
	if g.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(g.password)) == 1
}
