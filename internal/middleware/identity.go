package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cms-backend/internal/auth"
)

// Context keys set by the auth middleware.
const (
	identityKey = "identity"
	adminKey    = "admin"
)

// IdentityFrom returns the identity stored by RequireAuth or OptionalAuth,
// or nil for an anonymous request.
func IdentityFrom(c echo.Context) *auth.Identity {
	id, _ := c.Get(identityKey).(*auth.Identity)
	return id
}

// IsAdmin reports whether AdminOverride granted the override.
func IsAdmin(c echo.Context) bool {
	ok, _ := c.Get(adminKey).(bool)
	return ok
}
