package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cms-backend/internal/auth"
)

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity in the context. The error carries the apperr kind so
// the error handler can tell a missing token from a bad one.
func RequireAuth(r *auth.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := r.Required(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// OptionalAuth stores the caller's identity when a valid token is present.
// Anything else proceeds anonymously.
func OptionalAuth(r *auth.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := r.Optional(c.Request().Header.Get(echo.HeaderAuthorization)); id != nil {
				c.Set(identityKey, id)
			}
			return next(c)
		}
	}
}
