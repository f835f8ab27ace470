package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cms-backend/internal/apperr"
	"github.com/iliyamo/cms-backend/internal/auth"
)

// HeaderAdminPassword carries the admin secret.
const HeaderAdminPassword = "X-Admin-Password"

// maxSecretBody bounds how much of a JSON body is buffered to look for the
// password field.
const maxSecretBody = 1 << 20

// AdminOverride records in the context whether the request carries the
// admin password. It never rejects; reads use it to widen visibility. An
// unset password grants nothing here, even when RequireAdmin fails open.
func AdminOverride(g *auth.AdminGate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(adminKey, g.Override(adminSecret(c)))
			return next(c)
		}
	}
}

// RequireAdmin rejects requests that do not carry the admin override.
func RequireAdmin(g *auth.AdminGate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !g.Allow(adminSecret(c)) {
				return apperr.New(apperr.Unauthenticated, "admin password required")
			}
			c.Set(adminKey, true)
			return next(c)
		}
	}
}

// adminSecret reads the secret from the header, falling back to a
// "password" field of a JSON body. The body is restored for the handler.
func adminSecret(c echo.Context) string {
	req := c.Request()
	if v := req.Header.Get(HeaderAdminPassword); v != "" {
		return v
	}
	if req.Body == nil || !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(req.Body, maxSecretBody+1))
	if err != nil {
		return ""
	}
	if len(raw) > maxSecretBody {
		// Too large to inspect; hand the handler everything read so far
		// followed by the unread remainder.
		req.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), req.Body))
		return ""
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))

	var body struct {
		Password string `json:"password"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}
	return body.Password
}
