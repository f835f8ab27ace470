package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cms-backend/internal/apperr"
	"github.com/iliyamo/cms-backend/internal/auth"
)

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokens("secret")
	token, err := tokens.Issue(auth.Identity{UserID: 7, Username: "alice", Role: "author"})
	require.NoError(t, err)
	mw := RequireAuth(auth.NewResolver(tokens))

	var seen *auth.Identity
	h := mw(func(c echo.Context) error {
		seen = IdentityFrom(c)
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	c, _ := newContext(req)
	require.NoError(t, h(c))
	require.NotNil(t, seen)
	assert.Equal(t, uint64(7), seen.UserID)

	c, _ = newContext(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, apperr.Is(h(c), apperr.Unauthenticated))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer nope")
	c, _ = newContext(req)
	assert.True(t, apperr.Is(h(c), apperr.InvalidSession))
}

func TestOptionalAuth_BadTokenIsAnonymous(t *testing.T) {
	mw := OptionalAuth(auth.NewResolver(auth.NewTokens("secret")))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer garbage")
	c, _ := newContext(req)

	called := false
	require.NoError(t, mw(func(c echo.Context) error {
		called = true
		assert.Nil(t, IdentityFrom(c))
		return nil
	})(c))
	assert.True(t, called)
}

func TestRequireAdmin(t *testing.T) {
	gate := auth.NewAdminGate("s3cret", true)
	h := RequireAdmin(gate)(func(c echo.Context) error {
		assert.True(t, IsAdmin(c))
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set(HeaderAdminPassword, "s3cret")
	c, _ := newContext(req)
	assert.NoError(t, h(c))

	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set(HeaderAdminPassword, "wrong")
	c, _ = newContext(req)
	err := h(c)
	assert.True(t, apperr.Is(err, apperr.Unauthenticated))
	assert.Equal(t, "admin password required", apperr.Message(err))
}

func TestRequireAdmin_PasswordFromBodyKeepsBody(t *testing.T) {
	gate := auth.NewAdminGate("s3cret", false)
	body := `{"name":"go","password":"s3cret"}`

	var got string
	h := RequireAdmin(gate)(func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		got = string(b)
		return err
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, _ := newContext(req)
	require.NoError(t, h(c))
	assert.Equal(t, body, got)
}

func TestAdminOverride(t *testing.T) {
	tests := []struct {
		name     string
		password string
		open     bool
		header   string
		want     bool
	}{
		{"unset fail-open grants nothing", "", true, "", false},
		{"unset fail-open any value", "", true, "guess", false},
		{"unset closed", "", false, "anything", false},
		{"set match", "pw", true, "pw", true},
		{"set mismatch", "pw", true, "nope", false},
		{"set missing", "pw", true, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(HeaderAdminPassword, tt.header)
			}
			c, _ := newContext(req)
			var got bool
			err := AdminOverride(auth.NewAdminGate(tt.password, tt.open))(func(c echo.Context) error {
				got = IsAdmin(c)
				return nil
			})(c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeadline(t *testing.T) {
	c, _ := newContext(httptest.NewRequest(http.MethodGet, "/", nil))
	err := Deadline(time.Second)(func(c echo.Context) error {
		dl, ok := c.Request().Context().Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Second), dl, 500*time.Millisecond)
		return c.Request().Context().Err()
	})(c)
	assert.NoError(t, err)

	c, _ = newContext(httptest.NewRequest(http.MethodGet, "/", nil))
	_ = Deadline(0)(func(c echo.Context) error {
		_, ok := c.Request().Context().Deadline()
		assert.False(t, ok)
		return nil
	})(c)
}
