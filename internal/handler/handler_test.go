package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cms-backend/internal/apperr"
	"github.com/iliyamo/cms-backend/internal/logger"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"not found", apperr.New(apperr.NotFound, "content not found"), http.StatusNotFound, "content not found"},
		{"conflict", apperr.New(apperr.Conflict, "username already exists"), http.StatusConflict, "username already exists"},
		{"misconfigured", apperr.New(apperr.ServerMisconfigured, "JWT secret is not configured"), http.StatusInternalServerError, "JWT secret is not configured"},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable, "internal server error"},
		{"raw error hides cause", errors.New("dial tcp: refused"), http.StatusInternalServerError, "internal server error"},
		{"echo error", echo.NewHTTPError(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge, "Request Entity Too Large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			ErrorHandler(logger.Discard())(tt.err, c)

			assert.Equal(t, tt.status, rec.Code)
			var env struct {
				Code int             `json:"code"`
				Msg  string          `json:"msg"`
				Data json.RawMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, tt.status, env.Code)
			assert.Equal(t, tt.msg, env.Msg)
			assert.Equal(t, "null", string(env.Data))
		})
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&tagReq{}))

	bad := "a,b"
	err := v.Validate(&tagReq{Name: &bad})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidInput))
	assert.Contains(t, apperr.Message(err), "'name'")

	long := strings.Repeat("x", 256)
	err = v.Validate(&createContentReq{Title: long, Tags: []string{"ok", "x,y"}})
	require.Error(t, err)
	msg := apperr.Message(err)
	assert.Contains(t, msg, "'title'")
	assert.Contains(t, msg, "'tags[1]'")
}

func TestBindRejectsMalformedJSON(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var body createContentReq
	err := bind(c, &body)
	assert.True(t, apperr.Is(err, apperr.InvalidInput))
}

func TestTruthy(t *testing.T) {
	for _, s := range []string{"true", "1", "TRUE", " true "} {
		assert.True(t, truthy(s), s)
	}
	for _, s := range []string{"", "0", "false", "yes"} {
		assert.False(t, truthy(s), s)
	}
}
