package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cms-backend/internal/apperr"
	"github.com/iliyamo/cms-backend/internal/middleware"
	"github.com/iliyamo/cms-backend/internal/service"
)

// envelope is the body of every API response. Code is 0 on success and the
// HTTP status otherwise.
type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, envelope{Code: 0, Msg: "success", Data: data})
}

func created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, envelope{Code: 0, Msg: "created", Data: data})
}

// ErrorHandler renders every error returned by handlers and middleware as
// an envelope. Server-side failures are logged with their cause; clients
// only ever see the classified message.
func ErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg := classify(err)
		if status >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Path(),
				"status": status,
			}).Error("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, envelope{Code: status, Msg: msg, Data: nil})
		}
		if werr != nil {
			log.WithError(werr).Warn("write error response")
		}
	}
}

func classify(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, msg
	}
	kind := apperr.KindOf(err)
	return kind.Status(), apperr.Message(err)
}

// bind decodes the request body into v and validates it.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperr.Wrap(apperr.InvalidInput, "invalid request body", err)
	}
	return c.Validate(v)
}

func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.InvalidInput, "invalid "+name)
	}
	return id, nil
}

func viewer(c echo.Context) service.Viewer {
	return service.Viewer{Identity: middleware.IdentityFrom(c), Admin: middleware.IsAdmin(c)}
}
