package handler

import (
	"net/http"
	"sync/atomic"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness, schema readiness and the build version.
type HealthHandler struct {
	DBReady *atomic.Bool
	Version string
}

func NewHealthHandler(ready *atomic.Bool, version string) *HealthHandler {
	return &HealthHandler{DBReady: ready, Version: version}
}

// Health is used by load balancers and monitoring. It answers 200 even
// before the schema is ready; dbReady tells the two states apart.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "dbReady": h.DBReady != nil && h.DBReady.Load()})
}

func (h *HealthHandler) VersionInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"version": h.Version})
}

// Root answers a plain "ok".
func Root(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
