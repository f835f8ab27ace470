package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cms-backend/internal/auth"
	"github.com/iliyamo/cms-backend/internal/handler"
	"github.com/iliyamo/cms-backend/internal/middleware"
	"github.com/iliyamo/cms-backend/internal/storage"
)

// Deps is everything the route table needs.
type Deps struct {
	Log       logrus.FieldLogger
	Resolver  *auth.Resolver
	AdminGate *auth.AdminGate

	CORSOrigins          []string
	CORSAllowCredentials bool
	RequestTimeout       time.Duration
	MaxUploadBytes       int64
	// UploadDir is served under /uploads when set (local storage only).
	UploadDir string

	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Contents *handler.ContentHandler
	Chapters *handler.ChapterHandler
	Taxonomy *handler.TaxonomyHandler
	Uploads  *handler.UploadHandler
}

// New builds the echo instance with the shared middleware stack and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(requestLogger(d.Log))
	e.Use(echomw.CORSWithConfig(corsConfig(d.CORSOrigins, d.CORSAllowCredentials)))
	e.Use(echomw.BodyLimit(bodyLimit(d.MaxUploadBytes)))
	e.Use(middleware.Deadline(d.RequestTimeout))

	RegisterRoutes(e, d.Health, d.UploadDir)

	api := e.Group("/api")
	RegisterAuth(api, d.Auth, d.Resolver)
	RegisterTaxonomy(api, d.Taxonomy, d.AdminGate)
	RegisterContents(api, d.Contents, d.Chapters, d.Resolver, d.AdminGate)
	RegisterUploads(api, d.Uploads, d.Resolver)
	return e
}

// RegisterRoutes registers the unauthenticated service endpoints.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler, uploadDir string) {
	e.GET("/", handler.Root)
	e.GET("/health", h.Health)
	e.GET("/version", h.VersionInfo)
	if uploadDir != "" {
		e.Static(storage.LocalURLPrefix, uploadDir)
	}
}

// RegisterAuth registers register/login and the bearer-protected /me.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, r *auth.Resolver) {
	g := api.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/me", a.Me, middleware.RequireAuth(r))
}

// RegisterTaxonomy registers content types and tags. Reads are public;
// mutations require the admin override.
func RegisterTaxonomy(api *echo.Group, t *handler.TaxonomyHandler, gate *auth.AdminGate) {
	admin := middleware.RequireAdmin(gate)

	api.GET("/content-types", t.ListContentTypes)
	api.GET("/content-types/:id", t.GetContentType)
	api.POST("/content-types", t.CreateContentType, admin)
	api.PUT("/content-types/:id", t.UpdateContentType, admin)
	api.DELETE("/content-types/:id", t.DeleteContentType, admin)

	api.GET("/tags", t.ListTags)
	api.POST("/tags", t.CreateTag, admin)
	api.PUT("/tags/:id", t.UpdateTag, admin)
	api.DELETE("/tags/:id", t.DeleteTag, admin)
}

// RegisterContents registers contents and their chapters. Reads resolve an
// optional identity and the admin override; writes need a bearer and the
// service enforces ownership; deletes need the admin override only.
func RegisterContents(api *echo.Group, c *handler.ContentHandler, ch *handler.ChapterHandler, r *auth.Resolver, gate *auth.AdminGate) {
	read := []echo.MiddlewareFunc{middleware.OptionalAuth(r), middleware.AdminOverride(gate)}
	write := middleware.RequireAuth(r)
	admin := middleware.RequireAdmin(gate)

	g := api.Group("/contents")
	g.GET("", c.List, read...)
	g.GET("/:id", c.Get, read...)
	g.POST("", c.Create, write)
	g.PUT("/:id", c.Update, write)
	g.DELETE("/:id", c.Delete, admin)

	g.GET("/:contentId/chapters", ch.List, read...)
	g.GET("/:contentId/chapters/:chapterId", ch.Get, read...)
	g.POST("/:contentId/chapters", ch.Create, write)
	g.PUT("/:contentId/chapters/:chapterId", ch.Update, write)
	g.DELETE("/:contentId/chapters/:chapterId", ch.Delete, admin)
}

// RegisterUploads registers the image upload endpoint.
func RegisterUploads(api *echo.Group, u *handler.UploadHandler, r *auth.Resolver) {
	api.POST("/upload", u.Upload, middleware.RequireAuth(r))
}

func corsConfig(origins []string, credentials bool) echomw.CORSConfig {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowCredentials: credentials,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, middleware.HeaderAdminPassword,
		},
	}
}

// bodyLimit leaves one megabyte of headroom above the upload limit for the
// multipart framing.
func bodyLimit(maxUpload int64) string {
	const mb = 1 << 20
	if maxUpload <= 0 {
		return "10M"
	}
	return fmt.Sprintf("%dM", (maxUpload+mb-1)/mb+1)
}

func requestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"remote_ip":  v.RemoteIP,
			})
			if v.Status >= http.StatusInternalServerError {
				entry.Warn("request")
			} else {
				entry.Info("request")
			}
			return nil
		},
	})
}
