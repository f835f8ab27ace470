package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cms-backend/internal/apperr"
	"github.com/iliyamo/cms-backend/internal/auth"
	"github.com/iliyamo/cms-backend/internal/middleware"
	"github.com/iliyamo/cms-backend/internal/model"
	"github.com/iliyamo/cms-backend/internal/service"
)

// AuthService is what AuthHandler needs from the service layer.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*service.AuthResult, error)
	Login(ctx context.Context, username, password string) (*service.AuthResult, error)
	Me(ctx context.Context, id auth.Identity) (*model.User, error)
}

// AuthHandler serves /api/auth.
type AuthHandler struct {
	Auth AuthService
}

func NewAuthHandler(a AuthService) *AuthHandler {
	return &AuthHandler{Auth: a}
}

type credentialsReq struct {
	Username string `json:"username" validate:"max=64"`
	Password string `json:"password" validate:"max=72"`
}

// Register creates an author account and returns it with a token.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.Auth.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return created(c, res)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.Auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return ok(c, res)
}

// Me returns the profile of the bearer.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	u, err := h.Auth.Me(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, u)
}

// actor returns the authenticated caller. Routes using it sit behind
// RequireAuth, so a missing identity is a wiring mistake reported as 401.
func actor(c echo.Context) (auth.Identity, error) {
	id := middleware.IdentityFrom(c)
	if id == nil {
		return auth.Identity{}, apperr.New(apperr.Unauthenticated, "missing bearer token")
	}
	return *id, nil
}
