package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cms-backend/internal/auth"
	"github.com/iliyamo/cms-backend/internal/model"
	"github.com/iliyamo/cms-backend/internal/paging"
	"github.com/iliyamo/cms-backend/internal/service"
)

// ContentService is what ContentHandler needs from the service layer.
type ContentService interface {
	List(ctx context.Context, v service.Viewer, q service.ContentQuery) (*paging.Page[model.Content], error)
	Get(ctx context.Context, v service.Viewer, id uint64) (*model.Content, error)
	Create(ctx context.Context, actor auth.Identity, in service.ContentInput) (*model.Content, error)
	Update(ctx context.Context, actor auth.Identity, id uint64, u service.ContentUpdate) (*model.Content, error)
	Delete(ctx context.Context, id uint64) error
}

// ContentHandler serves /api/contents.
type ContentHandler struct {
	Contents ContentService
}

func NewContentHandler(s ContentService) *ContentHandler {
	return &ContentHandler{Contents: s}
}

type createContentReq struct {
	Title         string     `json:"title" validate:"max=255"`
	Description   *string    `json:"description"`
	ContentTypeID uint64     `json:"content_type_id"`
	Metadata      model.JSON `json:"metadata"`
	CoverImage    *string    `json:"cover_image" validate:"omitnil,max=1024"`
	Status        *string    `json:"status" validate:"omitnil,max=32"`
	Tags          []string   `json:"tags" validate:"max=50,dive,max=64,excludesall=0x2C"`
}

type updateContentReq struct {
	Title         *string    `json:"title" validate:"omitnil,max=255"`
	Description   *string    `json:"description"`
	ContentTypeID *uint64    `json:"content_type_id" validate:"omitnil,min=1"`
	Metadata      model.JSON `json:"metadata"`
	CoverImage    *string    `json:"cover_image" validate:"omitnil,max=1024"`
	Status        *string    `json:"status" validate:"omitnil,min=1,max=32"`
	Tags          *[]string  `json:"tags" validate:"omitnil,max=50,dive,max=64,excludesall=0x2C"`
}

// List supports type, status, tag, mine, page and limit query parameters.
func (h *ContentHandler) List(c echo.Context) error {
	q := service.ContentQuery{
		Type:   strings.TrimSpace(c.QueryParam("type")),
		Status: strings.TrimSpace(c.QueryParam("status")),
		Tag:    strings.TrimSpace(c.QueryParam("tag")),
		Mine:   truthy(c.QueryParam("mine")),
		Page:   paging.Parse(c.QueryParam("page"), c.QueryParam("limit"), service.ContentPageDefault, service.ContentPageMax),
	}
	page, err := h.Contents.List(c.Request().Context(), viewer(c), q)
	if err != nil {
		return err
	}
	return ok(c, page)
}

func (h *ContentHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.Contents.Get(c.Request().Context(), viewer(c), id)
	if err != nil {
		return err
	}
	return ok(c, item)
}

func (h *ContentHandler) Create(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return err
	}
	var req createContentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.Contents.Create(c.Request().Context(), who, service.ContentInput{
		Title:         req.Title,
		Description:   req.Description,
		ContentTypeID: req.ContentTypeID,
		Metadata:      req.Metadata,
		CoverImage:    req.CoverImage,
		Status:        req.Status,
		Tags:          req.Tags,
	})
	if err != nil {
		return err
	}
	return created(c, item)
}

func (h *ContentHandler) Update(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req updateContentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.Contents.Update(c.Request().Context(), who, id, service.ContentUpdate{
		Title:         req.Title,
		Description:   req.Description,
		ContentTypeID: req.ContentTypeID,
		Metadata:      req.Metadata,
		CoverImage:    req.CoverImage,
		Status:        req.Status,
		Tags:          req.Tags,
	})
	if err != nil {
		return err
	}
	return ok(c, item)
}

func (h *ContentHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Contents.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return ok(c, nil)
}

func truthy(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
