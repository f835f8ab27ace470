package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cms-backend/internal/model"
	"github.com/iliyamo/cms-backend/internal/service"
)

// TaxonomyService is what TaxonomyHandler needs from the service layer.
type TaxonomyService interface {
	ListContentTypes(ctx context.Context) ([]model.ContentType, error)
	GetContentType(ctx context.Context, id uint64) (*model.ContentType, error)
	CreateContentType(ctx context.Context, in service.ContentTypeInput) (*model.ContentType, error)
	UpdateContentType(ctx context.Context, id uint64, in service.ContentTypeInput) (*model.ContentType, error)
	DeleteContentType(ctx context.Context, id uint64) error

	ListTags(ctx context.Context) ([]model.Tag, error)
	CreateTag(ctx context.Context, name, color string) (*model.Tag, error)
	UpdateTag(ctx context.Context, id uint64, name, color *string) (*model.Tag, error)
	DeleteTag(ctx context.Context, id uint64) error
}

// TaxonomyHandler serves /api/content-types and /api/tags.
type TaxonomyHandler struct {
	Taxonomy TaxonomyService
}

func NewTaxonomyHandler(s TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{Taxonomy: s}
}

type contentTypeReq struct {
	Name        *string `json:"name" validate:"omitnil,max=64"`
	DisplayName *string `json:"display_name" validate:"omitnil,max=128"`
	Description *string `json:"description"`
}

type tagReq struct {
	Name  *string `json:"name" validate:"omitnil,max=64,excludesall=0x2C"`
	Color *string `json:"color" validate:"omitnil,max=16"`
}

func (h *TaxonomyHandler) ListContentTypes(c echo.Context) error {
	out, err := h.Taxonomy.ListContentTypes(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, out)
}

func (h *TaxonomyHandler) GetContentType(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ct, err := h.Taxonomy.GetContentType(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, ct)
}

func (h *TaxonomyHandler) CreateContentType(c echo.Context) error {
	var req contentTypeReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ct, err := h.Taxonomy.CreateContentType(c.Request().Context(), service.ContentTypeInput(req))
	if err != nil {
		return err
	}
	return created(c, ct)
}

func (h *TaxonomyHandler) UpdateContentType(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req contentTypeReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ct, err := h.Taxonomy.UpdateContentType(c.Request().Context(), id, service.ContentTypeInput(req))
	if err != nil {
		return err
	}
	return ok(c, ct)
}

func (h *TaxonomyHandler) DeleteContentType(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Taxonomy.DeleteContentType(c.Request().Context(), id); err != nil {
		return err
	}
	return ok(c, nil)
}

func (h *TaxonomyHandler) ListTags(c echo.Context) error {
	out, err := h.Taxonomy.ListTags(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, out)
}

func (h *TaxonomyHandler) CreateTag(c echo.Context) error {
	var req tagReq
	if err := bind(c, &req); err != nil {
		return err
	}
	var name, color string
	if req.Name != nil {
		name = *req.Name
	}
	if req.Color != nil {
		color = *req.Color
	}
	t, err := h.Taxonomy.CreateTag(c.Request().Context(), name, color)
	if err != nil {
		return err
	}
	return created(c, t)
}

func (h *TaxonomyHandler) UpdateTag(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req tagReq
	if err := bind(c, &req); err != nil {
		return err
	}
	t, err := h.Taxonomy.UpdateTag(c.Request().Context(), id, req.Name, req.Color)
	if err != nil {
		return err
	}
	return ok(c, t)
}

func (h *TaxonomyHandler) DeleteTag(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Taxonomy.DeleteTag(c.Request().Context(), id); err != nil {
		return err
	}
	return ok(c, nil)
}
