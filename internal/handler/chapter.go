package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cms-backend/internal/auth"
	"github.com/iliyamo/cms-backend/internal/model"
	"github.com/iliyamo/cms-backend/internal/paging"
	"github.com/iliyamo/cms-backend/internal/service"
)

// ChapterService is what ChapterHandler needs from the service layer.
type ChapterService interface {
	List(ctx context.Context, v service.Viewer, contentID uint64, p paging.Request) (*paging.Page[model.Chapter], error)
	Get(ctx context.Context, v service.Viewer, contentID, chapterID uint64) (*model.Chapter, error)
	Create(ctx context.Context, actor auth.Identity, contentID uint64, in service.ChapterInput) (*model.Chapter, error)
	Update(ctx context.Context, actor auth.Identity, contentID, chapterID uint64, u service.ChapterUpdate) (*model.Chapter, error)
	Delete(ctx context.Context, contentID, chapterID uint64) error
}

// ChapterHandler serves /api/contents/:contentId/chapters.
type ChapterHandler struct {
	Chapters ChapterService
}

func NewChapterHandler(s ChapterService) *ChapterHandler {
	return &ChapterHandler{Chapters: s}
}

type chapterReq struct {
	ChapterNumber *int       `json:"chapter_number" validate:"omitnil,gte=0"`
	Title         *string    `json:"title" validate:"omitnil,max=255"`
	ContentData   model.JSON `json:"content_data"`
	Metadata      model.JSON `json:"metadata"`
	PublishedAt   *time.Time `json:"published_at"`
}

func (h *ChapterHandler) List(c echo.Context) error {
	contentID, err := paramID(c, "contentId")
	if err != nil {
		return err
	}
	p := paging.Parse(c.QueryParam("page"), c.QueryParam("limit"), service.ChapterPageDefault, service.ChapterPageMax)
	page, err := h.Chapters.List(c.Request().Context(), viewer(c), contentID, p)
	if err != nil {
		return err
	}
	return ok(c, page)
}

func (h *ChapterHandler) Get(c echo.Context) error {
	contentID, chapterID, err := chapterIDs(c)
	if err != nil {
		return err
	}
	ch, err := h.Chapters.Get(c.Request().Context(), viewer(c), contentID, chapterID)
	if err != nil {
		return err
	}
	return ok(c, ch)
}

func (h *ChapterHandler) Create(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return err
	}
	contentID, err := paramID(c, "contentId")
	if err != nil {
		return err
	}
	var req chapterReq
	if err := bind(c, &req); err != nil {
		return err
	}
	in := service.ChapterInput{
		ChapterNumber: req.ChapterNumber,
		ContentData:   req.ContentData,
		Metadata:      req.Metadata,
		PublishedAt:   req.PublishedAt,
	}
	if req.Title != nil {
		in.Title = *req.Title
	}
	ch, err := h.Chapters.Create(c.Request().Context(), who, contentID, in)
	if err != nil {
		return err
	}
	return created(c, ch)
}

func (h *ChapterHandler) Update(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return err
	}
	contentID, chapterID, err := chapterIDs(c)
	if err != nil {
		return err
	}
	var req chapterReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ch, err := h.Chapters.Update(c.Request().Context(), who, contentID, chapterID, service.ChapterUpdate{
		ChapterNumber: req.ChapterNumber,
		Title:         req.Title,
		ContentData:   req.ContentData,
		Metadata:      req.Metadata,
		PublishedAt:   req.PublishedAt,
	})
	if err != nil {
		return err
	}
	return ok(c, ch)
}

func (h *ChapterHandler) Delete(c echo.Context) error {
	contentID, chapterID, err := chapterIDs(c)
	if err != nil {
		return err
	}
	if err := h.Chapters.Delete(c.Request().Context(), contentID, chapterID); err != nil {
		return err
	}
	return ok(c, nil)
}

func chapterIDs(c echo.Context) (uint64, uint64, error) {
	contentID, err := paramID(c, "contentId")
	if err != nil {
		return 0, 0, err
	}
	chapterID, err := paramID(c, "chapterId")
	if err != nil {
		return 0, 0, err
	}
	return contentID, chapterID, nil
}
