package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cms-backend/internal/access"
	"github.com/iliyamo/cms-backend/internal/apperr"
	"github.com/iliyamo/cms-backend/internal/auth"
	"github.com/iliyamo/cms-backend/internal/database"
	"github.com/iliyamo/cms-backend/internal/model"
	"github.com/iliyamo/cms-backend/internal/paging"
	"github.com/iliyamo/cms-backend/internal/queue"
	"github.com/iliyamo/cms-backend/internal/repository"
)

const (
	ChapterPageDefault    = 50
	ChapterPageMax        = 200
	msgChapterNotFound    = "chapter not found"
	msgChapterNumberTaken = "chapter number already exists"
)

// ChapterInput is the payload of a create. ChapterNumber is a pointer so a
// missing value can be told apart from zero.
type ChapterInput struct {
	ChapterNumber *int
	Title         string
	ContentData   model.JSON
	Metadata      model.JSON
	PublishedAt   *time.Time
}

// ChapterUpdate is a partial update; nil fields are left unchanged.
type ChapterUpdate struct {
	ChapterNumber *int
	Title         *string
	ContentData   model.JSON
	Metadata      model.JSON
	PublishedAt   *time.Time
}

// ChapterService manages the chapters of a content item. Chapter
// visibility and ownership are those of the parent content.
type ChapterService struct {
	db     *sql.DB
	events EventPublisher
	log    logrus.FieldLogger
}

func NewChapterService(db *sql.DB, events EventPublisher, log logrus.FieldLogger) *ChapterService {
	return &ChapterService{db: db, events: events, log: log}
}

// List returns a page of chapters of contentID ordered by number.
func (s *ChapterService) List(ctx context.Context, v Viewer, contentID uint64, p paging.Request) (*paging.Page[model.Chapter], error) {
	if err := s.checkVisible(ctx, v, contentID, msgContentNotFound); err != nil {
		return nil, err
	}
	items, total, err := repository.NewChapterRepo(s.db).List(ctx, contentID, p)
	if err != nil {
		return nil, storeErr(err, "", "")
	}
	page := paging.NewPage(items, p, total)
	return &page, nil
}

// Get returns one chapter. A missing content, a hidden content and a
// missing chapter are indistinguishable.
func (s *ChapterService) Get(ctx context.Context, v Viewer, contentID, chapterID uint64) (*model.Chapter, error) {
	if err := s.checkVisible(ctx, v, contentID, msgChapterNotFound); err != nil {
		return nil, err
	}
	ch, err := repository.NewChapterRepo(s.db).GetByID(ctx, contentID, chapterID)
	if err != nil {
		return nil, storeErr(err, msgChapterNotFound, "")
	}
	return ch, nil
}

func (s *ChapterService) checkVisible(ctx context.Context, v Viewer, contentID uint64, notFound string) error {
	o, err := repository.NewContentRepo(s.db).Owner(ctx, contentID)
	if err != nil {
		return storeErr(err, notFound, "")
	}
	if !access.CanView(access.Resource{Status: o.Status, OwnerID: o.UserID}, v.Identity, v.Admin) {
		return apperr.New(apperr.NotFound, notFound)
	}
	return nil
}

// Create adds a chapter on behalf of actor, who must own the content or
// becomes its owner when it has none.
func (s *ChapterService) Create(ctx context.Context, actor auth.Identity, contentID uint64, in ChapterInput) (*model.Chapter, error) {
	in.Title = strings.TrimSpace(in.Title)
	var missing []string
	if in.ChapterNumber == nil {
		missing = append(missing, "chapter_number")
	}
	if in.Title == "" {
		missing = append(missing, "title")
	}
	if len(missing) > 0 {
		return nil, apperr.New(apperr.InvalidInput, "missing required fields: "+strings.Join(missing, ", "))
	}

	var (
		out   *model.Chapter
		bound bool
	)
	err := database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx database.DBTX) error {
		var err error
		if bound, err = claimContent(ctx, repository.NewContentRepo(tx), contentID, actor, msgContentNotFound); err != nil {
			return err
		}
		chapters := repository.NewChapterRepo(tx)
		taken, err := chapters.NumberTaken(ctx, contentID, *in.ChapterNumber, 0)
		if err != nil {
			return storeErr(err, "", "")
		}
		if taken {
			return apperr.New(apperr.Conflict, msgChapterNumberTaken)
		}
		id, err := chapters.Create(ctx, repository.NewChapter{
			ContentID:     contentID,
			ChapterNumber: *in.ChapterNumber,
			Title:         in.Title,
			ContentData:   in.ContentData.OrEmpty(),
			Metadata:      in.Metadata.OrEmpty(),
			PublishedAt:   in.PublishedAt,
		})
		if err != nil {
			return storeErr(err, "", msgChapterNumberTaken)
		}
		out, err = chapters.GetByID(ctx, contentID, id)
		return storeErr(err, msgChapterNotFound, "")
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, s.log, queue.ContentEvent{
		Type: queue.ChapterCreated, ContentID: contentID, ChapterID: out.ID, ActorID: actor.UserID, OwnerBound: bound,
	})
	return out, nil
}

// Update applies u to a chapter on behalf of actor under the same
// ownership rule as Create.
func (s *ChapterService) Update(ctx context.Context, actor auth.Identity, contentID, chapterID uint64, u ChapterUpdate) (*model.Chapter, error) {
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		if t == "" {
			return nil, apperr.New(apperr.InvalidInput, "title must not be empty")
		}
		u.Title = &t
	}

	var (
		out   *model.Chapter
		bound bool
	)
	err := database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx database.DBTX) error {
		var err error
		if bound, err = claimContent(ctx, repository.NewContentRepo(tx), contentID, actor, msgContentNotFound); err != nil {
			return err
		}
		chapters := repository.NewChapterRepo(tx)
		if _, err := chapters.GetByID(ctx, contentID, chapterID); err != nil {
			return storeErr(err, msgChapterNotFound, "")
		}
		if u.ChapterNumber != nil {
			taken, err := chapters.NumberTaken(ctx, contentID, *u.ChapterNumber, chapterID)
			if err != nil {
				return storeErr(err, "", "")
			}
			if taken {
				return apperr.New(apperr.Conflict, msgChapterNumberTaken)
			}
		}
		if err := chapters.Update(ctx, contentID, chapterID, repository.ChapterPatch{
			ChapterNumber: u.ChapterNumber,
			Title:         u.Title,
			ContentData:   u.ContentData,
			Metadata:      u.Metadata,
			PublishedAt:   u.PublishedAt,
		}); err != nil {
			return storeErr(err, msgChapterNotFound, msgChapterNumberTaken)
		}
		out, err = chapters.GetByID(ctx, contentID, chapterID)
		return storeErr(err, msgChapterNotFound, "")
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, s.log, queue.ContentEvent{
		Type: queue.ChapterUpdated, ContentID: contentID, ChapterID: chapterID, ActorID: actor.UserID, OwnerBound: bound,
	})
	return out, nil
}

// Delete removes a chapter. Callers gate it behind the admin override.
func (s *ChapterService) Delete(ctx context.Context, contentID, chapterID uint64) error {
	if err := repository.NewChapterRepo(s.db).Delete(ctx, contentID, chapterID); err != nil {
		return storeErr(err, msgChapterNotFound, "")
	}
	publish(ctx, s.events, s.log, queue.ContentEvent{Type: queue.ChapterDeleted, ContentID: contentID, ChapterID: chapterID})
	return nil
}
