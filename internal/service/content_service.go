package service

import (
	"context"
	"database/sql"
	"strings"

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
	ContentPageDefault = 20
	ContentPageMax     = 100
	msgContentNotFound = "content not found"
)

// ContentQuery holds the list filters of GET /contents.
type ContentQuery struct {
	Type   string
	Status string
	Tag    string
	Mine   bool
	Page   paging.Request
}

// ContentInput is the payload of a create.
type ContentInput struct {
	Title         string
	Description   *string
	ContentTypeID uint64
	Metadata      model.JSON
	CoverImage    *string
	Status        *string
	Tags          []string
}

// ContentUpdate is a partial update; nil fields are left unchanged. A
// non-nil Tags replaces the whole tag set, an empty slice clears it.
type ContentUpdate struct {
	Title         *string
	Description   *string
	ContentTypeID *uint64
	Metadata      model.JSON
	CoverImage    *string
	Status        *string
	Tags          *[]string
}

// ContentService manages content items.
type ContentService struct {
	db     *sql.DB
	events EventPublisher
	log    logrus.FieldLogger
}

func NewContentService(db *sql.DB, events EventPublisher, log logrus.FieldLogger) *ContentService {
	return &ContentService{db: db, events: events, log: log}
}

// List returns the page of contents v may see. Mine restricts the list to
// the viewer's own items and requires an identity.
func (s *ContentService) List(ctx context.Context, v Viewer, q ContentQuery) (*paging.Page[model.Content], error) {
	f := repository.ContentFilter{
		Type:   q.Type,
		Status: q.Status,
		Tag:    q.Tag,
		Scope:  access.ListScope(v.Identity, v.Admin),
		Page:   q.Page,
	}
	if q.Mine {
		if v.Identity == nil {
			return nil, apperr.New(apperr.Unauthenticated, "login required")
		}
		id := v.Identity.UserID
		f.Mine = &id
	}

	items, total, err := repository.NewContentRepo(s.db).List(ctx, f)
	if err != nil {
		return nil, storeErr(err, "", "")
	}
	page := paging.NewPage(items, q.Page, total)
	return &page, nil
}

// Get returns content id if v may see it. A hidden item is reported exactly
// like a missing one.
func (s *ContentService) Get(ctx context.Context, v Viewer, id uint64) (*model.Content, error) {
	c, err := repository.NewContentRepo(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgContentNotFound, "")
	}
	if !access.CanView(access.Resource{Status: c.Status, OwnerID: c.AuthorUserID}, v.Identity, v.Admin) {
		return nil, apperr.New(apperr.NotFound, msgContentNotFound)
	}
	return c, nil
}

// Create stores a new item owned by actor, with its tags, in one transaction.
func (s *ContentService) Create(ctx context.Context, actor auth.Identity, in ContentInput) (*model.Content, error) {
	in.Title = strings.TrimSpace(in.Title)
	var missing []string
	if in.Title == "" {
		missing = append(missing, "title")
	}
	if in.ContentTypeID == 0 {
		missing = append(missing, "content_type_id")
	}
	if len(missing) > 0 {
		return nil, apperr.New(apperr.InvalidInput, "missing required fields: "+strings.Join(missing, ", "))
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}
	status := access.StatusDraft
	if in.Status != nil && strings.TrimSpace(*in.Status) != "" {
		status = strings.TrimSpace(*in.Status)
	}

	var out *model.Content
	err = database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx database.DBTX) error {
		if err := requireContentType(ctx, tx, in.ContentTypeID); err != nil {
			return err
		}
		contents := repository.NewContentRepo(tx)
		id, err := contents.Create(ctx, repository.NewContent{
			Title:          in.Title,
			Description:    in.Description,
			ContentTypeID:  in.ContentTypeID,
			Metadata:       in.Metadata.OrEmpty(),
			CoverImage:     in.CoverImage,
			Status:         status,
			AuthorUserID:   actor.UserID,
			AuthorUsername: actor.Username,
		})
		if err != nil {
			return storeErr(err, "", "")
		}
		if err := repository.NewTagRepo(tx).AddContentTags(ctx, id, tags); err != nil {
			return storeErr(err, "", "")
		}
		out, err = contents.GetByID(ctx, id)
		return storeErr(err, msgContentNotFound, "")
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, s.log, queue.ContentEvent{Type: queue.ContentCreated, ContentID: out.ID, ActorID: actor.UserID})
	return out, nil
}

// Update applies u on behalf of actor. The item is locked, bound to actor
// when unowned, and rejected with Forbidden when another user owns it.
func (s *ContentService) Update(ctx context.Context, actor auth.Identity, id uint64, u ContentUpdate) (*model.Content, error) {
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		if t == "" {
			return nil, apperr.New(apperr.InvalidInput, "title must not be empty")
		}
		u.Title = &t
	}
	var tags []string
	if u.Tags != nil {
		var err error
		if tags, err = normalizeTags(*u.Tags); err != nil {
			return nil, err
		}
	}

	var (
		out   *model.Content
		bound bool
	)
	err := database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx database.DBTX) error {
		contents := repository.NewContentRepo(tx)
		var err error
		if bound, err = claimContent(ctx, contents, id, actor, msgContentNotFound); err != nil {
			return err
		}
		if u.ContentTypeID != nil {
			if err := requireContentType(ctx, tx, *u.ContentTypeID); err != nil {
				return err
			}
		}
		if err := contents.Update(ctx, id, repository.ContentPatch{
			Title:         u.Title,
			Description:   u.Description,
			ContentTypeID: u.ContentTypeID,
			Metadata:      u.Metadata,
			CoverImage:    u.CoverImage,
			Status:        u.Status,
		}); err != nil {
			return storeErr(err, msgContentNotFound, "")
		}
		if u.Tags != nil {
			if err := repository.NewTagRepo(tx).ReplaceContentTags(ctx, id, tags); err != nil {
				return storeErr(err, "", "")
			}
		}
		out, err = contents.GetByID(ctx, id)
		return storeErr(err, msgContentNotFound, "")
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, s.log, queue.ContentEvent{
		Type: queue.ContentUpdated, ContentID: id, ActorID: actor.UserID, OwnerBound: bound,
	})
	return out, nil
}

// Delete removes an item with its chapters and tag links. Callers gate it
// behind the admin override; ownership is not consulted.
func (s *ContentService) Delete(ctx context.Context, id uint64) error {
	if err := repository.NewContentRepo(s.db).Delete(ctx, id); err != nil {
		return storeErr(err, msgContentNotFound, "")
	}
	publish(ctx, s.events, s.log, queue.ContentEvent{Type: queue.ContentDeleted, ContentID: id})
	return nil
}

func requireContentType(ctx context.Context, db database.DBTX, id uint64) error {
	ok, err := repository.NewContentTypeRepo(db).Exists(ctx, id)
	if err != nil {
		return storeErr(err, "", "")
	}
	if !ok {
		return apperr.New(apperr.InvalidInput, "content type not found")
	}
	return nil
}

// normalizeTags trims names and drops empty ones. Commas are rejected
// because tag lists are aggregated with a comma separator.
func normalizeTags(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if strings.ContainsRune(n, ',') {
			return nil, apperr.New(apperr.InvalidInput, "tag names must not contain commas")
		}
		out = append(out, n)
	}
	return out, nil
}
