package service

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/gosimple/slug"

	"github.com/iliyamo/cms-backend/internal/apperr"
	"github.com/iliyamo/cms-backend/internal/model"
	"github.com/iliyamo/cms-backend/internal/repository"
)

const (
	msgTypeNotFound = "content type not found"
	msgTypeTaken    = "content type name already exists"
	msgTagNotFound  = "tag not found"
	msgTagTaken     = "tag name already exists"
)

var colorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ContentTypeInput creates or patches a content type. On create Name is
// derived from DisplayName when empty; names are always slugified.
type ContentTypeInput struct {
	Name        *string
	DisplayName *string
	Description *string
}

// TaxonomyService manages content types and tags.
type TaxonomyService struct {
	db *sql.DB
}

func NewTaxonomyService(db *sql.DB) *TaxonomyService { return &TaxonomyService{db: db} }

func (s *TaxonomyService) ListContentTypes(ctx context.Context) ([]model.ContentType, error) {
	out, err := repository.NewContentTypeRepo(s.db).List(ctx)
	return out, storeErr(err, "", "")
}

func (s *TaxonomyService) GetContentType(ctx context.Context, id uint64) (*model.ContentType, error) {
	ct, err := repository.NewContentTypeRepo(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgTypeNotFound, "")
	}
	return ct, nil
}

func (s *TaxonomyService) CreateContentType(ctx context.Context, in ContentTypeInput) (*model.ContentType, error) {
	display := ""
	if in.DisplayName != nil {
		display = strings.TrimSpace(*in.DisplayName)
	}
	if display == "" {
		return nil, apperr.New(apperr.InvalidInput, "missing required fields: display_name")
	}
	source := display
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		source = *in.Name
	}
	name := slug.Make(source)
	if name == "" {
		return nil, apperr.New(apperr.InvalidInput, "content type name must contain letters or digits")
	}

	repo := repository.NewContentTypeRepo(s.db)
	id, err := repo.Create(ctx, name, display, in.Description)
	if err != nil {
		return nil, storeErr(err, "", msgTypeTaken)
	}
	ct, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgTypeNotFound, "")
	}
	return ct, nil
}

func (s *TaxonomyService) UpdateContentType(ctx context.Context, id uint64, in ContentTypeInput) (*model.ContentType, error) {
	var p repository.ContentTypePatch
	if in.Name != nil {
		name := slug.Make(*in.Name)
		if name == "" {
			return nil, apperr.New(apperr.InvalidInput, "content type name must contain letters or digits")
		}
		p.Name = &name
	}
	if in.DisplayName != nil {
		d := strings.TrimSpace(*in.DisplayName)
		if d == "" {
			return nil, apperr.New(apperr.InvalidInput, "display_name must not be empty")
		}
		p.DisplayName = &d
	}
	p.Description = in.Description

	repo := repository.NewContentTypeRepo(s.db)
	if err := repo.Update(ctx, id, p); err != nil {
		return nil, storeErr(err, msgTypeNotFound, msgTypeTaken)
	}
	ct, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgTypeNotFound, "")
	}
	return ct, nil
}

// DeleteContentType refuses to remove a type that contents still use.
func (s *TaxonomyService) DeleteContentType(ctx context.Context, id uint64) error {
	err := repository.NewContentTypeRepo(s.db).Delete(ctx, id)
	return storeErr(err, msgTypeNotFound, "content type is in use")
}

func (s *TaxonomyService) ListTags(ctx context.Context) ([]model.Tag, error) {
	out, err := repository.NewTagRepo(s.db).List(ctx)
	return out, storeErr(err, "", "")
}

// CreateTag stores a tag; an empty color becomes the default blue.
func (s *TaxonomyService) CreateTag(ctx context.Context, name, color string) (*model.Tag, error) {
	name, err := validTagName(name)
	if err != nil {
		return nil, err
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = model.DefaultTagColor
	} else if !colorRe.MatchString(color) {
		return nil, apperr.New(apperr.InvalidInput, "color must be a hex color like #007bff")
	}

	repo := repository.NewTagRepo(s.db)
	id, err := repo.Create(ctx, name, color)
	if err != nil {
		return nil, storeErr(err, "", msgTagTaken)
	}
	t, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgTagNotFound, "")
	}
	return t, nil
}

func (s *TaxonomyService) UpdateTag(ctx context.Context, id uint64, name, color *string) (*model.Tag, error) {
	if name != nil {
		n, err := validTagName(*name)
		if err != nil {
			return nil, err
		}
		name = &n
	}
	if color != nil {
		c := strings.TrimSpace(*color)
		if !colorRe.MatchString(c) {
			return nil, apperr.New(apperr.InvalidInput, "color must be a hex color like #007bff")
		}
		color = &c
	}

	repo := repository.NewTagRepo(s.db)
	if err := repo.Update(ctx, id, name, color); err != nil {
		return nil, storeErr(err, msgTagNotFound, msgTagTaken)
	}
	t, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgTagNotFound, "")
	}
	return t, nil
}

func (s *TaxonomyService) DeleteTag(ctx context.Context, id uint64) error {
	return storeErr(repository.NewTagRepo(s.db).Delete(ctx, id), msgTagNotFound, "")
}

func validTagName(name string) (string, error) {
	tags, err := normalizeTags([]string{name})
	if err != nil {
		return "", err
	}
	if len(tags) == 0 {
		return "", apperr.New(apperr.InvalidInput, "missing required fields: name")
	}
	return tags[0], nil
}
