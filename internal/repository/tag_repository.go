package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cms-backend/internal/database"
	"github.com/iliyamo/cms-backend/internal/model"
)

// TagRepo encapsulates queries on tags and the content_tags join table.
type TagRepo struct{ db database.DBTX }

func NewTagRepo(db database.DBTX) *TagRepo { return &TagRepo{db: db} }

// List returns all tags sorted by name.
func (r *TagRepo) List(ctx context.Context) ([]model.Tag, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, color, created_at FROM tags ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TagRepo) GetByID(ctx context.Context, id uint64) (*model.Tag, error) {
	var t model.Tag
	err := r.db.QueryRowContext(ctx, "SELECT id, name, color, created_at FROM tags WHERE id = ?", id).
		Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create inserts a tag. A taken name is ErrConflict.
func (r *TagRepo) Create(ctx context.Context, name, color string) (uint64, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO tags (name, color) VALUES (?, ?)", name, color)
	if err != nil {
		if database.IsDuplicate(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update changes name and/or color; nil leaves a column unchanged.
func (r *TagRepo) Update(ctx context.Context, id uint64, name, color *string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE tags SET name = COALESCE(?, name), color = COALESCE(?, color) WHERE id = ?",
		name, color, id)
	if err != nil {
		if database.IsDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return expectOne(res)
}

// Delete removes a tag and, through the foreign key, its content links.
func (r *TagRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// GetOrCreate returns the id of the tag called name, creating it with the
// default color when missing. A concurrent insert of the same name is
// resolved by reading the winner's row.
func (r *TagRepo) GetOrCreate(ctx context.Context, name string) (uint64, error) {
	id, err := r.idByName(ctx, name)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return id, err
	}
	id, err = r.Create(ctx, name, model.DefaultTagColor)
	if errors.Is(err, ErrConflict) {
		return r.idByName(ctx, name)
	}
	return id, err
}

// ReplaceContentTags sets the tag set of a content item to names.
// Duplicate names are linked once.
func (r *TagRepo) ReplaceContentTags(ctx context.Context, contentID uint64, names []string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM content_tags WHERE content_id = ?", contentID); err != nil {
		return err
	}
	return r.AddContentTags(ctx, contentID, names)
}

// AddContentTags links contentID to every tag in names, creating tags as
// needed. Names the tags collation treats as equal ("Go", "go") resolve to
// one tag and are linked once.
func (r *TagRepo) AddContentTags(ctx context.Context, contentID uint64, names []string) error {
	seenName := make(map[string]bool, len(names))
	linked := make(map[uint64]bool, len(names))
	for _, name := range names {
		if seenName[name] {
			continue
		}
		seenName[name] = true

		tagID, err := r.GetOrCreate(ctx, name)
		if err != nil {
			return err
		}
		if linked[tagID] {
			continue
		}
		linked[tagID] = true
		if _, err := r.db.ExecContext(ctx,
			"INSERT INTO content_tags (content_id, tag_id) VALUES (?, ?)", contentID, tagID); err != nil {
			return err
		}
	}
	return nil
}

func (r *TagRepo) idByName(ctx context.Context, name string) (uint64, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx, "SELECT id FROM tags WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}
