package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cms-backend/internal/access"
	"github.com/iliyamo/cms-backend/internal/database"
	"github.com/iliyamo/cms-backend/internal/model"
	"github.com/iliyamo/cms-backend/internal/paging"
)

// ContentRepo encapsulates queries on contents. Read views join the content
// type and aggregate tag names.
type ContentRepo struct{ db database.DBTX }

func NewContentRepo(db database.DBTX) *ContentRepo { return &ContentRepo{db: db} }

// Tag names never contain commas, so GROUP_CONCAT output splits cleanly.
const contentSelect = `SELECT
		c.id, c.title, c.description, c.content_type_id, c.metadata, c.cover_image, c.status,
		c.author_user_id, c.author_username, c.created_at, c.updated_at,
		ct.name, ct.display_name,
		(SELECT GROUP_CONCAT(t.name ORDER BY t.name SEPARATOR ',')
		   FROM content_tags ctg JOIN tags t ON t.id = ctg.tag_id
		  WHERE ctg.content_id = c.id) AS tags
	FROM contents c
	JOIN content_types ct ON ct.id = c.content_type_id`

// ContentFilter narrows a listing. Empty strings mean "no filter".
type ContentFilter struct {
	Type   string  // content type machine name
	Status string  // exact status
	Tag    string  // tag name
	Mine   *uint64 // only items authored by this user
	Scope  access.Scope
	Page   paging.Request
}

func (f ContentFilter) where() *where {
	w := &where{}
	if f.Type != "" {
		w.add("ct.name = ?", f.Type)
	}
	if f.Status != "" {
		w.add("c.status = ?", f.Status)
	}
	if f.Tag != "" {
		w.add(`EXISTS (SELECT 1 FROM content_tags ftg JOIN tags ft ON ft.id = ftg.tag_id
			WHERE ftg.content_id = c.id AND ft.name = ?)`, f.Tag)
	}
	if f.Mine != nil {
		w.add("c.author_user_id = ?", *f.Mine)
	}
	switch {
	case f.Scope.All:
	case f.Scope.ViewerID != nil:
		w.add("(c.status = ? OR c.author_user_id = ?)", access.StatusPublished, *f.Scope.ViewerID)
	default:
		w.add("c.status = ?", access.StatusPublished)
	}
	return w
}

// List returns one page of contents matching f, newest first, and the total
// number of matches.
func (r *ContentRepo) List(ctx context.Context, f ContentFilter) ([]model.Content, int64, error) {
	w := f.where()
	cond := w.sql()

	var total int64
	countSQL := `SELECT COUNT(*)
	FROM contents c
	JOIN content_types ct ON ct.id = c.content_type_id
	WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := contentSelect + `
	WHERE ` + cond + `
	ORDER BY c.created_at DESC, c.id DESC
	LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, w.args...), f.Page.Limit, f.Page.Offset())

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Content, 0, f.Page.Limit)
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID returns the read view of one content item.
func (r *ContentRepo) GetByID(ctx context.Context, id uint64) (*model.Content, error) {
	c, err := scanContent(r.db.QueryRowContext(ctx, contentSelect+" WHERE c.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// Owner reads the ownership state of a content item without locking.
func (r *ContentRepo) Owner(ctx context.Context, id uint64) (*model.Owner, error) {
	return r.owner(ctx, "SELECT author_user_id, author_username, status FROM contents WHERE id = ?", id)
}

// LockOwner reads the ownership state under a row lock held until the
// surrounding transaction ends. It must run inside a transaction.
func (r *ContentRepo) LockOwner(ctx context.Context, id uint64) (*model.Owner, error) {
	return r.owner(ctx, "SELECT author_user_id, author_username, status FROM contents WHERE id = ? FOR UPDATE", id)
}

func (r *ContentRepo) owner(ctx context.Context, q string, id uint64) (*model.Owner, error) {
	var o model.Owner
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&o.UserID, &o.Username, &o.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// BindOwner sets the author of an unowned item. It reports false when the
// item already had an owner, in which case nothing is written.
func (r *ContentRepo) BindOwner(ctx context.Context, id, userID uint64, username string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE contents SET author_user_id = ?, author_username = ? WHERE id = ? AND author_user_id IS NULL",
		userID, username, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// NewContent is the row written by Create.
type NewContent struct {
	Title          string
	Description    *string
	ContentTypeID  uint64
	Metadata       model.JSON
	CoverImage     *string
	Status         string
	AuthorUserID   uint64
	AuthorUsername string
}

// Create inserts a content row and returns its id.
func (r *ContentRepo) Create(ctx context.Context, c NewContent) (uint64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO contents
		(title, description, content_type_id, metadata, cover_image, status, author_user_id, author_username)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Title, c.Description, c.ContentTypeID, c.Metadata, c.CoverImage, c.Status, c.AuthorUserID, c.AuthorUsername)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ContentPatch holds the fields of a partial update; nil leaves a column
// unchanged.
type ContentPatch struct {
	Title         *string
	Description   *string
	ContentTypeID *uint64
	Metadata      model.JSON
	CoverImage    *string
	Status        *string
}

// Update applies p. Ownership columns are never touched here.
func (r *ContentRepo) Update(ctx context.Context, id uint64, p ContentPatch) error {
	res, err := r.db.ExecContext(ctx, `UPDATE contents
		SET title = COALESCE(?, title),
		    description = COALESCE(?, description),
		    content_type_id = COALESCE(?, content_type_id),
		    metadata = COALESCE(?, metadata),
		    cover_image = COALESCE(?, cover_image),
		    status = COALESCE(?, status),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		p.Title, p.Description, p.ContentTypeID, p.Metadata, p.CoverImage, p.Status, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Delete removes a content item; chapters and tag links cascade.
func (r *ContentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM contents WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(s rowScanner) (*model.Content, error) {
	var (
		c    model.Content
		tags sql.NullString
	)
	if err := s.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.ContentTypeID,
		&c.Metadata,
		&c.CoverImage,
		&c.Status,
		&c.AuthorUserID,
		&c.AuthorUsername,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.ContentTypeName,
		&c.ContentTypeDisplay,
		&tags,
	); err != nil {
		return nil, err
	}
	c.Tags = splitTags(tags)
	return &c, nil
}

func splitTags(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return []string{}
	}
	return strings.Split(s.String, ",")
}
