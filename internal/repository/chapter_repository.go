package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cms-backend/internal/database"
	"github.com/iliyamo/cms-backend/internal/model"
	"github.com/iliyamo/cms-backend/internal/paging"
)

// ChapterRepo encapsulates queries on chapters. Visibility is decided by
// the caller from the parent content; these queries never filter on it.
type ChapterRepo struct{ db database.DBTX }

func NewChapterRepo(db database.DBTX) *ChapterRepo { return &ChapterRepo{db: db} }

const chapterCols = `ch.id, ch.content_id, ch.chapter_number, ch.title, ch.content_data, ch.metadata,
		ch.published_at, ch.created_at, ch.updated_at`

// List returns one page of chapters of contentID by ascending number.
func (r *ChapterRepo) List(ctx context.Context, contentID uint64, p paging.Request) ([]model.Chapter, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chapters WHERE content_id = ?", contentID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+chapterCols+`
		FROM chapters ch
		WHERE ch.content_id = ?
		ORDER BY ch.chapter_number ASC
		LIMIT ? OFFSET ?`, contentID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Chapter, 0, p.Limit)
	for rows.Next() {
		var ch model.Chapter
		if err := rows.Scan(&ch.ID, &ch.ContentID, &ch.ChapterNumber, &ch.Title, &ch.ContentData,
			&ch.Metadata, &ch.PublishedAt, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID returns chapterID of contentID joined with its content's title
// and type. A chapter belonging to another content is ErrNotFound.
func (r *ChapterRepo) GetByID(ctx context.Context, contentID, chapterID uint64) (*model.Chapter, error) {
	var ch model.Chapter
	err := r.db.QueryRowContext(ctx, `SELECT `+chapterCols+`,
		c.title, c.content_type_id, ct.name
		FROM chapters ch
		JOIN contents c ON c.id = ch.content_id
		JOIN content_types ct ON ct.id = c.content_type_id
		WHERE ch.id = ? AND ch.content_id = ?`, chapterID, contentID).
		Scan(&ch.ID, &ch.ContentID, &ch.ChapterNumber, &ch.Title, &ch.ContentData,
			&ch.Metadata, &ch.PublishedAt, &ch.CreatedAt, &ch.UpdatedAt,
			&ch.ContentTitle, &ch.ContentTypeID, &ch.ContentTypeName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

// NumberTaken reports whether contentID already has a chapter numbered n
// other than excludeID (0 excludes nothing).
func (r *ChapterRepo) NumberTaken(ctx context.Context, contentID uint64, n int, excludeID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM chapters WHERE content_id = ? AND chapter_number = ? AND id <> ? LIMIT 1",
		contentID, n, excludeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// NewChapter is the row written by Create.
type NewChapter struct {
	ContentID     uint64
	ChapterNumber int
	Title         string
	ContentData   model.JSON
	Metadata      model.JSON
	PublishedAt   *time.Time
}

// Create inserts a chapter. A taken (content, number) pair is ErrConflict.
func (r *ChapterRepo) Create(ctx context.Context, c NewChapter) (uint64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO chapters
		(content_id, chapter_number, title, content_data, metadata, published_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ContentID, c.ChapterNumber, c.Title, c.ContentData, c.Metadata, c.PublishedAt)
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

// ChapterPatch holds the fields of a partial update; nil leaves a column
// unchanged.
type ChapterPatch struct {
	ChapterNumber *int
	Title         *string
	ContentData   model.JSON
	Metadata      model.JSON
	PublishedAt   *time.Time
}

// Update applies p to chapterID of contentID.
func (r *ChapterRepo) Update(ctx context.Context, contentID, chapterID uint64, p ChapterPatch) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chapters
		SET chapter_number = COALESCE(?, chapter_number),
		    title = COALESCE(?, title),
		    content_data = COALESCE(?, content_data),
		    metadata = COALESCE(?, metadata),
		    published_at = COALESCE(?, published_at),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND content_id = ?`,
		p.ChapterNumber, p.Title, p.ContentData, p.Metadata, p.PublishedAt, chapterID, contentID)
	if err != nil {
		if database.IsDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return expectOne(res)
}

// Delete removes chapterID of contentID.
func (r *ChapterRepo) Delete(ctx context.Context, contentID, chapterID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM chapters WHERE id = ? AND content_id = ?", chapterID, contentID)
	if err != nil {
		return err
	}
	return expectOne(res)
}
