package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cms-backend/internal/database"
	"github.com/iliyamo/cms-backend/internal/model"
)

// ContentTypeRepo encapsulates queries on content_types.
type ContentTypeRepo struct{ db database.DBTX }

func NewContentTypeRepo(db database.DBTX) *ContentTypeRepo { return &ContentTypeRepo{db: db} }

const contentTypeCols = "id, name, display_name, description, created_at, updated_at"

// List returns all content types ordered by id.
func (r *ContentTypeRepo) List(ctx context.Context) ([]model.ContentType, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+contentTypeCols+" FROM content_types ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ContentType{}
	for rows.Next() {
		var ct model.ContentType
		if err := rows.Scan(&ct.ID, &ct.Name, &ct.DisplayName, &ct.Description, &ct.CreatedAt, &ct.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// GetByID returns ErrNotFound when the type does not exist.
func (r *ContentTypeRepo) GetByID(ctx context.Context, id uint64) (*model.ContentType, error) {
	var ct model.ContentType
	err := r.db.QueryRowContext(ctx, "SELECT "+contentTypeCols+" FROM content_types WHERE id = ?", id).
		Scan(&ct.ID, &ct.Name, &ct.DisplayName, &ct.Description, &ct.CreatedAt, &ct.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ct, nil
}

// Exists reports whether a content type with id exists.
func (r *ContentTypeRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM content_types WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Create inserts a content type. A taken name is ErrConflict.
func (r *ContentTypeRepo) Create(ctx context.Context, name, displayName string, description *string) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO content_types (name, display_name, description) VALUES (?, ?, ?)",
		name, displayName, description)
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

// ContentTypePatch holds the fields of a partial update; nil leaves a
// column unchanged.
type ContentTypePatch struct {
	Name        *string
	DisplayName *string
	Description *string
}

// Update applies p to the type with id.
func (r *ContentTypeRepo) Update(ctx context.Context, id uint64, p ContentTypePatch) error {
	res, err := r.db.ExecContext(ctx, `UPDATE content_types
		SET name = COALESCE(?, name),
		    display_name = COALESCE(?, display_name),
		    description = COALESCE(?, description),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		p.Name, p.DisplayName, p.Description, id)
	if err != nil {
		if database.IsDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return expectOne(res)
}

// Delete removes the type. A type still used by contents is ErrConflict.
func (r *ContentTypeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM content_types WHERE id = ?", id)
	if err != nil {
		if database.IsReferenced(err) {
			return ErrConflict
		}
		return err
	}
	return expectOne(res)
}

// expectOne maps a zero RowsAffected to ErrNotFound.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
