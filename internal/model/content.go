package model

import "time"

// ContentType is a row of `content_types`: a category such as novel or comic.
type ContentType struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`         // unique machine name
	DisplayName string    `json:"display_name"` // human label
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Content is a row of `contents`, plus the joined type and tag columns of
// the read views.
//
// AuthorUserID is nil for content created before ownership was tracked. It
// is bound to the first authenticated user who mutates the item and never
// changes afterwards. AuthorUsername is a copy taken at bind time.
type Content struct {
	ID             uint64    `json:"id"`
	Title          string    `json:"title"`
	Description    *string   `json:"description"`
	ContentTypeID  uint64    `json:"content_type_id"`
	Metadata       JSON      `json:"metadata"`
	CoverImage     *string   `json:"cover_image"`
	Status         string    `json:"status"`
	AuthorUserID   *uint64   `json:"author_user_id"`
	AuthorUsername *string   `json:"author_username"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	ContentTypeName    string   `json:"content_type_name,omitempty"`
	ContentTypeDisplay string   `json:"content_type_display,omitempty"`
	Tags               []string `json:"tags"`
}

// Owner is the ownership state of a content row as read under lock.
type Owner struct {
	UserID   *uint64
	Username *string
	Status   string
}

// Chapter is a row of `chapters`. The Content* fields are filled by the
// single-chapter read only.
type Chapter struct {
	ID            uint64     `json:"id"`
	ContentID     uint64     `json:"content_id"`
	ChapterNumber int        `json:"chapter_number"`
	Title         string     `json:"title"`
	ContentData   JSON       `json:"content_data"`
	Metadata      JSON       `json:"metadata"`
	PublishedAt   *time.Time `json:"published_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	ContentTitle    string  `json:"content_title,omitempty"`
	ContentTypeID   *uint64 `json:"content_type_id,omitempty"`
	ContentTypeName string  `json:"content_type_name,omitempty"`
}

// Tag is a row of `tags`.
type Tag struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#007bff"
