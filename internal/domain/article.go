package domain

import "time"

// Article is one pipeline run's source record. Text holds the extracted
// concepts joined by newlines; Source is the original URL or the literal
// "direct input" marker.
type Article struct {
	ID        int64
	Source    string
	Text      string
	UserID    *int64
	CreatedAt time.Time
}

// Media is one generated artifact owned by an Article. Rows cascade-delete
// with their article at the storage layer.
type Media struct {
	ID        int64
	ArticleID int64
	Prompt    string
	Style     string
	MediaType string
	MediaURL  string
	CreatedAt time.Time
}

// Media types stored on Media rows.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Persona is a stored reference image used to condition image-edit
// generation.
type Persona struct {
	ID        int64
	UserID    *int64
	Name      string
	ImageURL  string
	CreatedAt time.Time
}

// MediaListing is a media row joined with its article source, as returned
// by the listing endpoint.
type MediaListing struct {
	Media
	ArticleSource string
}
