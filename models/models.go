// neurodvach/models/models.go
package models

import (
	"html/template"
	"time"
)

// --- Core Data Models ---

// AuthorType says who wrote a post.
type AuthorType string

const (
	AuthorUser AuthorType = "user"
	AuthorAI   AuthorType = "ai"
)

type Board struct {
	ID          int64
	Slug        string
	Title       string
	Description string
}

type Thread struct {
	ID        int64
	BoardID   int64
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	PostCount int
}

type Post struct {
	ID         int64
	ThreadID   int64
	AuthorType AuthorType
	AuthorName string
	Content    string
	CreatedAt  time.Time
	// HTML is filled by the presentation layer only.
	HTML template.HTML
}

// IsAI reports whether the post was written by the model.
func (p Post) IsAI() bool {
	return p.AuthorType == AuthorAI
}
