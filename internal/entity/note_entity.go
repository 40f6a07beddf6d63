package entity

import (
	"time"

	"github.com/google/uuid"
)

// Note is the canonical note record. Stores hold their own copy and hand
// out copies, so a caller can never mutate stored state through a result.
type Note struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewNote builds a fresh note with a generated id and
// CreatedAt == UpdatedAt == now.
func NewNote(title, content string) Note {
	now := time.Now()
	return Note{
		Id:        uuid.New(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithContent returns a copy of the note carrying new title/content and
// UpdatedAt bumped to updatedAt. Id and CreatedAt are preserved.
func (n Note) WithContent(title, content string, updatedAt time.Time) Note {
	n.Title = title
	n.Content = content
	n.UpdatedAt = updatedAt
	return n
}
