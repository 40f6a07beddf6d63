package dto

import (
	"strings"

	"notes-stream-be/internal/entity"
	"notes-stream-be/internal/pkg/serverutils"
)

type CreateNoteRequest struct {
	Title   string `json:"title" validate:"max=200"`
	Content string `json:"content" validate:"max=10000"`
}

func (r *CreateNoteRequest) Sanitize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
}

func (r *CreateNoteRequest) CrossValidate() []serverutils.ErrorDetail {
	return requireTitleOrContent(r.Title, r.Content)
}

type UpdateNoteRequest struct {
	Id      string `json:"id" validate:"required"`
	Title   string `json:"title" validate:"max=200"`
	Content string `json:"content" validate:"max=10000"`
}

func (r *UpdateNoteRequest) Sanitize() {
	r.Id = strings.TrimSpace(r.Id)
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
}

func (r *UpdateNoteRequest) CrossValidate() []serverutils.ErrorDetail {
	return requireTitleOrContent(r.Title, r.Content)
}

// A note with neither title nor content is meaningless; the violation is
// reported on the synthetic field "note" since it belongs to no single input.
func requireTitleOrContent(title, content string) []serverutils.ErrorDetail {
	if title != "" || content != "" {
		return nil
	}
	return []serverutils.ErrorDetail{{
		Field:   "note",
		Code:    serverutils.CodeCustom,
		Message: "title and content cannot both be empty",
	}}
}

type NoteResponse struct {
	Id        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

func NewNoteResponse(note *entity.Note) *NoteResponse {
	return &NoteResponse{
		Id:        note.Id.String(),
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: note.CreatedAt.UnixMilli(),
		UpdatedAt: note.UpdatedAt.UnixMilli(),
	}
}

type DeleteNoteResponse struct {
	Deleted bool `json:"deleted"`
}
