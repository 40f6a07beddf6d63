package service

import (
	"context"

	"notes-stream-be/internal/dto"
	"notes-stream-be/internal/pkg/serverutils"
	"notes-stream-be/internal/repository"

	"github.com/google/uuid"
)

type INoteService interface {
	Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.NoteResponse, error)
	Show(ctx context.Context, idParam string) (*dto.NoteResponse, error)
	List(ctx context.Context) ([]*dto.NoteResponse, error)
	Update(ctx context.Context, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error)
	Delete(ctx context.Context, idParam string) (*dto.DeleteNoteResponse, error)
}

// noteService validates every request before it reaches the repository; the
// repository trusts its inputs. Absent results from the repository become
// ErrNotFound here.
type noteService struct {
	noteRepository repository.INoteRepository
}

func NewNoteService(noteRepository repository.INoteRepository) INoteService {
	return &noteService{noteRepository: noteRepository}
}

func (s *noteService) Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.NoteResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	note, err := s.noteRepository.Create(ctx, req.Title, req.Content)
	if err != nil {
		return nil, err
	}

	return dto.NewNoteResponse(note), nil
}

func (s *noteService) Show(ctx context.Context, idParam string) (*dto.NoteResponse, error) {
	note, err := s.noteRepository.GetById(ctx, parseId(idParam))
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, serverutils.ErrNotFound
	}

	return dto.NewNoteResponse(note), nil
}

func (s *noteService) List(ctx context.Context) ([]*dto.NoteResponse, error) {
	notes, err := s.noteRepository.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.NoteResponse, 0, len(notes))
	for _, note := range notes {
		response = append(response, dto.NewNoteResponse(note))
	}
	return response, nil
}

func (s *noteService) Update(ctx context.Context, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	note, err := s.noteRepository.Update(ctx, parseId(req.Id), req.Title, req.Content)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, serverutils.ErrNotFound
	}

	return dto.NewNoteResponse(note), nil
}

func (s *noteService) Delete(ctx context.Context, idParam string) (*dto.DeleteNoteResponse, error) {
	deleted, err := s.noteRepository.Delete(ctx, parseId(idParam))
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, serverutils.ErrNotFound
	}

	return &dto.DeleteNoteResponse{Deleted: true}, nil
}

// parseId maps malformed id text to the nil UUID, which can never be stored,
// so the lookup simply misses and surfaces as not-found.
func parseId(idParam string) uuid.UUID {
	id, err := uuid.Parse(idParam)
	if err != nil {
		return uuid.Nil
	}
	return id
}
