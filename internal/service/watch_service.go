package service

import (
	"context"

	"notes-stream-be/internal/dto"
	"notes-stream-be/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type IWatchService interface {
	Watch(ctx context.Context, filterId *uuid.UUID) (<-chan dto.NoteEventResponse, error)
}

// watchService bridges one change-feed subscription to one client stream.
// Each Watch call subscribes independently; cancelling ctx releases the
// subscription promptly. The returned channel closes when ctx is cancelled
// or the store shuts down, and a terminated watch is not restartable.
type watchService struct {
	noteRepository repository.INoteRepository
	logger         zerolog.Logger
}

func NewWatchService(noteRepository repository.INoteRepository, logger zerolog.Logger) IWatchService {
	return &watchService{
		noteRepository: noteRepository,
		logger:         logger,
	}
}

func (s *watchService) Watch(ctx context.Context, filterId *uuid.UUID) (<-chan dto.NoteEventResponse, error) {
	events, err := s.noteRepository.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan dto.NoteEventResponse)
	go func() {
		defer close(out)
		for event := range events {
			if filterId != nil && event.Note.Id != *filterId {
				continue
			}

			select {
			case out <- dto.NewNoteEventResponse(event):
			case <-ctx.Done():
				return
			}
		}
		s.logger.Debug().Msg("watch subscription ended")
	}()

	return out, nil
}
