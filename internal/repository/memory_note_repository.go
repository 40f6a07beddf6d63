package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"notes-stream-be/internal/changefeed"
	"notes-stream-be/internal/entity"
	"notes-stream-be/internal/pkg/serverutils"

	"github.com/google/uuid"
)

// memoryNoteRepository keeps notes in a map guarded by one mutex. Every
// operation runs inside the critical section; change events are constructed
// from the post-mutation state while still inside it, so a racing mutation
// can never produce an event describing superseded state.
//
// Mutations hand off from the store lock to publishMu before releasing it,
// so events leave the feed in commit order without the store lock ever being
// held through delivery. The feed acks at intake, so holding publishMu never
// waits on a consumer draining its stream.
type memoryNoteRepository struct {
	feed *changefeed.Feed

	mu        sync.Mutex
	publishMu sync.Mutex
	notes     map[uuid.UUID]entity.Note
	closed    bool
}

func NewMemoryNoteRepository(feed *changefeed.Feed) INoteRepository {
	return &memoryNoteRepository{
		feed:  feed,
		notes: make(map[uuid.UUID]entity.Note),
	}
}

func (r *memoryNoteRepository) Create(ctx context.Context, title, content string) (*entity.Note, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, serverutils.ErrStoreClosed
	}

	note := entity.NewNote(title, content)
	r.notes[note.Id] = note
	event := entity.NewChangeEvent(entity.ChangeCreated, note)
	r.publishMu.Lock()
	r.mu.Unlock()

	err := r.feed.Publish(event)
	r.publishMu.Unlock()
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *memoryNoteRepository) GetById(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, serverutils.ErrStoreClosed
	}

	note, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	return &note, nil
}

func (r *memoryNoteRepository) GetAll(ctx context.Context) ([]*entity.Note, error) {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return nil, serverutils.ErrStoreClosed
	}

	notes := make([]*entity.Note, 0, len(r.notes))
	for _, note := range r.notes {
		note := note
		notes = append(notes, &note)
	}
	r.mu.Unlock()

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

func (r *memoryNoteRepository) Update(ctx context.Context, id uuid.UUID, title, content string) (*entity.Note, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, serverutils.ErrStoreClosed
	}

	stored, ok := r.notes[id]
	if !ok {
		r.mu.Unlock()
		return nil, nil
	}

	updated := stored.WithContent(title, content, time.Now())
	r.notes[id] = updated
	event := entity.NewChangeEvent(entity.ChangeUpdated, updated)
	r.publishMu.Lock()
	r.mu.Unlock()

	err := r.feed.Publish(event)
	r.publishMu.Unlock()
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *memoryNoteRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false, serverutils.ErrStoreClosed
	}

	stored, ok := r.notes[id]
	if !ok {
		r.mu.Unlock()
		return false, nil
	}

	delete(r.notes, id)
	event := entity.NewChangeEvent(entity.ChangeDeleted, stored)
	r.publishMu.Lock()
	r.mu.Unlock()

	err := r.feed.Publish(event)
	r.publishMu.Unlock()
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *memoryNoteRepository) Subscribe(ctx context.Context) (<-chan entity.ChangeEvent, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()

	if closed {
		return nil, serverutils.ErrStoreClosed
	}
	return r.feed.Subscribe(ctx)
}

func (r *memoryNoteRepository) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.notes = nil
	r.mu.Unlock()

	return r.feed.Close()
}
