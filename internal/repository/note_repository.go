package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"notes-stream-be/internal/changefeed"
	"notes-stream-be/internal/entity"
	"notes-stream-be/internal/pkg/serverutils"
	"notes-stream-be/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// INoteRepository owns the note lifecycle and publishes one change event per
// successful mutation. The in-memory and postgres implementations are
// behaviorally identical; the test battery runs against both.
//
// "Not found" is never an error here: reads and updates return a nil note,
// Delete returns false. Inputs are trusted to be validated by the caller.
type INoteRepository interface {
	Create(ctx context.Context, title, content string) (*entity.Note, error)
	GetById(ctx context.Context, id uuid.UUID) (*entity.Note, error)
	GetAll(ctx context.Context) ([]*entity.Note, error)
	Update(ctx context.Context, id uuid.UUID, title, content string) (*entity.Note, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Subscribe(ctx context.Context) (<-chan entity.ChangeEvent, error)
	Close(ctx context.Context) error
}

type noteRepository struct {
	db   database.DatabaseQueryer
	pool *pgxpool.Pool
	feed *changefeed.Feed

	// publishMu brackets each mutating statement together with its event
	// publish, so events leave the feed in commit order. The feed acks at
	// intake; holding it never waits on a consumer draining its stream.
	publishMu sync.Mutex

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewNoteRepository(pool *pgxpool.Pool, feed *changefeed.Feed) INoteRepository {
	return &noteRepository{
		db:   pool,
		pool: pool,
		feed: feed,
	}
}

// EnsureSchema creates the note table when it does not exist yet.
func EnsureSchema(ctx context.Context, db database.DatabaseQueryer) error {
	_, err := db.Exec(
		ctx,
		`CREATE TABLE IF NOT EXISTS note (
			id         UUID PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	)
	return err
}

func (r *noteRepository) Create(ctx context.Context, title, content string) (*entity.Note, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}

	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	note := entity.NewNote(title, content)
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO note (id, title, content, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		note.Id,
		note.Title,
		note.Content,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := r.feed.Publish(entity.NewChangeEvent(entity.ChangeCreated, note)); err != nil {
		return nil, err
	}

	return &note, nil
}

func (r *noteRepository) GetById(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}

	row := r.db.QueryRow(
		ctx,
		`SELECT id, title, content, created_at, updated_at FROM note WHERE id = $1`,
		id,
	)

	var note entity.Note
	err := row.Scan(&note.Id, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &note, nil
}

func (r *noteRepository) GetAll(ctx context.Context) ([]*entity.Note, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT id, title, content, created_at, updated_at FROM note ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]*entity.Note, 0)
	for rows.Next() {
		var note entity.Note
		if err := rows.Scan(&note.Id, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, &note)
	}

	return notes, rows.Err()
}

// Update replaces title/content in one statement; the RETURNING clause both
// detects a missing id and yields the committed row for the change event, so
// there is no separate existence check to race against.
func (r *noteRepository) Update(ctx context.Context, id uuid.UUID, title, content string) (*entity.Note, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}

	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	row := r.db.QueryRow(
		ctx,
		`UPDATE note SET title = $2, content = $3, updated_at = $4 WHERE id = $1
		 RETURNING id, title, content, created_at, updated_at`,
		id,
		title,
		content,
		time.Now(),
	)

	var note entity.Note
	err := row.Scan(&note.Id, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := r.feed.Publish(entity.NewChangeEvent(entity.ChangeUpdated, note)); err != nil {
		return nil, err
	}

	return &note, nil
}

// Delete removes the row and captures its last snapshot atomically via
// RETURNING; the snapshot rides on the deleted event.
func (r *noteRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := r.guard(); err != nil {
		return false, err
	}

	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	row := r.db.QueryRow(
		ctx,
		`DELETE FROM note WHERE id = $1 RETURNING id, title, content, created_at, updated_at`,
		id,
	)

	var note entity.Note
	err := row.Scan(&note.Id, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if err := r.feed.Publish(entity.NewChangeEvent(entity.ChangeDeleted, note)); err != nil {
		return false, err
	}

	return true, nil
}

func (r *noteRepository) Subscribe(ctx context.Context) (<-chan entity.ChangeEvent, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	return r.feed.Subscribe(ctx)
}

func (r *noteRepository) Close(ctx context.Context) error {
	var err error
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()

		err = r.feed.Close()
		r.pool.Close()
	})
	return err
}

func (r *noteRepository) guard() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return serverutils.ErrStoreClosed
	}
	return nil
}
