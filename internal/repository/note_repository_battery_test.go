package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"notes-stream-be/internal/entity"
	"notes-stream-be/internal/pkg/serverutils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runNoteRepositoryBattery asserts the shared behavioral contract. Both
// store implementations must pass it unchanged.
func runNoteRepositoryBattery(t *testing.T, newRepo func(t *testing.T) INoteRepository) {
	ctx := context.Background()

	t.Run("CreateRoundTrip", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, "Hello", "World")
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, created.Id)
		assert.Equal(t, "Hello", created.Title)
		assert.Equal(t, "World", created.Content)
		assert.Equal(t, created.CreatedAt, created.UpdatedAt)

		got, err := repo.GetById(ctx, created.Id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created.Id, got.Id)
		assert.Equal(t, created.Title, got.Title)
		assert.Equal(t, created.Content, got.Content)
		assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Millisecond)
		assert.WithinDuration(t, created.UpdatedAt, got.UpdatedAt, time.Millisecond)
	})

	t.Run("GetByIdMissReturnsAbsent", func(t *testing.T) {
		repo := newRepo(t)

		got, err := repo.GetById(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("UpdateBumpsOnlyUpdatedAt", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, "before", "old")
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		updated, err := repo.Update(ctx, created.Id, "after", "new")
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, created.Id, updated.Id)
		assert.Equal(t, "after", updated.Title)
		assert.Equal(t, "new", updated.Content)
		assert.WithinDuration(t, created.CreatedAt, updated.CreatedAt, time.Millisecond)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt), "updatedAt must strictly increase")

		got, err := repo.GetById(ctx, created.Id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "after", got.Title)
	})

	t.Run("UpdateMissPublishesNothing", func(t *testing.T) {
		repo := newRepo(t)

		events, err := repo.Subscribe(ctx)
		require.NoError(t, err)

		updated, err := repo.Update(ctx, uuid.New(), "x", "y")
		require.NoError(t, err)
		assert.Nil(t, updated)

		// The next event must belong to this sentinel create, proving the
		// missed update emitted nothing.
		sentinel, err := repo.Create(ctx, "sentinel", "")
		require.NoError(t, err)

		got := receiveChange(t, events)
		assert.Equal(t, entity.ChangeCreated, got.Kind)
		assert.Equal(t, sentinel.Id, got.Note.Id)
	})

	t.Run("DeleteIsFinal", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, "doomed", "")
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, created.Id)
		require.NoError(t, err)
		assert.True(t, deleted)

		got, err := repo.GetById(ctx, created.Id)
		require.NoError(t, err)
		assert.Nil(t, got)

		deleted, err = repo.Delete(ctx, created.Id)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("GetAllNewestFirst", func(t *testing.T) {
		repo := newRepo(t)

		oldest, err := repo.Create(ctx, "oldest", "")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		middle, err := repo.Create(ctx, "middle", "")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		newest, err := repo.Create(ctx, "newest", "")
		require.NoError(t, err)

		notes, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, notes, 3)
		assert.Equal(t, newest.Id, notes[0].Id)
		assert.Equal(t, middle.Id, notes[1].Id)
		assert.Equal(t, oldest.Id, notes[2].Id)
	})

	t.Run("EventSequenceMatchesMutations", func(t *testing.T) {
		repo := newRepo(t)

		events, err := repo.Subscribe(ctx)
		require.NoError(t, err)

		created, err := repo.Create(ctx, "N1", "C1")
		require.NoError(t, err)
		_, err = repo.Update(ctx, created.Id, "N1", "C2")
		require.NoError(t, err)
		deleted, err := repo.Delete(ctx, created.Id)
		require.NoError(t, err)
		require.True(t, deleted)

		kinds := []entity.ChangeKind{entity.ChangeCreated, entity.ChangeUpdated, entity.ChangeDeleted}
		for _, kind := range kinds {
			got := receiveChange(t, events)
			assert.Equal(t, kind, got.Kind)
			assert.Equal(t, created.Id, got.Note.Id)
		}
	})

	t.Run("EventOrderHoldsUnderContention", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, "contended", "v0")
		require.NoError(t, err)

		events, err := repo.Subscribe(ctx)
		require.NoError(t, err)

		const writers = 4
		const updatesPerWriter = 50

		var wg sync.WaitGroup
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < updatesPerWriter; i++ {
					_, err := repo.Update(ctx, created.Id, "contended", "racing")
					assert.NoError(t, err)
				}
			}()
		}
		wg.Wait()

		// Racing writers commit in some serial order; the watcher must see
		// the events in that exact order, so the snapshots' UpdatedAt can
		// never go backwards.
		var last time.Time
		for i := 0; i < writers*updatesPerWriter; i++ {
			got := receiveChange(t, events)
			require.Equal(t, entity.ChangeUpdated, got.Kind)
			require.Equal(t, created.Id, got.Note.Id)
			require.False(t, got.Note.UpdatedAt.Before(last),
				"event %d out of commit order: %v before %v", i, got.Note.UpdatedAt, last)
			last = got.Note.UpdatedAt
		}
	})

	t.Run("DeletedEventCarriesLastSnapshot", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, "keep-title", "keep-content")
		require.NoError(t, err)

		events, err := repo.Subscribe(ctx)
		require.NoError(t, err)

		_, err = repo.Delete(ctx, created.Id)
		require.NoError(t, err)

		got := receiveChange(t, events)
		assert.Equal(t, entity.ChangeDeleted, got.Kind)
		assert.Equal(t, "keep-title", got.Note.Title)
		assert.Equal(t, "keep-content", got.Note.Content)
	})

	t.Run("ResultsAreIndependentCopies", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, "immutable", "stored")
		require.NoError(t, err)
		created.Title = "mutated by caller"

		got, err := repo.GetById(ctx, created.Id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "immutable", got.Title)

		got.Content = "also mutated"
		again, err := repo.GetById(ctx, created.Id)
		require.NoError(t, err)
		assert.Equal(t, "stored", again.Content)
	})

	t.Run("CloseStopsOperations", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, "last", "")
		require.NoError(t, err)

		events, err := repo.Subscribe(ctx)
		require.NoError(t, err)

		require.NoError(t, repo.Close(ctx))
		require.NoError(t, repo.Close(ctx), "close is idempotent")

		requireChangeStreamClosed(t, events)

		_, err = repo.Create(ctx, "too late", "")
		assert.ErrorIs(t, err, serverutils.ErrStoreClosed)
		_, err = repo.GetById(ctx, created.Id)
		assert.ErrorIs(t, err, serverutils.ErrStoreClosed)
		_, err = repo.Subscribe(ctx)
		assert.ErrorIs(t, err, serverutils.ErrStoreClosed)
	})
}

func receiveChange(t *testing.T, events <-chan entity.ChangeEvent) entity.ChangeEvent {
	t.Helper()
	select {
	case event, ok := <-events:
		require.True(t, ok, "change stream closed unexpectedly")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
		return entity.ChangeEvent{}
	}
}

func requireChangeStreamClosed(t *testing.T, events <-chan entity.ChangeEvent) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for change stream to close")
		}
	}
}
