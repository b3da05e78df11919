package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amaumene/showlink/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowRepository_InsertPlaceholderIfNeeded(t *testing.T) {
	store, notifier := openTestStore(t)
	repo := NewShowRepository(store)
	ctx := context.Background()

	first, err := repo.InsertPlaceholderIfNeeded(ctx, domain.CatalogShow{TraktID: 9001, Title: "Severance", Year: 2022})
	require.NoError(t, err)
	second, err := repo.InsertPlaceholderIfNeeded(ctx, domain.CatalogShow{TraktID: 9002})
	require.NoError(t, err)
	again, err := repo.InsertPlaceholderIfNeeded(ctx, domain.CatalogShow{TraktID: 9001, Title: "Renamed"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, first, again)
	assert.Equal(t, 2, notifier.count(), "existing show must not notify")

	show, err := repo.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Severance", show.Title)
	assert.Equal(t, int64(2022), show.Year)
	assert.True(t, show.Placeholder)

	_, err = repo.InsertPlaceholderIfNeeded(ctx, domain.CatalogShow{TraktID: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestShowRepository_InsertPlaceholderIfNeeded_Concurrent(t *testing.T) {
	store, _ := openTestStore(t)
	repo := NewShowRepository(store)
	ctx := context.Background()

	const workers = 8
	ids := make([]int64, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := repo.InsertPlaceholderIfNeeded(ctx, domain.CatalogShow{TraktID: 555})
			assert.NoError(t, err)
			ids[i] = id
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestShowRepository_GetAndUpdate(t *testing.T) {
	store, _ := openTestStore(t)
	repo := NewShowRepository(store)
	ctx := context.Background()

	_, err := repo.Get(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrShowNotFound)
	_, err = repo.GetByTraktID(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrShowNotFound)

	id, err := repo.InsertPlaceholderIfNeeded(ctx, domain.CatalogShow{TraktID: 42, IMDB: "tt0000042"})
	require.NoError(t, err)

	show, err := repo.GetByTraktID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, id, show.ID)

	updatedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	show.Title = "The Expanse"
	show.Status = "ended"
	show.Placeholder = false
	show.UpdatedAt = updatedAt
	require.NoError(t, repo.Update(ctx, show))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "The Expanse", got.Title)
	assert.Equal(t, "ended", got.Status)
	assert.Equal(t, "tt0000042", got.IMDB)
	assert.False(t, got.Placeholder)
	assert.True(t, updatedAt.Equal(got.UpdatedAt))

	err = repo.Update(ctx, &domain.Show{ID: 777, TraktID: 1})
	assert.ErrorIs(t, err, domain.ErrShowNotFound)
	err = repo.Update(ctx, &domain.Show{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestShowRepository_FindTracked(t *testing.T) {
	store, _ := openTestStore(t)
	repo := NewShowRepository(store)
	ctx := context.Background()

	for _, traktID := range []int64{10, 20, 30} {
		id, err := repo.InsertPlaceholderIfNeeded(ctx, domain.CatalogShow{TraktID: traktID})
		require.NoError(t, err)
		if traktID == 20 {
			continue
		}
		show, err := repo.Get(ctx, id)
		require.NoError(t, err)
		show.Tracked = true
		require.NoError(t, repo.Update(ctx, show))
	}

	tracked, err := repo.FindTracked(ctx)
	require.NoError(t, err)
	require.Len(t, tracked, 2)
	assert.Equal(t, int64(10), tracked[0].TraktID)
	assert.Equal(t, int64(30), tracked[1].TraktID)
}
