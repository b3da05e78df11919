package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/amaumene/showlink/internal/domain"
	"github.com/amaumene/showlink/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestShowService_Add(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.showService()

	env.catalog.EXPECT().Show(gomock.Any(), int64(1390)).Return(&domain.CatalogShow{
		TraktID: 1390,
		Slug:    "game-of-thrones",
		IMDB:    "tt0944947",
		Title:   "Game of Thrones",
		Year:    2011,
		Status:  "ended",
	}, nil)

	show, err := svc.Add(ctx, 1390)
	require.NoError(t, err)
	assert.False(t, show.Placeholder)
	assert.Equal(t, "Game of Thrones", show.Title)

	stored, err := env.repos.Shows.GetByTraktID(ctx, 1390)
	require.NoError(t, err)
	assert.Equal(t, show.ID, stored.ID)
	assert.Equal(t, "tt0944947", stored.IMDB)
	assert.False(t, stored.Placeholder)

	tracked, err := env.repos.Shows.FindTracked(ctx)
	require.NoError(t, err)
	assert.Len(t, tracked, 1)
}

func TestShowService_AddInvalid(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.showService().Add(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestShowService_UpdateRetriesTransientErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedShow(t, env.repos.Shows, 1, 500)

	gomock.InOrder(
		env.catalog.EXPECT().Show(gomock.Any(), int64(500)).Return(nil, retry.WithStatus(502, errors.New("bad gateway"))),
		env.catalog.EXPECT().Show(gomock.Any(), int64(500)).Return(&domain.CatalogShow{TraktID: 500, Title: "Dark"}, nil),
	)

	require.NoError(t, env.showService().Update(ctx, 1))

	show, err := env.repos.Shows.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Dark", show.Title)
	assert.Equal(t, int64(500), show.TraktID)
	assert.False(t, show.Placeholder)
}

func TestShowService_UpdateMissingShow(t *testing.T) {
	env := newTestEnv(t)
	err := env.showService().Update(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrShowNotFound)
}

func TestShowService_UpdateAllCountsFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedShow(t, env.repos.Shows, 3, 300)

	env.catalog.EXPECT().Show(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, traktID int64) (*domain.CatalogShow, error) {
			if traktID == 300 {
				return nil, errors.New("401 unauthorized")
			}
			return &domain.CatalogShow{TraktID: traktID, Title: "ok"}, nil
		}).Times(3)

	failures := env.showService().UpdateAll(ctx, []int64{1, 2, 3})
	assert.Equal(t, 1, failures)
}

func TestFanOut_RespectsLimit(t *testing.T) {
	var running, peak atomic.Int64
	release := make(chan struct{})
	fn := func(context.Context, int64) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		return nil
	}

	done := make(chan int)
	go func() {
		done <- fanOut(context.Background(), []int64{1, 2, 3, 4, 5}, 2, fn, nil)
	}()
	for range 5 {
		release <- struct{}{}
	}

	assert.Equal(t, 0, <-done)
	assert.LessOrEqual(t, peak.Load(), int64(2))
}
