package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/amaumene/showlink/internal/config"
	"github.com/amaumene/showlink/internal/domain"
	"github.com/amaumene/showlink/internal/domain/mocks"
	"github.com/amaumene/showlink/internal/metrics"
	"github.com/amaumene/showlink/internal/notify"
	"github.com/amaumene/showlink/internal/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type testEnv struct {
	cfg     *config.Config
	hub     *notify.Hub
	repos   Repositories
	catalog *mocks.MockCatalogClient
	metrics *metrics.Metrics
}

func testConfig() *config.Config {
	return &config.Config{
		RetryCount:      2,
		RetryDelay:      time.Millisecond,
		RelatedPageSize: 10,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	hub := notify.NewHub()

	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), 0666, hub)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})

	return &testEnv{
		cfg: testConfig(),
		hub: hub,
		repos: Repositories{
			Shows:   storage.NewShowRepository(store),
			Related: storage.NewRelatedShowsRepository(store),
			Tx:      store,
			Changes: hub,
		},
		catalog: mocks.NewMockCatalogClient(ctrl),
		metrics: metrics.New(),
	}
}

func (e *testEnv) showService() *ShowService {
	return NewShowService(e.cfg, e.repos.Shows, e.catalog, e.metrics)
}

func (e *testEnv) relatedService(fetcher domain.ShowFetcher) *RelatedShowsService {
	return NewRelatedShowsService(e.cfg, e.repos, e.catalog, fetcher, e.metrics)
}

// seedShow inserts placeholder rows until traktID is stored under localID.
// Local ids are assigned sequentially from 1.
func seedShow(t *testing.T, repo domain.ShowRepository, localID, traktID int64) {
	t.Helper()
	ctx := context.Background()
	for i := int64(1); i < localID; i++ {
		_, err := repo.InsertPlaceholderIfNeeded(ctx, domain.CatalogShow{TraktID: 1_000_000 + i})
		require.NoError(t, err)
	}
	id, err := repo.InsertPlaceholderIfNeeded(ctx, domain.CatalogShow{TraktID: traktID, Title: "Source"})
	require.NoError(t, err)
	require.Equal(t, localID, id)
}

func catalogShows(traktIDs ...int64) []domain.CatalogShow {
	shows := make([]domain.CatalogShow, 0, len(traktIDs))
	for _, id := range traktIDs {
		shows = append(shows, domain.CatalogShow{TraktID: id, Title: fmt.Sprintf("Show %d", id)})
	}
	return shows
}

// expectDetails makes the catalog answer every detail lookup.
func (e *testEnv) expectDetails() {
	e.catalog.EXPECT().Show(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, traktID int64) (*domain.CatalogShow, error) {
			return &domain.CatalogShow{
				TraktID: traktID,
				Title:   fmt.Sprintf("Show %d", traktID),
				Status:  "returning series",
			}, nil
		}).AnyTimes()
}
