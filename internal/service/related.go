package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/showlink/internal/config"
	"github.com/amaumene/showlink/internal/domain"
	"github.com/amaumene/showlink/internal/livequery"
	"github.com/amaumene/showlink/internal/metrics"
	"github.com/amaumene/showlink/internal/retry"
	"github.com/google/go-cmp/cmp/cmpopts"
	log "github.com/sirupsen/logrus"
)

const relatedPage = 0

// Repositories groups the store-backed collaborators shared by services.
type Repositories struct {
	Shows   domain.ShowRepository
	Related domain.RelatedShowsRepository
	Tx      domain.TransactionRunner
	Changes domain.ChangeNotifier
}

type RelatedShowsService struct {
	repos       Repositories
	catalog     domain.CatalogClient
	fetcher     domain.ShowFetcher
	metrics     *metrics.Metrics
	policy      retry.Policy
	pageSize    int
	concurrency int
}

func NewRelatedShowsService(cfg *config.Config, repos Repositories, catalog domain.CatalogClient, fetcher domain.ShowFetcher, m *metrics.Metrics) *RelatedShowsService {
	return &RelatedShowsService{
		repos:       repos,
		catalog:     catalog,
		fetcher:     fetcher,
		metrics:     m,
		policy:      retry.NewPolicy(cfg.RetryCount, cfg.RetryDelay),
		pageSize:    cfg.RelatedPageSize,
		concurrency: cfg.RefreshConcurrency,
	}
}

// Refresh replaces the stored related shows of showID with the catalog's
// current list, then refreshes the details of every related show. Detail
// refreshes run detached from ctx and their failures are only logged.
func (s *RelatedShowsService) Refresh(ctx context.Context, showID int64) error {
	start := time.Now()
	err := s.refresh(ctx, showID)

	result := metrics.ResultSuccess
	switch {
	case errors.Is(err, domain.ErrShowNotFound):
		result = metrics.ResultNotFound
	case err != nil:
		result = metrics.ResultError
	}
	s.metrics.RefreshCompleted(result, time.Since(start).Seconds())
	return err
}

func (s *RelatedShowsService) refresh(ctx context.Context, showID int64) error {
	logger := log.WithFields(log.Fields{
		"component": "service",
		"operation": "refresh_related",
		"showID":    showID,
	})

	show, err := s.repos.Shows.Get(ctx, showID)
	if err != nil {
		return fmt.Errorf("loading show: %w", err)
	}

	results, err := retry.Do(ctx, s.policy.Named("related_shows"), func(ctx context.Context) ([]domain.CatalogShow, error) {
		return s.catalog.RelatedShows(ctx, show.TraktID, relatedPage, s.pageSize)
	})
	if err != nil {
		return fmt.Errorf("fetching related shows: %w: %w", domain.ErrCatalogUnavailable, err)
	}
	s.metrics.RelatedFetched(len(results))

	entries, err := s.buildEntries(ctx, showID, results)
	if err != nil {
		return err
	}

	err = s.repos.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.Related.DeleteByShowID(ctx, showID); err != nil {
			return err
		}
		return s.repos.Related.InsertAll(ctx, entries)
	})
	if err != nil {
		return fmt.Errorf("replacing related shows: %w", err)
	}
	logger.WithField("count", len(entries)).Info("Related shows saved")

	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.OtherShowID)
	}
	failures := fanOut(context.WithoutCancel(ctx), ids, s.concurrency, s.fetcher.Update, s.metrics.ShowUpdateFailed)
	if failures > 0 {
		logger.WithField("failed", failures).Warn("Some related show updates failed")
	}
	return nil
}

func (s *RelatedShowsService) buildEntries(ctx context.Context, showID int64, results []domain.CatalogShow) ([]domain.RelatedShowEntry, error) {
	entries := make([]domain.RelatedShowEntry, 0, len(results))
	for i, result := range results {
		otherID, err := s.fetcher.InsertPlaceholderIfNeeded(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("inserting placeholder for trakt id %d: %w", result.TraktID, err)
		}
		entries = append(entries, domain.RelatedShowEntry{
			ShowID:      showID,
			OtherShowID: otherID,
			OrderIndex:  i,
		})
	}
	return entries, nil
}

// List returns the current related shows of showID.
func (s *RelatedShowsService) List(ctx context.Context, showID int64) ([]domain.RelatedShowsListItem, error) {
	if _, err := s.repos.Shows.Get(ctx, showID); err != nil {
		return nil, fmt.Errorf("loading show: %w", err)
	}

	items, err := s.repos.Related.ListItems(ctx, showID)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Observe streams the related shows of showID. The first value is always
// empty; later values follow store changes, with consecutive duplicates
// dropped. The channel closes when ctx is done.
func (s *RelatedShowsService) Observe(ctx context.Context, showID int64) <-chan []domain.RelatedShowsListItem {
	tables := []string{domain.TableRelatedShows, domain.TableShows}
	query := func(ctx context.Context) ([]domain.RelatedShowsListItem, error) {
		return s.repos.Related.ListItems(ctx, showID)
	}
	return livequery.Observe(ctx, s.repos.Changes, tables, []domain.RelatedShowsListItem{}, query, cmpopts.EquateEmpty())
}
