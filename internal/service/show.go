package service

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/showlink/internal/config"
	"github.com/amaumene/showlink/internal/domain"
	"github.com/amaumene/showlink/internal/metrics"
	"github.com/amaumene/showlink/internal/retry"
	log "github.com/sirupsen/logrus"
)

// ShowService implements domain.ShowFetcher.
type ShowService struct {
	shows       domain.ShowRepository
	catalog     domain.CatalogClient
	metrics     *metrics.Metrics
	policy      retry.Policy
	concurrency int
}

func NewShowService(cfg *config.Config, shows domain.ShowRepository, catalog domain.CatalogClient, m *metrics.Metrics) *ShowService {
	return &ShowService{
		shows:       shows,
		catalog:     catalog,
		metrics:     m,
		policy:      retry.NewPolicy(cfg.RetryCount, cfg.RetryDelay),
		concurrency: cfg.RefreshConcurrency,
	}
}

func (s *ShowService) InsertPlaceholderIfNeeded(ctx context.Context, show domain.CatalogShow) (int64, error) {
	return s.shows.InsertPlaceholderIfNeeded(ctx, show)
}

// Update replaces the local details of showID with the catalog's full
// record and clears its placeholder flag.
func (s *ShowService) Update(ctx context.Context, showID int64) error {
	show, err := s.shows.Get(ctx, showID)
	if err != nil {
		return fmt.Errorf("loading show: %w", err)
	}

	details, err := s.fetchDetails(ctx, show.TraktID)
	if err != nil {
		return err
	}

	applyDetails(show, details)
	if err := s.shows.Update(ctx, show); err != nil {
		return fmt.Errorf("saving show: %w", err)
	}
	return nil
}

// Add marks the show with the given Trakt id as tracked and returns its
// local row with full details. A placeholder row is promoted in place.
func (s *ShowService) Add(ctx context.Context, traktID int64) (*domain.Show, error) {
	if traktID <= 0 {
		return nil, fmt.Errorf("trakt id %d: %w", traktID, domain.ErrInvalidInput)
	}

	details, err := s.fetchDetails(ctx, traktID)
	if err != nil {
		return nil, err
	}

	id, err := s.shows.InsertPlaceholderIfNeeded(ctx, *details)
	if err != nil {
		return nil, fmt.Errorf("inserting show: %w", err)
	}

	show, err := s.shows.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading show: %w", err)
	}
	applyDetails(show, details)
	show.Tracked = true
	if err := s.shows.Update(ctx, show); err != nil {
		return nil, fmt.Errorf("saving show: %w", err)
	}

	log.WithFields(log.Fields{
		"component": "service",
		"showID":    show.ID,
		"traktID":   traktID,
		"title":     show.Title,
	}).Info("Show added")
	return show, nil
}

// UpdateAll refreshes the details of every show in ids and returns the
// number of failures.
func (s *ShowService) UpdateAll(ctx context.Context, ids []int64) int {
	return fanOut(ctx, ids, s.concurrency, s.Update, s.metrics.ShowUpdateFailed)
}

func (s *ShowService) fetchDetails(ctx context.Context, traktID int64) (*domain.CatalogShow, error) {
	details, err := retry.Do(ctx, s.policy.Named("show"), func(ctx context.Context) (*domain.CatalogShow, error) {
		return s.catalog.Show(ctx, traktID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching show %d: %w: %w", traktID, domain.ErrCatalogUnavailable, err)
	}
	return details, nil
}

func applyDetails(show *domain.Show, details *domain.CatalogShow) {
	show.Slug = details.Slug
	show.IMDB = details.IMDB
	show.TMDB = details.TMDB
	show.TVDB = details.TVDB
	show.Title = details.Title
	show.Year = details.Year
	show.Overview = details.Overview
	show.Status = details.Status
	show.Placeholder = false
	show.UpdatedAt = time.Now().UTC()
}
