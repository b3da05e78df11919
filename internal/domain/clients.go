package domain

import "context"

//go:generate mockgen -destination=mocks/mock_clients.go -package=mocks -source=clients.go

// CatalogClient is the remote show catalog.
type CatalogClient interface {
	RelatedShows(ctx context.Context, traktID int64, page, limit int) ([]CatalogShow, error)
	Show(ctx context.Context, traktID int64) (*CatalogShow, error)
}

// ShowFetcher keeps local show rows in step with the catalog.
type ShowFetcher interface {
	InsertPlaceholderIfNeeded(ctx context.Context, show CatalogShow) (int64, error)
	Update(ctx context.Context, showID int64) error
}
