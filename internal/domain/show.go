package domain

import (
	"context"
	"time"
)

// Table names reported to a ChangeNotifier after a committed write.
const (
	TableShows        = "shows"
	TableRelatedShows = "related_shows"
)

// Show is a locally stored show. ID is local; TraktID is the catalog id.
// Placeholder rows only carry what a related-shows listing returned.
// Tracked shows were added explicitly and are refreshed periodically.
type Show struct {
	ID          int64 `boltholdKey:"ID"`
	TraktID     int64 `boltholdIndex:"TraktID"`
	Slug        string
	IMDB        string
	TMDB        int64
	TVDB        int64
	Title       string
	Year        int64
	Overview    string
	Status      string
	Placeholder bool
	Tracked     bool
	UpdatedAt   time.Time
}

// RelatedShowEntry links a source show to one related show at a display position.
type RelatedShowEntry struct {
	ShowID      int64 `boltholdIndex:"ShowID"`
	OtherShowID int64
	OrderIndex  int
}

// RelatedShowsListItem is the read projection of an entry joined with the
// related show's details.
type RelatedShowsListItem struct {
	Entry RelatedShowEntry
	Show  Show
}

// CatalogShow is a show as returned by the remote catalog.
type CatalogShow struct {
	TraktID  int64
	Slug     string
	IMDB     string
	TMDB     int64
	TVDB     int64
	Title    string
	Year     int64
	Overview string
	Status   string
}

type ShowRepository interface {
	Get(ctx context.Context, id int64) (*Show, error)
	GetByTraktID(ctx context.Context, traktID int64) (*Show, error)
	// InsertPlaceholderIfNeeded returns the id of the show with the catalog
	// show's Trakt id, inserting a placeholder row first if there is none.
	InsertPlaceholderIfNeeded(ctx context.Context, show CatalogShow) (int64, error)
	Update(ctx context.Context, show *Show) error
	FindTracked(ctx context.Context) ([]Show, error)
}

type RelatedShowsRepository interface {
	DeleteByShowID(ctx context.Context, showID int64) error
	InsertAll(ctx context.Context, entries []RelatedShowEntry) error
	FindByShowID(ctx context.Context, showID int64) ([]RelatedShowEntry, error)
	ListItems(ctx context.Context, showID int64) ([]RelatedShowsListItem, error)
}

// TransactionRunner runs fn inside a single write transaction. Repository
// calls made with the context passed to fn join that transaction. The
// transaction commits only if fn returns nil.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ChangeNotifier fans out table change notifications to subscribers.
// Subscribe returns a channel that receives a value after one or more
// changes to any of the given tables, and a function that releases it.
type ChangeNotifier interface {
	Notify(ctx context.Context, tables ...string)
	Subscribe(tables ...string) (<-chan struct{}, func())
}
