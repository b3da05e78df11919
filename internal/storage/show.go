package storage

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/amaumene/showlink/internal/domain"
	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"
)

type showRepository struct {
	store *Store
}

func NewShowRepository(store *Store) domain.ShowRepository {
	return &showRepository{store: store}
}

func (r *showRepository) Get(ctx context.Context, id int64) (*domain.Show, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var show domain.Show
	err := r.store.view(ctx, func(tx *bolt.Tx) error {
		return r.store.db.TxGet(tx, id, &show)
	})
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, fmt.Errorf("getting show %d: %w", id, domain.ErrShowNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting show: %w", err)
	}
	return &show, nil
}

func (r *showRepository) GetByTraktID(ctx context.Context, traktID int64) (*domain.Show, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var show *domain.Show
	err := r.store.view(ctx, func(tx *bolt.Tx) error {
		found, err := r.findByTraktID(tx, traktID)
		show = found
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("finding show by trakt id: %w", err)
	}
	if show == nil {
		return nil, fmt.Errorf("trakt id %d: %w", traktID, domain.ErrShowNotFound)
	}
	return show, nil
}

func (r *showRepository) findByTraktID(tx *bolt.Tx, traktID int64) (*domain.Show, error) {
	var shows []domain.Show
	query := bolthold.Where("TraktID").Eq(traktID).Index("TraktID").Limit(1)
	if err := r.store.db.TxFind(tx, &shows, query); err != nil {
		return nil, err
	}
	if len(shows) == 0 {
		return nil, nil
	}
	return &shows[0], nil
}

func (r *showRepository) InsertPlaceholderIfNeeded(ctx context.Context, show domain.CatalogShow) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if show.TraktID <= 0 {
		return 0, fmt.Errorf("placeholder for trakt id %d: %w", show.TraktID, domain.ErrInvalidInput)
	}

	var id int64
	err := r.store.update(ctx, func(w *writeTx) error {
		existing, err := r.findByTraktID(w.Tx, show.TraktID)
		if err != nil {
			return err
		}
		if existing != nil {
			id = existing.ID
			return nil
		}

		id, err = nextID(w.Tx, domain.TableShows)
		if err != nil {
			return err
		}
		placeholder := newPlaceholder(id, show)
		if err := r.store.db.TxInsert(w.Tx, id, placeholder); err != nil {
			return err
		}
		w.touch(domain.TableShows)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("inserting placeholder show: %w", err)
	}
	return id, nil
}

func newPlaceholder(id int64, show domain.CatalogShow) *domain.Show {
	return &domain.Show{
		ID:          id,
		TraktID:     show.TraktID,
		Slug:        show.Slug,
		IMDB:        show.IMDB,
		TMDB:        show.TMDB,
		TVDB:        show.TVDB,
		Title:       show.Title,
		Year:        show.Year,
		Placeholder: true,
		UpdatedAt:   time.Now().UTC(),
	}
}

func (r *showRepository) Update(ctx context.Context, show *domain.Show) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if show == nil || show.ID <= 0 {
		return fmt.Errorf("updating show: %w", domain.ErrInvalidInput)
	}

	err := r.store.update(ctx, func(w *writeTx) error {
		if err := r.store.db.TxUpdate(w.Tx, show.ID, show); err != nil {
			return err
		}
		w.touch(domain.TableShows)
		return nil
	})
	if errors.Is(err, bolthold.ErrNotFound) {
		return fmt.Errorf("updating show %d: %w", show.ID, domain.ErrShowNotFound)
	}
	if err != nil {
		return fmt.Errorf("updating show: %w", err)
	}
	return nil
}

func compareByID(a, b domain.Show) int {
	return cmp.Compare(a.ID, b.ID)
}

func (r *showRepository) FindTracked(ctx context.Context) ([]domain.Show, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var shows []domain.Show
	err := r.store.view(ctx, func(tx *bolt.Tx) error {
		return r.store.db.TxFind(tx, &shows, bolthold.Where("Tracked").Eq(true))
	})
	if err != nil {
		return nil, fmt.Errorf("finding tracked shows: %w", err)
	}
	slices.SortFunc(shows, compareByID)
	return shows, nil
}
