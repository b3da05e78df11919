package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/amaumene/showlink/internal/domain"
	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"
)

type relatedShowsRepository struct {
	store *Store
}

func NewRelatedShowsRepository(store *Store) domain.RelatedShowsRepository {
	return &relatedShowsRepository{store: store}
}

func entryKey(entry domain.RelatedShowEntry) string {
	return fmt.Sprintf("%d:%d", entry.ShowID, entry.OrderIndex)
}

func byShowID(showID int64) *bolthold.Query {
	return bolthold.Where("ShowID").Eq(showID).Index("ShowID")
}

func (r *relatedShowsRepository) DeleteByShowID(ctx context.Context, showID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.store.update(ctx, func(w *writeTx) error {
		if err := r.store.db.TxDeleteMatching(w.Tx, &domain.RelatedShowEntry{}, byShowID(showID)); err != nil {
			return err
		}
		w.touch(domain.TableRelatedShows)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting related shows: %w", err)
	}
	return nil
}

func (r *relatedShowsRepository) InsertAll(ctx context.Context, entries []domain.RelatedShowEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	err := r.store.update(ctx, func(w *writeTx) error {
		for i := range entries {
			entry := entries[i]
			err := r.store.db.TxInsert(w.Tx, entryKey(entry), &entry)
			if errors.Is(err, bolthold.ErrKeyExists) {
				return fmt.Errorf("entry %s: %w", entryKey(entry), domain.ErrDuplicateKey)
			}
			if err != nil {
				return err
			}
		}
		w.touch(domain.TableRelatedShows)
		return nil
	})
	if err != nil {
		return fmt.Errorf("inserting related shows: %w", err)
	}
	return nil
}

func (r *relatedShowsRepository) FindByShowID(ctx context.Context, showID int64) ([]domain.RelatedShowEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []domain.RelatedShowEntry
	err := r.store.view(ctx, func(tx *bolt.Tx) error {
		found, err := r.findEntries(tx, showID)
		entries = found
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("finding related shows: %w", err)
	}
	return entries, nil
}

func (r *relatedShowsRepository) findEntries(tx *bolt.Tx, showID int64) ([]domain.RelatedShowEntry, error) {
	var entries []domain.RelatedShowEntry
	if err := r.store.db.TxFind(tx, &entries, byShowID(showID).SortBy("OrderIndex")); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListItems joins the entries for showID with the related shows in one read
// transaction. Entries whose show row is missing are skipped.
func (r *relatedShowsRepository) ListItems(ctx context.Context, showID int64) ([]domain.RelatedShowsListItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := []domain.RelatedShowsListItem{}
	err := r.store.view(ctx, func(tx *bolt.Tx) error {
		entries, err := r.findEntries(tx, showID)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			var show domain.Show
			err := r.store.db.TxGet(tx, entry.OtherShowID, &show)
			if errors.Is(err, bolthold.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			items = append(items, domain.RelatedShowsListItem{Entry: entry, Show: show})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing related shows: %w", err)
	}
	return items, nil
}
