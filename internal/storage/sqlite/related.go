package sqlite

import (
	"context"
	"fmt"

	"github.com/amaumene/showlink/internal/domain"
)

type relatedShowsRepository struct {
	store *Store
}

func NewRelatedShowsRepository(store *Store) domain.RelatedShowsRepository {
	return &relatedShowsRepository{store: store}
}

func (r *relatedShowsRepository) DeleteByShowID(ctx context.Context, showID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.store.write(ctx, func(q querier, state *txState) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM related_shows WHERE show_id = ?`, showID); err != nil {
			return err
		}
		state.touch(domain.TableRelatedShows)
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

	err := r.store.write(ctx, func(q querier, state *txState) error {
		for _, entry := range entries {
			_, err := q.ExecContext(ctx,
				`INSERT INTO related_shows (show_id, other_show_id, order_index) VALUES (?, ?, ?)`,
				entry.ShowID, entry.OtherShowID, entry.OrderIndex,
			)
			if isConstraintError(err) {
				return fmt.Errorf("entry %d:%d: %w", entry.ShowID, entry.OrderIndex, domain.ErrDuplicateKey)
			}
			if err != nil {
				return err
			}
		}
		state.touch(domain.TableRelatedShows)
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

	rows, err := r.store.reader(ctx).QueryContext(ctx,
		`SELECT show_id, other_show_id, order_index FROM related_shows
		 WHERE show_id = ? ORDER BY order_index`, showID)
	if err != nil {
		return nil, fmt.Errorf("finding related shows: %w", err)
	}
	defer rows.Close()

	var entries []domain.RelatedShowEntry
	for rows.Next() {
		var entry domain.RelatedShowEntry
		if err := rows.Scan(&entry.ShowID, &entry.OtherShowID, &entry.OrderIndex); err != nil {
			return nil, fmt.Errorf("scanning related show: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating related shows: %w", err)
	}
	return entries, nil
}

// ListItems joins entries with their show rows; entries without a show row
// are skipped.
func (r *relatedShowsRepository) ListItems(ctx context.Context, showID int64) ([]domain.RelatedShowsListItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := r.store.reader(ctx).QueryContext(ctx,
		`SELECT r.show_id, r.other_show_id, r.order_index,
		        s.id, s.trakt_id, s.slug, s.imdb, s.tmdb, s.tvdb, s.title, s.year,
		        s.overview, s.status, s.placeholder, s.tracked, s.updated_at
		 FROM related_shows r
		 JOIN shows s ON s.id = r.other_show_id
		 WHERE r.show_id = ?
		 ORDER BY r.order_index`, showID)
	if err != nil {
		return nil, fmt.Errorf("listing related shows: %w", err)
	}
	defer rows.Close()

	items := []domain.RelatedShowsListItem{}
	for rows.Next() {
		var (
			item        domain.RelatedShowsListItem
			placeholder int
			tracked     int
			updatedAt   int64
		)
		err := rows.Scan(
			&item.Entry.ShowID, &item.Entry.OtherShowID, &item.Entry.OrderIndex,
			&item.Show.ID, &item.Show.TraktID, &item.Show.Slug, &item.Show.IMDB,
			&item.Show.TMDB, &item.Show.TVDB, &item.Show.Title, &item.Show.Year,
			&item.Show.Overview, &item.Show.Status,
			&placeholder, &tracked, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning related show item: %w", err)
		}
		item.Show.Placeholder = placeholder != 0
		item.Show.Tracked = tracked != 0
		item.Show.UpdatedAt = fromMillis(updatedAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating related show items: %w", err)
	}
	return items, nil
}
