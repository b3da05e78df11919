package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/showlink/internal/domain"
)

const showColumns = `id, trakt_id, slug, imdb, tmdb, tvdb, title, year, overview, status, placeholder, tracked, updated_at`

type showRepository struct {
	store *Store
}

func NewShowRepository(store *Store) domain.ShowRepository {
	return &showRepository{store: store}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShow(row scanner) (*domain.Show, error) {
	var (
		show        domain.Show
		placeholder int
		tracked     int
		updatedAt   int64
	)
	err := row.Scan(
		&show.ID, &show.TraktID, &show.Slug, &show.IMDB, &show.TMDB, &show.TVDB,
		&show.Title, &show.Year, &show.Overview, &show.Status,
		&placeholder, &tracked, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	show.Placeholder = placeholder != 0
	show.Tracked = tracked != 0
	show.UpdatedAt = fromMillis(updatedAt)
	return &show, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func (r *showRepository) Get(ctx context.Context, id int64) (*domain.Show, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := r.store.reader(ctx).QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id)
	show, err := scanShow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting show %d: %w", id, domain.ErrShowNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting show: %w", err)
	}
	return show, nil
}

func (r *showRepository) GetByTraktID(ctx context.Context, traktID int64) (*domain.Show, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := r.store.reader(ctx).QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE trakt_id = ?`, traktID)
	show, err := scanShow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trakt id %d: %w", traktID, domain.ErrShowNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding show by trakt id: %w", err)
	}
	return show, nil
}

func (r *showRepository) InsertPlaceholderIfNeeded(ctx context.Context, show domain.CatalogShow) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if show.TraktID <= 0 {
		return 0, fmt.Errorf("placeholder for trakt id %d: %w", show.TraktID, domain.ErrInvalidInput)
	}

	var id int64
	err := r.store.write(ctx, func(q querier, state *txState) error {
		res, err := q.ExecContext(ctx,
			`INSERT INTO shows (trakt_id, slug, imdb, tmdb, tvdb, title, year, placeholder, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)
			 ON CONFLICT(trakt_id) DO NOTHING`,
			show.TraktID, show.Slug, show.IMDB, show.TMDB, show.TVDB, show.Title, show.Year,
			toMillis(time.Now()),
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			state.touch(domain.TableShows)
		}
		return q.QueryRowContext(ctx, `SELECT id FROM shows WHERE trakt_id = ?`, show.TraktID).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("inserting placeholder show: %w", err)
	}
	return id, nil
}

func (r *showRepository) Update(ctx context.Context, show *domain.Show) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if show == nil || show.ID <= 0 {
		return fmt.Errorf("updating show: %w", domain.ErrInvalidInput)
	}

	var affected int64
	err := r.store.write(ctx, func(q querier, state *txState) error {
		res, err := q.ExecContext(ctx,
			`UPDATE shows SET
			   trakt_id = ?, slug = ?, imdb = ?, tmdb = ?, tvdb = ?, title = ?, year = ?,
			   overview = ?, status = ?, placeholder = ?, tracked = ?, updated_at = ?
			 WHERE id = ?`,
			show.TraktID, show.Slug, show.IMDB, show.TMDB, show.TVDB, show.Title, show.Year,
			show.Overview, show.Status, boolToInt(show.Placeholder), boolToInt(show.Tracked), toMillis(show.UpdatedAt),
			show.ID,
		)
		if err != nil {
			if isConstraintError(err) {
				return fmt.Errorf("trakt id %d: %w", show.TraktID, domain.ErrDuplicateKey)
			}
			return err
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if affected > 0 {
			state.touch(domain.TableShows)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("updating show: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("updating show %d: %w", show.ID, domain.ErrShowNotFound)
	}
	return nil
}

func (r *showRepository) FindTracked(ctx context.Context) ([]domain.Show, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := r.store.reader(ctx).QueryContext(ctx,
		`SELECT `+showColumns+` FROM shows WHERE tracked = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("finding tracked shows: %w", err)
	}
	defer rows.Close()

	var shows []domain.Show
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning show: %w", err)
		}
		shows = append(shows, *show)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shows: %w", err)
	}
	return shows, nil
}
