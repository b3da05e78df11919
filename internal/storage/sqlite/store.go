// Package sqlite provides SQLite-backed implementations of the domain
// repositories, an alternative to the bolt store for deployments that want
// to inspect data with standard SQL tooling.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/amaumene/showlink/internal/domain"
	"github.com/amaumene/showlink/internal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

type txState struct {
	tx      *sql.Tx
	touched map[string]struct{}
}

func (s *txState) touch(tables ...string) {
	for _, table := range tables {
		s.touched[table] = struct{}{}
	}
}

func (s *txState) tables() []string {
	tables := make([]string, 0, len(s.touched))
	for table := range s.touched {
		tables = append(tables, table)
	}
	return tables
}

type Store struct {
	sqlDB    *sql.DB
	notifier domain.ChangeNotifier
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies embedded migrations.
func Open(ctx context.Context, path string, notifier domain.ChangeNotifier) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, notifier: notifier}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RunInTransaction implements domain.TransactionRunner. A nested call joins
// the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	state := &txState{tx: tx, touched: make(map[string]struct{})}
	if err := fn(context.WithValue(ctx, txKey{}, state)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	s.notify(ctx, state)
	return nil
}

// write runs fn in the surrounding transaction, or in its own when ctx
// carries none.
func (s *Store) write(ctx context.Context, fn func(q querier, state *txState) error) error {
	if state, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(state.tx, state)
	}
	return s.RunInTransaction(ctx, func(ctx context.Context) error {
		state := ctx.Value(txKey{}).(*txState)
		return fn(state.tx, state)
	})
}

func (s *Store) reader(ctx context.Context) querier {
	if state, ok := ctx.Value(txKey{}).(*txState); ok {
		return state.tx
	}
	return s.sqlDB
}

func (s *Store) notify(ctx context.Context, state *txState) {
	if s.notifier == nil || len(state.touched) == 0 {
		return
	}
	s.notifier.Notify(ctx, state.tables()...)
}

func isConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3lib.SQLITE_CONSTRAINT ||
		code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
}
