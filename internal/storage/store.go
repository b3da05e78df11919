package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/amaumene/showlink/internal/domain"
	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"
)

const (
	sequenceBucket     = "_sequences"
	defaultLockTimeout = 2 * time.Second
)

type txKey struct{}

// writeTx is a bolt write transaction plus the tables it modified.
type writeTx struct {
	*bolt.Tx
	touched map[string]struct{}
}

func (w *writeTx) touch(tables ...string) {
	for _, table := range tables {
		w.touched[table] = struct{}{}
	}
}

func (w *writeTx) tables() []string {
	tables := make([]string, 0, len(w.touched))
	for table := range w.touched {
		tables = append(tables, table)
	}
	return tables
}

type Store struct {
	db       *bolthold.Store
	notifier domain.ChangeNotifier
}

func Open(path string, perm os.FileMode, notifier domain.ChangeNotifier) (*Store, error) {
	return OpenWithTimeout(path, perm, defaultLockTimeout, notifier)
}

// OpenWithTimeout opens the bolt file, waiting at most lockTimeout for
// another process to release its file lock.
func OpenWithTimeout(path string, perm os.FileMode, lockTimeout time.Duration, notifier domain.ChangeNotifier) (*Store, error) {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	db, err := bolthold.Open(path, perm, &bolthold.Options{
		Options: &bolt.Options{Timeout: lockTimeout},
	})
	if errors.Is(err, bolt.ErrTimeout) {
		return nil, fmt.Errorf("opening database %s: locked by another process, use STORE_BACKEND=sqlite to share it: %w", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return NewStore(db, notifier), nil
}

func NewStore(db *bolthold.Store, notifier domain.ChangeNotifier) *Store {
	return &Store{db: db, notifier: notifier}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RunInTransaction implements domain.TransactionRunner. A nested call joins
// the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*writeTx); ok {
		return fn(ctx)
	}

	tx, err := s.db.Bolt().Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	w := &writeTx{Tx: tx, touched: make(map[string]struct{})}
	if err := fn(context.WithValue(ctx, txKey{}, w)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	s.notify(ctx, w)
	return nil
}

func (s *Store) update(ctx context.Context, fn func(w *writeTx) error) error {
	if w, ok := ctx.Value(txKey{}).(*writeTx); ok {
		return fn(w)
	}

	w := &writeTx{touched: make(map[string]struct{})}
	err := s.db.Bolt().Update(func(tx *bolt.Tx) error {
		w.Tx = tx
		return fn(w)
	})
	if err != nil {
		return err
	}
	s.notify(ctx, w)
	return nil
}

func (s *Store) view(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if w, ok := ctx.Value(txKey{}).(*writeTx); ok {
		return fn(w.Tx)
	}
	return s.db.Bolt().View(fn)
}

func (s *Store) notify(ctx context.Context, w *writeTx) {
	if s.notifier == nil || len(w.touched) == 0 {
		return
	}
	s.notifier.Notify(ctx, w.tables()...)
}

func nextID(tx *bolt.Tx, name string) (int64, error) {
	root, err := tx.CreateBucketIfNotExists([]byte(sequenceBucket))
	if err != nil {
		return 0, fmt.Errorf("creating sequence bucket: %w", err)
	}
	bucket, err := root.CreateBucketIfNotExists([]byte(name))
	if err != nil {
		return 0, fmt.Errorf("creating %s sequence: %w", name, err)
	}
	seq, err := bucket.NextSequence()
	if err != nil {
		return 0, fmt.Errorf("advancing %s sequence: %w", name, err)
	}
	return int64(seq), nil
}
