// Package livequery turns a store query into a stream that re-runs whenever
// the underlying tables change.
package livequery

import (
	"context"

	"github.com/google/go-cmp/cmp"
	log "github.com/sirupsen/logrus"
)

// Subscriber delivers a signal whenever one of the given tables changes.
type Subscriber interface {
	Subscribe(tables ...string) (<-chan struct{}, func())
}

// Observe emits initial, then the result of query, then the result again
// after every change notification for tables. An emission equal to the
// previous one under opts is dropped. The returned channel is closed once
// ctx is done. A failing query is logged and the stream waits for the next
// change.
func Observe[T any](ctx context.Context, sub Subscriber, tables []string, initial T, query func(ctx context.Context) (T, error), opts ...cmp.Option) <-chan T {
	out := make(chan T)
	changes, cancel := sub.Subscribe(tables...)

	go func() {
		defer close(out)
		defer cancel()

		last := initial
		if !send(ctx, out, initial) {
			return
		}

		for {
			result, err := query(ctx)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				log.WithFields(log.Fields{
					"component": "livequery",
					"tables":    tables,
				}).WithError(err).Warn("Live query failed")
			case !cmp.Equal(last, result, opts...):
				if !send(ctx, out, result) {
					return
				}
				last = result
			}

			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
			}
		}
	}()

	return out
}

func send[T any](ctx context.Context, out chan<- T, v T) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
