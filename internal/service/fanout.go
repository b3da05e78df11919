package service

import (
	"context"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// fanOut calls fn for every id concurrently, at most limit at a time when
// limit is positive. Failures are logged and counted, never returned.
func fanOut(ctx context.Context, ids []int64, limit int, fn func(ctx context.Context, id int64) error, onFailure func()) int {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	var failures atomic.Int64
	for _, id := range ids {
		g.Go(func() error {
			if err := fn(ctx, id); err != nil {
				failures.Add(1)
				if onFailure != nil {
					onFailure()
				}
				log.WithFields(log.Fields{
					"component": "service",
					"showID":    id,
				}).WithError(err).Warn("Show update failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(failures.Load())
}
