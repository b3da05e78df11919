package app

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/showlink/internal/config"
	"github.com/amaumene/showlink/internal/domain"
	log "github.com/sirupsen/logrus"
)

type relatedRefresher interface {
	Refresh(ctx context.Context, showID int64) error
}

type Orchestrator struct {
	cfg     *config.Config
	shows   domain.ShowRepository
	related relatedRefresher
}

type orchestratorTask struct {
	name string
	run  func(context.Context) error
}

func NewOrchestrator(cfg *config.Config, shows domain.ShowRepository, related relatedRefresher) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		shows:   shows,
		related: related,
	}
}

func (o *Orchestrator) RunPeriodically(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.TaskInterval)
	defer ticker.Stop()

	o.runTasks(ctx)

	for {
		select {
		case <-ctx.Done():
			log.WithField("component", "orchestrator").Info("stopping background task scheduler")
			return
		case <-ticker.C:
			o.runTasks(ctx)
		}
	}
}

func (o *Orchestrator) runTasks(ctx context.Context) {
	log.WithField("component", "orchestrator").Info("starting scheduled task cycle")

	tasks := []orchestratorTask{
		{name: "refresh_related", run: o.refreshTracked},
	}

	for _, task := range tasks {
		if err := task.run(ctx); err != nil {
			log.WithFields(log.Fields{
				"task":  task.name,
				"error": err,
			}).Error("scheduled task failed")
		}
	}

	log.WithField("component", "orchestrator").Info("completed scheduled task cycle")
}

// refreshTracked refreshes every tracked show in turn. A failing show is
// logged and skipped.
func (o *Orchestrator) refreshTracked(ctx context.Context) error {
	shows, err := o.shows.FindTracked(ctx)
	if err != nil {
		return fmt.Errorf("finding tracked shows: %w", err)
	}

	failed := 0
	for _, show := range shows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.related.Refresh(ctx, show.ID); err != nil {
			failed++
			logRefreshError(&show, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tracked shows failed to refresh", failed, len(shows))
	}
	return nil
}

func logRefreshError(show *domain.Show, err error) {
	log.WithFields(log.Fields{
		"showID":  show.ID,
		"traktID": show.TraktID,
		"title":   show.Title,
		"error":   err,
	}).Error("failed to refresh related shows")
}
