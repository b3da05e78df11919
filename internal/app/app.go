package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/amaumene/showlink/internal/clients"
	"github.com/amaumene/showlink/internal/config"
	"github.com/amaumene/showlink/internal/domain"
	"github.com/amaumene/showlink/internal/handler"
	"github.com/amaumene/showlink/internal/metrics"
	"github.com/amaumene/showlink/internal/notify"
	"github.com/amaumene/showlink/internal/service"
	"github.com/amaumene/showlink/internal/storage"
	"github.com/amaumene/showlink/internal/storage/sqlite"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const (
	shutdownTimeout = 30 * time.Second
)

type App struct {
	cfg          *config.Config
	repos        service.Repositories
	closeStore   func() error
	hub          *notify.Hub
	redisHub     *notify.RedisHub
	redisClosed  sync.Once
	traktClient  *clients.TraktClient
	metrics      *metrics.Metrics
	showSvc      *service.ShowService
	relatedSvc   *service.RelatedShowsService
	orchestrator *Orchestrator
	server       *fiber.App
}

// New opens the store and wires every service. The HTTP server is only
// built by Run.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		cfg:     cfg,
		hub:     notify.NewHub(),
		metrics: metrics.New(),
	}

	if err := app.initNotifier(ctx); err != nil {
		return nil, fmt.Errorf("initializing notifier: %w", err)
	}

	if err := app.openStore(ctx); err != nil {
		app.closeNotifier()
		return nil, fmt.Errorf("opening store: %w", err)
	}

	app.traktClient = clients.NewTraktClient(cfg.TraktAPIKey, cfg.TraktClientSecret, cfg.TokenPath(), cfg.HTTPTimeout)

	app.wireServices()
	return app, nil
}

func (a *App) initNotifier(ctx context.Context) error {
	if a.cfg.RedisAddr == "" {
		return nil
	}

	client, err := notify.NewRedisClient(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	if err != nil {
		return err
	}
	a.redisHub = notify.NewRedisHub(client, a.hub)
	return nil
}

func (a *App) notifier() domain.ChangeNotifier {
	if a.redisHub != nil {
		return a.redisHub
	}
	return a.hub
}

func (a *App) openStore(ctx context.Context) error {
	notifier := a.notifier()

	switch a.cfg.StoreBackend {
	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, a.cfg.SQLitePath(), notifier)
		if err != nil {
			return err
		}
		a.repos = service.Repositories{
			Shows:   sqlite.NewShowRepository(store),
			Related: sqlite.NewRelatedShowsRepository(store),
			Tx:      store,
			Changes: notifier,
		}
		a.closeStore = store.Close
	default:
		store, err := storage.OpenWithTimeout(a.cfg.DBPath(), a.cfg.DBFilePermissions, a.cfg.StoreLockTimeout, notifier)
		if err != nil {
			return err
		}
		a.repos = service.Repositories{
			Shows:   storage.NewShowRepository(store),
			Related: storage.NewRelatedShowsRepository(store),
			Tx:      store,
			Changes: notifier,
		}
		a.closeStore = store.Close
	}

	log.WithFields(log.Fields{
		"component": "database",
		"backend":   a.cfg.StoreBackend,
	}).Info("store opened")
	return nil
}

func (a *App) wireServices() {
	a.showSvc = service.NewShowService(a.cfg, a.repos.Shows, a.traktClient, a.metrics)
	a.relatedSvc = service.NewRelatedShowsService(a.cfg, a.repos, a.traktClient, a.showSvc, a.metrics)
	a.orchestrator = NewOrchestrator(a.cfg, a.repos.Shows, a.relatedSvc)
}

func (a *App) Shows() domain.ShowRepository {
	return a.repos.Shows
}

func (a *App) ShowService() *service.ShowService {
	return a.showSvc
}

func (a *App) RelatedShows() *service.RelatedShowsService {
	return a.relatedSvc
}

// Run serves HTTP and runs the background loops until ctx is done or the
// process receives SIGINT/SIGTERM, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.traktClient.Authenticate(); err != nil {
		a.Close()
		return fmt.Errorf("authenticating with trakt: %w", err)
	}

	if err := a.setupHTTPServer(ctx); err != nil {
		a.Close()
		return fmt.Errorf("setting up http server: %w", err)
	}

	go a.RunNotifier(ctx)
	go a.traktClient.RefreshPeriodically(ctx, a.cfg.TaskInterval)
	go a.orchestrator.RunPeriodically(ctx)

	go a.startServer()

	return a.waitForShutdown(ctx, cancel)
}

func (a *App) setupHTTPServer(ctx context.Context) error {
	httpHandler := handler.NewHTTPHandler(ctx, a.repos.Shows, a.relatedSvc, a.showSvc, a.metrics.Handler()).
		WithAPIKey(a.cfg.APIKey)
	server, err := httpHandler.NewApp()
	if err != nil {
		return err
	}
	a.server = server
	return nil
}

// RunNotifier relays change notifications from other processes sharing the
// store. It returns immediately when Redis is not configured.
func (a *App) RunNotifier(ctx context.Context) {
	if a.redisHub == nil {
		return
	}
	if err := a.redisHub.Run(ctx); err != nil && ctx.Err() == nil {
		log.WithFields(log.Fields{
			"component": "notify",
			"error":     err,
		}).Error("redis relay stopped")
	}
}

func (a *App) startServer() {
	log.WithFields(log.Fields{
		"component": "server",
		"address":   a.cfg.ServerPort,
	}).Info("http server listening")

	if err := a.server.Listen(a.cfg.ServerPort); err != nil {
		log.WithFields(log.Fields{
			"component": "server",
			"error":     err,
		}).Fatal("http server failed to start")
	}
}

func (a *App) waitForShutdown(ctx context.Context, cancel context.CancelFunc) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		log.WithField("reason", "context_cancelled").Info("initiating graceful shutdown")
	case sig := <-sigChan:
		log.WithField("signal", sig).Info("received shutdown signal")
	}

	cancel()
	return a.shutdown()
}

func (a *App) shutdown() error {
	log.Info("graceful shutdown started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.server != nil {
		if err := a.server.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithFields(log.Fields{
				"component": "server",
				"error":     err,
			}).Error("http server shutdown failed")
		}
	}

	if err := a.Close(); err != nil {
		return err
	}

	log.Info("graceful shutdown completed")
	return nil
}

// Close releases the store and the Redis connection.
func (a *App) Close() error {
	a.closeNotifier()

	if a.closeStore == nil {
		return nil
	}
	if err := a.closeStore(); err != nil {
		log.WithFields(log.Fields{
			"component": "database",
			"error":     err,
		}).Error("database connection close failed")
		return err
	}
	a.closeStore = nil
	return nil
}

func (a *App) closeNotifier() {
	if a.redisHub == nil {
		return
	}
	a.redisClosed.Do(func() {
		if err := a.redisHub.Close(); err != nil {
			log.WithFields(log.Fields{
				"component": "notify",
				"error":     err,
			}).Warn("redis connection close failed")
		}
	})
}
