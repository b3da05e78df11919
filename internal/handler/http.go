package handler

import (
	"bufio"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/amaumene/showlink/internal/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/template/html/v2"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const (
	contentTypeEventStream = "text/event-stream"
	heartbeatInterval      = 15 * time.Second
)

//go:embed views/*.html
var viewsFS embed.FS

// RelatedShows is the related-shows service used by the handlers.
type RelatedShows interface {
	Refresh(ctx context.Context, showID int64) error
	List(ctx context.Context, showID int64) ([]domain.RelatedShowsListItem, error)
	Observe(ctx context.Context, showID int64) <-chan []domain.RelatedShowsListItem
}

type ShowAdder interface {
	Add(ctx context.Context, traktID int64) (*domain.Show, error)
}

type HTTPHandler struct {
	baseCtx   context.Context
	shows     domain.ShowRepository
	related   RelatedShows
	adder     ShowAdder
	metrics   http.Handler
	apiKey    string
	heartbeat time.Duration
}

// NewHTTPHandler builds the handlers. Background refreshes and event
// streams stop when baseCtx is done.
func NewHTTPHandler(baseCtx context.Context, shows domain.ShowRepository, related RelatedShows, adder ShowAdder, metrics http.Handler) *HTTPHandler {
	return &HTTPHandler{
		baseCtx:   baseCtx,
		shows:     shows,
		related:   related,
		adder:     adder,
		metrics:   metrics,
		heartbeat: heartbeatInterval,
	}
}

// WithAPIKey protects the write routes with key. An empty key leaves them open.
func (h *HTTPHandler) WithAPIKey(key string) *HTTPHandler {
	h.apiKey = key
	return h
}

// NewApp returns a fiber app with every route registered.
func (h *HTTPHandler) NewApp() (*fiber.App, error) {
	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, fmt.Errorf("loading views: %w", err)
	}

	app := fiber.New(fiber.Config{
		Views:                 html.NewFileSystem(http.FS(views), ".html"),
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	h.RegisterRoutes(app)
	return app, nil
}

func (h *HTTPHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.handleHealth)
	if h.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.metrics))
	}
	app.Post("/shows", requireAPIKey(h.apiKey), h.handleAddShow)
	app.Get("/shows/:id", h.handleShowPage)
	app.Get("/shows/:id/related", h.handleListRelated)
	app.Post("/shows/:id/related/refresh", requireAPIKey(h.apiKey), h.handleRefresh)
	app.Get("/shows/:id/related/stream", h.handleStream)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrShowNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrCatalogUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(errorResponse{Error: fiberErr.Message})
	}

	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.WithFields(log.Fields{
			"component": "handler",
			"path":      c.Path(),
		}).WithError(err).Error("Request failed")
	}
	return c.Status(status).JSON(errorResponse{Error: err.Error()})
}

func showID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("show id %q: %w", c.Params("id"), domain.ErrInvalidInput)
	}
	return int64(id), nil
}

func (h *HTTPHandler) handleHealth(c *fiber.Ctx) error {
	return c.SendString("OK")
}

func (h *HTTPHandler) handleAddShow(c *fiber.Ctx) error {
	var req addShowRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("parsing body: %w", domain.ErrInvalidInput)
	}

	show, err := h.adder.Add(c.UserContext(), req.TraktID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newShowResponse(show))
}

func (h *HTTPHandler) handleShowPage(c *fiber.Ctx) error {
	id, err := showID(c)
	if err != nil {
		return err
	}

	show, err := h.shows.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	items, err := h.related.List(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.Render("show", fiber.Map{
		"Show":    show,
		"Related": items,
	})
}

func (h *HTTPHandler) handleListRelated(c *fiber.Ctx) error {
	id, err := showID(c)
	if err != nil {
		return err
	}

	items, err := h.related.List(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(newRelatedResponse(items))
}

func (h *HTTPHandler) handleRefresh(c *fiber.Ctx) error {
	id, err := showID(c)
	if err != nil {
		return err
	}
	if _, err := h.shows.Get(c.UserContext(), id); err != nil {
		return err
	}

	go h.refreshAsync(id)

	return c.Status(fiber.StatusAccepted).JSON(messageResponse{Message: "Refresh started"})
}

func (h *HTTPHandler) refreshAsync(id int64) {
	if err := h.related.Refresh(h.baseCtx, id); err != nil {
		log.WithFields(log.Fields{
			"component": "handler",
			"showID":    id,
		}).WithError(err).Error("Background refresh failed")
	}
}

func (h *HTTPHandler) handleStream(c *fiber.Ctx) error {
	id, err := showID(c)
	if err != nil {
		return err
	}
	if _, err := h.shows.Get(c.UserContext(), id); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, contentTypeEventStream)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(h.baseCtx)
		defer cancel()

		stream := h.related.Observe(ctx, id)
		if err := writeEvents(ctx, w, stream, h.heartbeat); err != nil {
			log.WithFields(log.Fields{
				"component": "handler",
				"showID":    id,
			}).WithError(err).Debug("Event stream closed")
		}
	}))
	return nil
}

// writeEvents writes every emission of stream as an SSE "related" event and
// a comment line every heartbeat. It returns when the stream closes or a
// write fails, which is how a disconnected client is detected.
func writeEvents(ctx context.Context, w *bufio.Writer, stream <-chan []domain.RelatedShowsListItem, heartbeat time.Duration) error {
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case items, ok := <-stream:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(newRelatedResponse(items))
			if err != nil {
				return fmt.Errorf("encoding event: %w", err)
			}
			if _, err := fmt.Fprintf(w, "event: related\ndata: %s\n\n", payload); err != nil {
				return err
			}
		case <-ticker.C:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}
