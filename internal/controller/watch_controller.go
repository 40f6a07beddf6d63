package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notes-stream-be/internal/dto"
	"notes-stream-be/internal/pkg/serverutils"
	"notes-stream-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

type IWatchController interface {
	RegisterRoutes(r fiber.Router)
	Watch(ctx *fiber.Ctx) error
}

type watchController struct {
	service service.IWatchService
	logger  zerolog.Logger
}

func NewWatchController(service service.IWatchService, logger zerolog.Logger) IWatchController {
	return &watchController{
		service: service,
		logger:  logger,
	}
}

func (c *watchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/v1")
	h.Get("/notes/watch", c.Watch)
}

// Watch streams change events as server-sent events until the client
// disconnects or the store shuts down. An optional ?id= query narrows the
// stream to one note.
func (c *watchController) Watch(ctx *fiber.Ctx) error {
	var filterId *uuid.UUID
	if raw := ctx.Query("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return serverutils.NewValidationError(serverutils.ErrorDetail{
				Field:   "id",
				Code:    serverutils.CodeInvalidFormat,
				Message: "is not a valid uuid",
				Value:   raw,
			})
		}
		filterId = &id
	}

	// The stream outlives this handler, so the subscription hangs off its
	// own context rather than the request's.
	streamCtx, cancel := context.WithCancel(context.Background())
	events, err := c.service.Watch(streamCtx, filterId)
	if err != nil {
		cancel()
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// Cancelling releases the feed subscription as soon as the peer is
		// known to be gone.
		defer cancel()

		heartbeat := time.NewTicker(watchHeartbeatInterval)
		defer heartbeat.Stop()

		c.streamEvents(w, events, heartbeat.C)
	}))

	return nil
}

// watchHeartbeatInterval bounds how long a dead peer can hold a feed
// subscription when no events are flowing.
const watchHeartbeatInterval = 15 * time.Second

// streamEvents writes SSE frames until the event stream closes or the peer
// stops accepting writes. Heartbeat comment frames are flushed between
// events so a disconnected client is detected within one interval instead
// of lingering until the next event.
func (c *watchController) streamEvents(w *bufio.Writer, events <-chan dto.NoteEventResponse, heartbeat <-chan time.Time) {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				c.logger.Error().Err(err).Msg("encode watch event")
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		case <-heartbeat:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}
}
