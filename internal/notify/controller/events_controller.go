package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"foodstand/internal/commons"
	"foodstand/internal/domain"
	"foodstand/internal/dto"
	"foodstand/internal/notify"
)

type Subscriber interface {
	Subscribe() (<-chan notify.Event, func())
}

type ViewSource interface {
	List(ctx context.Context) ([]domain.ProductView, error)
}

// EventsController streams notifications to terminals as Server-Sent Events.
// Every stream opens with the current view so a reconnecting terminal is
// immediately consistent.
type EventsController struct {
	hub       Subscriber
	views     ViewSource
	logger    *zap.Logger
	heartbeat time.Duration
}

func NewEventsController(hub Subscriber, views ViewSource, logger *zap.Logger) *EventsController {
	return &EventsController{
		hub:       hub,
		views:     views,
		logger:    logger,
		heartbeat: 25 * time.Second,
	}
}

func (c *EventsController) Stream(w http.ResponseWriter, r *http.Request) {
	traceID := commons.TraceID(r.Context())
	logger := c.logger.With(zap.String("traceId", traceID))
	rc := http.NewResponseController(w)

	// streams outlive the server write timeout
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		logger.Debug("write deadline not adjustable", zap.Error(err))
	}

	events, cancel := c.hub.Subscribe()
	defer cancel()

	views, err := c.views.List(r.Context())
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	initial := notify.Event{Type: notify.EventProductsUpdated, Products: dto.FromViews(views), At: time.Now().UTC()}
	if err := writeEvent(w, rc, initial); err != nil {
		return
	}

	logger.Info("terminal connected")
	defer logger.Info("terminal disconnected")

	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, rc, event); err != nil {
				logger.Debug("stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, event notify.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
		return err
	}
	return rc.Flush()
}
