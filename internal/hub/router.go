package hub

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/goliatone/go-push-relay/pkg/domain"
	"github.com/goliatone/go-push-relay/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-push-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-push-relay/pkg/metrics"
)

// EventSink receives routed events. The relay manager implements it,
// broadcasting the body to peers and triggering the push fan-out.
type EventSink interface {
	OnEvent(ctx context.Context, event broadcaster.Event)
}

// Router frames inbound connection messages as events. A frame is either
// JSON {title, body} or raw text, in which case the whole frame becomes the
// body under the default title.
type Router struct {
	sink         EventSink
	defaultTitle string
	logger       logger.Logger
	metrics      *metrics.Collector
}

// NewRouter builds the inbound event router.
func NewRouter(sink EventSink, defaultTitle string, lgr logger.Logger, collector *metrics.Collector) *Router {
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	return &Router{
		sink:         sink,
		defaultTitle: defaultTitle,
		logger:       lgr,
		metrics:      collector,
	}
}

// OnMessage routes one inbound frame from a live connection.
func (r *Router) OnMessage(c *Conn, frame []byte) {
	r.metrics.IncFrameIn()

	payload := r.frame(frame)
	r.logger.Debug("inbound event",
		logger.Field{Key: "conn", Value: c.ID},
		logger.Field{Key: "title", Value: payload.Title},
	)

	if r.sink == nil {
		return
	}
	r.sink.OnEvent(context.Background(), broadcaster.Event{
		Title:  payload.Title,
		Body:   payload.Body,
		Origin: c.ID,
	})
}

func (r *Router) frame(raw []byte) domain.Payload {
	var payload domain.Payload
	if err := json.Unmarshal(raw, &payload); err == nil && strings.TrimSpace(payload.Body) != "" {
		if strings.TrimSpace(payload.Title) == "" {
			payload.Title = r.defaultTitle
		}
		return payload
	}
	return domain.Payload{
		Title: r.defaultTitle,
		Body:  string(raw),
	}
}
