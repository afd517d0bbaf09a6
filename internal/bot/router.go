package bot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/erinlkolp/erin-slack-notes-bot/pkg/logger"
	"github.com/erinlkolp/erin-slack-notes-bot/pkg/metrics"
)

// Acker acknowledges Socket Mode envelopes.
type Acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

// Router dispatches Socket Mode events to the bot handlers. Envelopes are
// acked on receipt, before any handler work, so Slack never retries a
// delivery the bot is still processing.
type Router struct {
	events    <-chan socketmode.Event
	acker     Acker
	handlers  *Handlers
	log       *logger.Logger
	metrics   *metrics.Metrics
	connected atomic.Bool
}

// NewRouter creates a new router instance.
func NewRouter(events <-chan socketmode.Event, acker Acker, handlers *Handlers, log *logger.Logger, m *metrics.Metrics) *Router {
	return &Router{
		events:   events,
		acker:    acker,
		handlers: handlers,
		log:      log,
		metrics:  m,
	}
}

// Connected reports whether the Socket Mode connection is up.
func (r *Router) Connected() bool {
	return r.connected.Load()
}

func (r *Router) setConnected(up bool) {
	r.connected.Store(up)
	r.metrics.SetSocketConnected(up)
}

// Run consumes events until the context is cancelled or the event
// channel closes.
func (r *Router) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-r.events:
			if !ok {
				return
			}
			r.route(ctx, evt)
		}
	}
}

// route classifies one envelope. A panicking handler is logged and
// swallowed so a single bad event cannot kill the delivery loop.
func (r *Router) route(ctx context.Context, evt socketmode.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.WithFields(logrus.Fields{
				"event_type": string(evt.Type),
				"payload":    fmt.Sprintf("%+v", evt.Data),
			}).Errorf("Recovered from handler panic: %v", rec)
		}
	}()

	switch evt.Type {
	case socketmode.EventTypeConnecting:
		r.log.Info("Connecting to Slack with Socket Mode...")
		r.setConnected(false)
	case socketmode.EventTypeConnectionError:
		r.log.Warn("Socket Mode connection failed, will retry")
		r.setConnected(false)
	case socketmode.EventTypeConnected:
		r.log.Info("Connected to Slack with Socket Mode")
		r.setConnected(true)
	case socketmode.EventTypeHello:
		r.log.Debug("Received hello from Slack")
	case socketmode.EventTypeEventsAPI:
		r.routeEventsAPI(ctx, evt)
	case socketmode.EventTypeSlashCommand:
		r.routeSlashCommand(ctx, evt)
	default:
		r.log.WithField("event_type", string(evt.Type)).Debug("Ignoring unsupported event type")
	}
}

func (r *Router) routeEventsAPI(ctx context.Context, evt socketmode.Event) {
	apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		r.log.WithField("event_type", string(evt.Type)).Debug("Ignoring malformed Events API payload")
		return
	}

	if evt.Request != nil {
		r.acker.Ack(*evt.Request)
	}

	if apiEvent.Type != slackevents.CallbackEvent {
		r.log.WithField("events_api_type", apiEvent.Type).Debug("Ignoring non callback event")
		return
	}

	eventID := uuid.New().String()

	switch ev := apiEvent.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		r.instrument(ctx, "message", eventID, ev, func(ctx context.Context) error {
			return r.handlers.HandleMessage(ctx, ev)
		})
	case *slackevents.AppMentionEvent:
		r.instrument(ctx, "app_mention", eventID, ev, func(ctx context.Context) error {
			return r.handlers.HandleMention(ctx, ev)
		})
	default:
		r.log.WithEventID(eventID).WithField("inner_event", apiEvent.InnerEvent.Type).Debug("Ignoring unsupported inner event")
	}
}

func (r *Router) routeSlashCommand(ctx context.Context, evt socketmode.Event) {
	cmd, ok := evt.Data.(slack.SlashCommand)
	if !ok {
		r.log.WithField("event_type", string(evt.Type)).Debug("Ignoring malformed slash command payload")
		return
	}

	if evt.Request != nil {
		r.acker.Ack(*evt.Request)
	}

	eventID := uuid.New().String()

	switch cmd.Command {
	case "/take_notes":
		r.instrument(ctx, "take_notes", eventID, cmd, func(ctx context.Context) error {
			return r.handlers.HandleTakeNotes(ctx, cmd)
		})
	case "/my_notes":
		r.instrument(ctx, "my_notes", eventID, cmd, func(ctx context.Context) error {
			return r.handlers.HandleMyNotes(ctx, cmd)
		})
	default:
		r.log.WithEventID(eventID).WithField("command", cmd.Command).Debug("Ignoring unknown slash command")
	}
}

// instrument runs one handler with logging and metrics around it. Failed
// events keep their payload out of the error line; it goes to debug the
// way the rest of the fleet does it.
func (r *Router) instrument(ctx context.Context, handler, eventID string, payload interface{}, fn func(context.Context) error) {
	log := r.log.WithEventID(eventID).WithField("handler", handler)

	r.metrics.EventsInFlight.WithLabelValues(handler).Inc()
	defer r.metrics.EventsInFlight.WithLabelValues(handler).Dec()

	start := time.Now()
	err := fn(ctx)
	r.metrics.ObserveEvent(handler, start, err)

	if err != nil {
		log.WithError(err).Error("Handler failed")
		log.WithField("payload", fmt.Sprintf("%+v", payload)).Debug("Failed event payload")
		return
	}

	log.Debug("Handler completed")
}
