package bot

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/stretchr/testify/assert"

	"github.com/erinlkolp/erin-slack-notes-bot/pkg/logger"
	"github.com/erinlkolp/erin-slack-notes-bot/pkg/metrics"
)

type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *callRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type recordingAcker struct {
	rec *callRecorder
}

func (a *recordingAcker) Ack(req socketmode.Request, payload ...interface{}) {
	a.rec.record("ack")
}

type recordingMessenger struct {
	rec         *callRecorder
	panicOnPost bool
}

func (m *recordingMessenger) PostChannelMessage(ctx context.Context, channelID, text string) error {
	if m.panicOnPost {
		panic("post exploded")
	}
	m.rec.record("post")
	return nil
}

func (m *recordingMessenger) RespondToCommand(ctx context.Context, responseURL, text string) error {
	m.rec.record("respond")
	return nil
}

func newTestRouter(events <-chan socketmode.Event, acker Acker, messenger Messenger, notes NoteService) *Router {
	log := logger.NewLogger("test")
	log.SetOutput(io.Discard)
	m := metrics.NewMetricsWithRegistry("test", prometheus.NewRegistry())
	handlers := NewHandlers(messenger, notes, "UBOT", log)
	return NewRouter(events, acker, handlers, log, m)
}

func slashEvent(command string) socketmode.Event {
	return socketmode.Event{
		Type: socketmode.EventTypeSlashCommand,
		Data: slack.SlashCommand{
			Command:     command,
			UserID:      "U12345",
			UserName:    "erin",
			ResponseURL: "https://hooks.slack.test/r1",
		},
		Request: &socketmode.Request{EnvelopeID: "env-1"},
	}
}

func messageEvent(text string) socketmode.Event {
	return socketmode.Event{
		Type: socketmode.EventTypeEventsAPI,
		Data: slackevents.EventsAPIEvent{
			Type: slackevents.CallbackEvent,
			InnerEvent: slackevents.EventsAPIInnerEvent{
				Type: "message",
				Data: &slackevents.MessageEvent{
					User:    "U12345",
					Text:    text,
					Channel: "C9876",
				},
			},
		},
		Request: &socketmode.Request{EnvelopeID: "env-2"},
	}
}

func runRouter(t *testing.T, router *Router) {
	t.Helper()
	router.Run(context.Background())
}

func TestRouter_AcksSlashCommandBeforeHandling(t *testing.T) {
	rec := &callRecorder{}
	events := make(chan socketmode.Event, 1)
	events <- slashEvent("/my_notes")
	close(events)

	router := newTestRouter(events, &recordingAcker{rec: rec}, &recordingMessenger{rec: rec}, &fakeNotes{})
	runRouter(t, router)

	assert.Equal(t, []string{"ack", "respond"}, rec.recorded())
}

func TestRouter_DispatchesMessageEvents(t *testing.T) {
	rec := &callRecorder{}
	events := make(chan socketmode.Event, 1)
	events <- messageEvent("hello")
	close(events)

	router := newTestRouter(events, &recordingAcker{rec: rec}, &recordingMessenger{rec: rec}, &fakeNotes{})
	runRouter(t, router)

	assert.Equal(t, []string{"ack", "post"}, rec.recorded())
}

func TestRouter_IgnoresUnknownCommandsButStillAcks(t *testing.T) {
	rec := &callRecorder{}
	events := make(chan socketmode.Event, 1)
	events <- slashEvent("/definitely_not_ours")
	close(events)

	router := newTestRouter(events, &recordingAcker{rec: rec}, &recordingMessenger{rec: rec}, &fakeNotes{})
	runRouter(t, router)

	assert.Equal(t, []string{"ack"}, rec.recorded())
}

func TestRouter_SurvivesPanickingHandler(t *testing.T) {
	rec := &callRecorder{}
	events := make(chan socketmode.Event, 2)
	events <- messageEvent("this one blows up")
	events <- slashEvent("/my_notes")
	close(events)

	messenger := &recordingMessenger{rec: rec, panicOnPost: true}
	router := newTestRouter(events, &recordingAcker{rec: rec}, messenger, &fakeNotes{})
	runRouter(t, router)

	// Both envelopes acked, and the command after the panic still got its reply
	assert.Equal(t, []string{"ack", "ack", "respond"}, rec.recorded())
}

func TestRouter_IgnoresConnectionLifecycleEvents(t *testing.T) {
	rec := &callRecorder{}
	events := make(chan socketmode.Event, 4)
	events <- socketmode.Event{Type: socketmode.EventTypeConnecting}
	events <- socketmode.Event{Type: socketmode.EventTypeConnected}
	events <- socketmode.Event{Type: socketmode.EventTypeHello}
	events <- socketmode.Event{Type: socketmode.EventTypeIncomingError}
	close(events)

	router := newTestRouter(events, &recordingAcker{rec: rec}, &recordingMessenger{rec: rec}, &fakeNotes{})
	runRouter(t, router)

	assert.Empty(t, rec.recorded())
}

func TestRouter_IgnoresNonCallbackEventsAPI(t *testing.T) {
	rec := &callRecorder{}
	events := make(chan socketmode.Event, 1)
	events <- socketmode.Event{
		Type:    socketmode.EventTypeEventsAPI,
		Data:    slackevents.EventsAPIEvent{Type: slackevents.URLVerification},
		Request: &socketmode.Request{EnvelopeID: "env-3"},
	}
	close(events)

	router := newTestRouter(events, &recordingAcker{rec: rec}, &recordingMessenger{rec: rec}, &fakeNotes{})
	runRouter(t, router)

	assert.Equal(t, []string{"ack"}, rec.recorded())
}
