package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/erinlkolp/erin-slack-notes-bot/internal/errs"
	"github.com/erinlkolp/erin-slack-notes-bot/internal/models"
	"github.com/erinlkolp/erin-slack-notes-bot/internal/service"
	"github.com/erinlkolp/erin-slack-notes-bot/pkg/logger"
)

const (
	defaultListLimit = 5
	maxListLimit     = 20
)

// Messenger is the outbound Slack surface the handlers reply through.
type Messenger interface {
	PostChannelMessage(ctx context.Context, channelID, text string) error
	RespondToCommand(ctx context.Context, responseURL, text string) error
}

// NoteService is the slice of the note service the handlers consume.
type NoteService interface {
	CreateNote(ctx context.Context, input service.CreateNoteInput) (*models.Note, error)
	ListNotes(ctx context.Context, userID string, limit int) ([]models.Note, error)
}

// Handlers implements the bot's event and command handlers.
type Handlers struct {
	messenger Messenger
	notes     NoteService
	botUserID string
	log       *logger.Logger
}

// NewHandlers creates the handler set. botUserID is the bot's own user ID
// from auth.test, used to ignore the bot's echo of its own messages.
func NewHandlers(messenger Messenger, notes NoteService, botUserID string, log *logger.Logger) *Handlers {
	return &Handlers{
		messenger: messenger,
		notes:     notes,
		botUserID: botUserID,
		log:       log,
	}
}

// HandleMessage acknowledges an ordinary channel message. Messages from
// bots, including this one, are ignored so two bots can never ping-pong.
func (h *Handlers) HandleMessage(ctx context.Context, ev *slackevents.MessageEvent) error {
	if ev.BotID != "" || ev.SubType == "bot_message" || ev.User == h.botUserID {
		return nil
	}

	reply := fmt.Sprintf("✅ Message received! You said: '%s'", ev.Text)
	if err := h.messenger.PostChannelMessage(ctx, ev.Channel, reply); err != nil {
		return fmt.Errorf("failed to post message reply: %w", err)
	}
	h.log.WithUserID(ev.User).WithField("channel", ev.Channel).Debug("Replied to channel message")

	return nil
}

// HandleMention greets the user who mentioned the bot.
func (h *Handlers) HandleMention(ctx context.Context, ev *slackevents.AppMentionEvent) error {
	h.log.WithUserID(ev.User).Info("Bot mentioned")

	reply := fmt.Sprintf("👋 Hi there! I saw you mentioned me. Your message: '%s'", cleanMention(ev.Text))
	if err := h.messenger.PostChannelMessage(ctx, ev.Channel, reply); err != nil {
		return fmt.Errorf("failed to post mention reply: %w", err)
	}

	return nil
}

// HandleTakeNotes saves the command text as a note and confirms it.
// The envelope is already acked by the router; exactly one response goes
// back through the command's response URL.
func (h *Handlers) HandleTakeNotes(ctx context.Context, cmd slack.SlashCommand) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			_ = h.respond(ctx, cmd.ResponseURL, saveUnexpectedReply)
			err = fmt.Errorf("take_notes handler panicked: %v", rec)
		}
	}()

	username := cmd.UserName
	if username == "" {
		username = "Unknown"
	}

	if strings.TrimSpace(cmd.Text) == "" {
		return h.respond(ctx, cmd.ResponseURL, usageReply)
	}

	note, err := h.notes.CreateNote(ctx, service.CreateNoteInput{
		UserID:    cmd.UserID,
		Username:  username,
		Text:      cmd.Text,
		ChannelID: cmd.ChannelID,
	})
	if errors.Is(err, errs.ErrEmptyNote) {
		return h.respond(ctx, cmd.ResponseURL, usageReply)
	}
	if err != nil {
		if rerr := h.respond(ctx, cmd.ResponseURL, saveFailedReply); rerr != nil {
			return rerr
		}
		return fmt.Errorf("failed to save note: %w", err)
	}

	h.log.WithUserID(cmd.UserID).WithFields(logrus.Fields{
		"username": username,
		"note_id":  note.ID,
	}).Info("Note saved")

	return h.respond(ctx, cmd.ResponseURL, formatSaveConfirmation(note))
}

// HandleMyNotes lists the user's most recent notes.
func (h *Handlers) HandleMyNotes(ctx context.Context, cmd slack.SlashCommand) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			_ = h.respond(ctx, cmd.ResponseURL, listUnexpectedReply)
			err = fmt.Errorf("my_notes handler panicked: %v", rec)
		}
	}()

	username := cmd.UserName
	if username == "" {
		username = "Unknown"
	}

	notes, err := h.notes.ListNotes(ctx, cmd.UserID, parseLimit(cmd.Text))
	if err != nil {
		if rerr := h.respond(ctx, cmd.ResponseURL, listFailedReply); rerr != nil {
			return rerr
		}
		return fmt.Errorf("failed to list notes: %w", err)
	}

	if len(notes) == 0 {
		return h.respond(ctx, cmd.ResponseURL, fmt.Sprintf("📝 No notes found for %s", username))
	}

	return h.respond(ctx, cmd.ResponseURL, formatNoteList(notes))
}

func (h *Handlers) respond(ctx context.Context, responseURL, text string) error {
	if err := h.messenger.RespondToCommand(ctx, responseURL, text); err != nil {
		return fmt.Errorf("failed to deliver command response: %w", err)
	}
	return nil
}

// parseLimit reads the requested note count from the command text.
// Absent, malformed or non-positive input falls back to the default.
func parseLimit(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return defaultListLimit
	}

	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 1 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}

	return n
}

// cleanMention drops the leading <@USERID> token from a mention text.
func cleanMention(text string) string {
	if i := strings.Index(text, ">"); i >= 0 {
		return strings.TrimSpace(text[i+1:])
	}
	return text
}
