package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erinlkolp/erin-slack-notes-bot/internal/errs"
	"github.com/erinlkolp/erin-slack-notes-bot/internal/models"
	"github.com/erinlkolp/erin-slack-notes-bot/internal/repository"
	"github.com/erinlkolp/erin-slack-notes-bot/pkg/logger"
)

// ChannelResolver resolves a channel ID to its human readable name.
type ChannelResolver interface {
	ResolveChannelName(ctx context.Context, channelID string) (string, error)
}

// CreateNoteInput carries the fields needed to save a note.
type CreateNoteInput struct {
	UserID    string
	Username  string
	Text      string
	ChannelID string
}

// NoteService implements the note business rules on top of the repository.
type NoteService struct {
	repo     *repository.NoteRepository
	resolver ChannelResolver
	log      *logger.Logger
}

// NewNoteService creates a new service instance.
func NewNoteService(repo *repository.NoteRepository, resolver ChannelResolver, log *logger.Logger) *NoteService {
	return &NoteService{
		repo:     repo,
		resolver: resolver,
		log:      log,
	}
}

// CreateNote validates and persists a note. The channel name is resolved
// on a best effort basis; lookup failures never block the save.
func (s *NoteService) CreateNote(ctx context.Context, input CreateNoteInput) (*models.Note, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, errs.ErrEmptyNote
	}

	note := &models.Note{
		UserID:   input.UserID,
		Username: input.Username,
		Text:     text,
	}

	if input.ChannelID != "" {
		channelID := input.ChannelID
		note.ChannelID = &channelID

		name, err := s.resolver.ResolveChannelName(ctx, channelID)
		if err != nil {
			s.log.WithError(err).WithField("channel_id", channelID).Debug("Could not resolve channel name")
		} else if name != "" {
			note.ChannelName = &name
		}
	}

	id, err := s.repo.InsertNote(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}

	note.ID = id
	note.CreatedAt = time.Now()

	return note, nil
}

// ListNotes returns up to limit notes for the user, newest first.
// The limit is clamped so a single command cannot pull the whole table.
func (s *NoteService) ListNotes(ctx context.Context, userID string, limit int) ([]models.Note, error) {
	if limit < 1 {
		limit = 5
	}
	if limit > 20 {
		limit = 20
	}

	return s.repo.ListNotes(ctx, userID, limit)
}
