package repository

import (
	"context"
	"fmt"

	"github.com/erinlkolp/erin-slack-notes-bot/internal/models"
	"github.com/erinlkolp/erin-slack-notes-bot/pkg/logger"
	"github.com/erinlkolp/erin-slack-notes-bot/pkg/metrics"
)

const createNotesTable = `
	CREATE TABLE IF NOT EXISTS notes (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		username VARCHAR(255),
		note_text TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		channel_id VARCHAR(255),
		channel_name VARCHAR(255)
	)
`

// NoteRepository handles database interactions for notes.
// Every operation opens its own connection through the connector and
// closes it before returning.
type NoteRepository struct {
	connector Connector
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// NewNoteRepository creates a new repository instance.
func NewNoteRepository(connector Connector, log *logger.Logger, m *metrics.Metrics) *NoteRepository {
	return &NoteRepository{
		connector: connector,
		log:       log,
		metrics:   m,
	}
}

// EnsureSchema creates the notes table if it does not exist yet.
// Safe to call on every startup.
func (r *NoteRepository) EnsureSchema(ctx context.Context) (err error) {
	defer func() { r.metrics.RecordDBOperation("ensure_schema", err) }()

	db, err := r.connector.Connect(ctx)
	if err != nil {
		r.log.WithError(err).Error("Failed to connect for schema setup")
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer db.Close()

	if _, err = db.ExecContext(ctx, createNotesTable); err != nil {
		r.log.WithError(err).Error("Failed to create notes table")
		return fmt.Errorf("failed to create notes table: %w", err)
	}

	return nil
}

// InsertNote persists a note and returns its assigned ID.
func (r *NoteRepository) InsertNote(ctx context.Context, note *models.Note) (id int64, err error) {
	defer func() { r.metrics.RecordDBOperation("insert_note", err) }()

	db, err := r.connector.Connect(ctx)
	if err != nil {
		r.log.WithError(err).Error("Failed to connect for note insert")
		return 0, fmt.Errorf("failed to connect: %w", err)
	}
	defer db.Close()

	query := `
		INSERT INTO notes (user_id, username, note_text, channel_id, channel_name)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := db.ExecContext(ctx, query,
		note.UserID,
		note.Username,
		note.Text,
		note.ChannelID,
		note.ChannelName,
	)
	if err != nil {
		r.log.WithError(err).WithField("user_id", note.UserID).Error("Failed to insert note")
		return 0, fmt.Errorf("failed to insert note: %w", err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		r.log.WithError(err).Error("Failed to read inserted note id")
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return id, nil
}

// ListNotes retrieves the user's most recent notes, newest first.
// An empty result is not an error.
func (r *NoteRepository) ListNotes(ctx context.Context, userID string, limit int) (notes []models.Note, err error) {
	defer func() { r.metrics.RecordDBOperation("list_notes", err) }()

	db, err := r.connector.Connect(ctx)
	if err != nil {
		r.log.WithError(err).Error("Failed to connect for note listing")
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer db.Close()

	query := `
		SELECT id, note_text, created_at, channel_name
		FROM notes
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		r.log.WithError(err).WithField("user_id", userID).Error("Failed to query notes")
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	notes = make([]models.Note, 0)
	for rows.Next() {
		var note models.Note
		if err = rows.Scan(&note.ID, &note.Text, &note.CreatedAt, &note.ChannelName); err != nil {
			r.log.WithError(err).Error("Failed to scan note")
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		note.UserID = userID
		notes = append(notes, note)
	}

	if err = rows.Err(); err != nil {
		r.log.WithError(err).Error("Failed to iterate notes")
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}

	return notes, nil
}
