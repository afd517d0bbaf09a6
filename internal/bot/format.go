package bot

import (
	"fmt"
	"strings"

	"github.com/erinlkolp/erin-slack-notes-bot/internal/models"
)

const (
	usageReply          = "❌ Please provide some text to save as a note.\nUsage: `/take_notes Your note text here`"
	saveFailedReply     = "❌ Sorry, there was an error saving your note. Please check the database connection."
	saveUnexpectedReply = "❌ An error occurred while saving your note. Please try again."
	listFailedReply     = "❌ Error retrieving notes from database"
	listUnexpectedReply = "❌ An error occurred while retrieving your notes."
)

// maxDisplayLength is the longest note text shown in a listing before
// it gets cut down to an ellipsis.
const maxDisplayLength = 100

// formatSaveConfirmation builds the reply for a successfully saved note.
func formatSaveConfirmation(note *models.Note) string {
	var b strings.Builder

	b.WriteString("✅ Note saved successfully!\n")
	fmt.Fprintf(&b, "📝 Note ID: %d\n", note.ID)
	fmt.Fprintf(&b, "👤 User: %s\n", note.Username)
	fmt.Fprintf(&b, "📄 Note: \"%s\"\n", note.Text)
	fmt.Fprintf(&b, "🕐 Time: %s", note.CreatedAt.Format("2006-01-02 15:04:05"))
	if note.ChannelName != nil && *note.ChannelName != "" {
		fmt.Fprintf(&b, "\n📍 Channel: #%s", *note.ChannelName)
	}

	return b.String()
}

// formatNoteList renders the user's notes as a single message, newest first.
func formatNoteList(notes []models.Note) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📚 Your last %d notes:\n\n", len(notes))
	for _, note := range notes {
		channelStr := ""
		if note.ChannelName != nil && *note.ChannelName != "" {
			channelStr = fmt.Sprintf(" (#%s)", *note.ChannelName)
		}
		fmt.Fprintf(&b, "**#%d** - %s%s\n%s\n\n",
			note.ID,
			note.CreatedAt.Format("01/02 15:04"),
			channelStr,
			truncateText(note.Text, maxDisplayLength),
		)
	}

	return b.String()
}

// truncateText shortens text to at most max characters, marking the cut
// with an ellipsis. Counted in runes so multibyte text is never split.
func truncateText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}
