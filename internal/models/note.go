package models

import "time"

// Note represents a saved user note
type Note struct {
	ID          int64     `db:"id"`
	UserID      string    `db:"user_id"`
	Username    string    `db:"username"`
	Text        string    `db:"note_text"`
	CreatedAt   time.Time `db:"created_at"`
	ChannelID   *string   `db:"channel_id"`
	ChannelName *string   `db:"channel_name"`
}
