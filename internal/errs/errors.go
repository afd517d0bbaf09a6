package errs

import "errors"

var (
	// ErrEmptyNote indicates that the note text is empty after trimming.
	ErrEmptyNote = errors.New("note text is empty")
	// ErrInvalidConfig indicates that required environment configuration is missing or malformed.
	ErrInvalidConfig = errors.New("invalid configuration")
)
