package services

import "errors"

var (
	// ErrSessionNotFound is returned when a generation session does not exist
	// or belongs to another user.
	ErrSessionNotFound = errors.New("generation session not found or access denied")

	// ErrFlashcardNotFound is returned when a flashcard does not exist or
	// belongs to another user.
	ErrFlashcardNotFound = errors.New("flashcard not found or access denied")

	// ErrInvalidSessionID is returned when a session id is not a positive
	// integer.
	ErrInvalidSessionID = errors.New("invalid session ID")
)

// ValidationError reports invalid user input. Handlers map it to 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(msg string) error {
	return &ValidationError{Message: msg}
}
