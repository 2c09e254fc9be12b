package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrAlreadyExists         = errors.New("already exists")
	ErrNotParticipant        = errors.New("person is not a participant of the relationship")
	ErrSelfRelationship      = errors.New("a person can not be in a relationship with themself")
	ErrDuplicateRelationship = errors.New("relationship already exists")
	ErrNotVisible            = errors.New("You must set yourself to visible first")
	ErrInvalidCredentials    = errors.New("Unable to log in with provided credentials.")
	ErrInactiveAccount       = errors.New("account is not activated")
	ErrConfirmationPhrase    = errors.New("Incorrect confirmation phrase")
)

// FieldError is a single row-level problem in a submitted form. Row is the
// zero-based index in a batch, or -1 for single-object forms.
type FieldError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"error"`
}

// ValidationError carries every field error of a rejected submission.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if fe.Row >= 0 {
			parts = append(parts, fmt.Sprintf("row %d: %s: %s", fe.Row, fe.Field, fe.Message))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a problem with the given row and field.
func (e *ValidationError) Add(row int, field, message string) {
	e.Errors = append(e.Errors, FieldError{Row: row, Field: field, Message: message})
}

// OrNil returns e when it holds at least one error.
func (e *ValidationError) OrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
