package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidNoteTitle   = errors.New("Note title is required.")
	ErrInvalidNoteContent = errors.New("Note content is required.")
	ErrIDMismatch         = errors.New("Id mismatch")
	ErrInvalidNoteID      = errors.New("Invalid note ID provided")

	// ErrNoRecordUpdated matches any *NoRecordUpdatedError via errors.Is.
	ErrNoRecordUpdated = errors.New("no record updated")
)

// NoRecordUpdatedError is returned when an update matched zero rows.
type NoRecordUpdatedError struct {
	ID    uint
	Table string
}

func (e *NoRecordUpdatedError) Error() string {
	return fmt.Sprintf("Did not find a record to update for table %s with id %d", e.Table, e.ID)
}

func (e *NoRecordUpdatedError) Is(target error) bool {
	return target == ErrNoRecordUpdated
}

// IsBadRequest reports whether err is caused by invalid client input.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrInvalidNoteTitle) ||
		errors.Is(err, ErrInvalidNoteContent) ||
		errors.Is(err, ErrIDMismatch) ||
		errors.Is(err, ErrInvalidNoteID)
}
