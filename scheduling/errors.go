package scheduling

import (
	"aula-booking/model"
	"errors"
	"fmt"
)

var (
	ErrMissingRequiredField = errors.New("purpose and contact are required")
	ErrInvalidTimeRange     = errors.New("end time must be later than start time")
	ErrScheduleConflict     = errors.New("schedule conflict")
	ErrNotFound             = errors.New("booking not found")
	ErrImportParse          = errors.New("import data could not be parsed")
	ErrUnknownHall          = model.ErrUnknownHall
	ErrInvalidDate          = errors.New("date must be in YYYY-MM-DD format")
)

// ConflictError carries the existing booking that a candidate overlaps.
type ConflictError struct {
	Booking model.Booking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule conflict with another booking (%s - %s)", e.Booking.Start, e.Booking.End)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrScheduleConflict
}
