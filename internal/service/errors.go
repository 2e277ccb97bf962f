package service

import (
	"errors"
	"fmt"

	"bookingd/internal/models"
)

var (
	ErrInvalidDateRange  = errors.New("start date must be before end date")
	ErrInvalidPrice      = errors.New("total price must be positive")
	ErrItemUnavailable   = errors.New("item is not available for the selected dates")
	ErrNotFound          = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid booking transition")
	ErrTooEarly          = errors.New("end date has not passed yet")
)

// TransitionError reports a lifecycle action refused in the booking's current status.
type TransitionError struct {
	BookingID string
	From      models.BookingStatus
	Action    string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("booking %s cannot be %s (status %s)", e.BookingID, e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// reason maps an operation error to a short metrics label.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidDateRange):
		return "invalid_date_range"
	case errors.Is(err, ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, ErrItemUnavailable):
		return "item_unavailable"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrTooEarly):
		return "too_early"
	default:
		return "collaborator"
	}
}
