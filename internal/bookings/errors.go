package bookings

import "errors"

var (
	// ErrInvalidRequest wraps every validation failure.
	ErrInvalidRequest = errors.New("bookings: invalid request")

	// ErrSlotTaken is returned when the requested date/time already holds a booking.
	ErrSlotTaken = errors.New("bookings: slot already taken")

	// ErrSlotNotOffered is returned when the date/time is outside the published schedule.
	ErrSlotNotOffered = errors.New("bookings: slot not offered")

	// ErrNotFound is returned when a booking does not exist.
	ErrNotFound = errors.New("bookings: booking not found")
)

// ValidationError describes the first invalid field of a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }
