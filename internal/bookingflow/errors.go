package bookingflow

import (
	"errors"
	"strings"
)

var (
	// ErrNotOpen is returned by every step operation while the flow is closed.
	ErrNotOpen = errors.New("bookingflow: flow is not open")
	// ErrAlreadyOpen is returned by Open on an open flow.
	ErrAlreadyOpen = errors.New("bookingflow: flow is already open")
	// ErrLoading is returned while the schedule snapshot is being fetched.
	ErrLoading = errors.New("bookingflow: schedule is still loading")
	// ErrWrongStep is returned when an action does not belong to the current step.
	ErrWrongStep = errors.New("bookingflow: action not allowed on this step")
	// ErrNoPreviousStep is returned by Back on the first step.
	ErrNoPreviousStep = errors.New("bookingflow: already on the first step")
	// ErrSubmitInProgress is returned while a reservation request is in flight.
	ErrSubmitInProgress = errors.New("bookingflow: submission in progress")
	// ErrDateNotOffered is returned for dates absent from the snapshot.
	ErrDateNotOffered = errors.New("bookingflow: date is not in the schedule")
	// ErrSlotNotFound is returned for slots absent from the selected day.
	ErrSlotNotFound = errors.New("bookingflow: slot is not in the schedule")
	// ErrSlotUnavailable is returned when the chosen slot is already taken.
	ErrSlotUnavailable = errors.New("bookingflow: slot is not available")
	// ErrUnknownFormat is returned for formats outside the catalog.
	ErrUnknownFormat = errors.New("bookingflow: unknown format")
	// ErrMissingFields is wrapped by MissingFieldsError.
	ErrMissingFields = errors.New("bookingflow: required fields are missing")
	// ErrStale is returned when the flow was closed while a call was in flight.
	ErrStale = errors.New("bookingflow: flow closed before the call completed")
)

// MissingFieldsError lists the request fields that were empty at submit time.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return ErrMissingFields.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Unwrap() error {
	return ErrMissingFields
}
