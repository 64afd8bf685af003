package bookingflow

import (
	"strings"

	"github.com/wolfman30/padel-booking/pkg/padelapi"
)

// Step is the visible dialog step, 1 through 3.
type Step int

const (
	StepDate    Step = 1
	StepTime    Step = 2
	StepContact Step = 3
)

// Phase is the lifecycle position derived from a State.
type Phase string

const (
	PhaseClosed     Phase = "closed"
	PhaseLoading    Phase = "loading"
	PhaseDate       Phase = "step1"
	PhaseTime       Phase = "step2"
	PhaseContact    Phase = "step3"
	PhaseSubmitting Phase = "submitting"
)

// State is the transient data of one open flow instance. Transition methods
// never mutate the receiver; they return the next State.
type State struct {
	Open       bool
	Step       Step
	Date       string
	Time       string
	Format     string
	Name       string
	Phone      string
	Loading    bool
	Submitting bool
}

// Phase reports where the state sits in the lifecycle.
func (s State) Phase() Phase {
	switch {
	case !s.Open:
		return PhaseClosed
	case s.Loading:
		return PhaseLoading
	case s.Submitting:
		return PhaseSubmitting
	case s.Step == StepTime:
		return PhaseTime
	case s.Step == StepContact:
		return PhaseContact
	default:
		return PhaseDate
	}
}

// closedState is the reset state; only the caller's initial format survives.
func closedState(initialFormat string) State {
	return State{Step: StepDate, Format: initialFormat}
}

func openingState(initialFormat string) State {
	s := closedState(initialFormat)
	s.Open = true
	s.Loading = true
	return s
}

func (s State) loaded() State {
	s.Loading = false
	s.Step = StepDate
	return s
}

// ready checks that step-specific input is currently accepted.
func (s State) ready(step Step) error {
	if err := s.editable(); err != nil {
		return err
	}
	if s.Loading {
		return ErrLoading
	}
	if s.Step != step {
		return ErrWrongStep
	}
	return nil
}

// editable checks that form fields may change.
func (s State) editable() error {
	if !s.Open {
		return ErrNotOpen
	}
	if s.Submitting {
		return ErrSubmitInProgress
	}
	return nil
}

func (s State) withDate(date string) State {
	s.Date = date
	s.Time = ""
	s.Step = StepTime
	return s
}

func (s State) withTime(tm string) State {
	s.Time = tm
	s.Step = StepContact
	return s
}

func (s State) back() (State, error) {
	if err := s.editable(); err != nil {
		return s, err
	}
	if s.Loading {
		return s, ErrLoading
	}
	switch s.Step {
	case StepContact:
		s.Step = StepTime
	case StepTime:
		s.Step = StepDate
	default:
		return s, ErrNoPreviousStep
	}
	return s, nil
}

// request builds the reservation body, or reports which fields are missing.
func (s State) request() (padelapi.BookingRequest, error) {
	req := padelapi.BookingRequest{
		Name:       strings.TrimSpace(s.Name),
		Phone:      strings.TrimSpace(s.Phone),
		Date:       s.Date,
		Time:       s.Time,
		FormatType: s.Format,
	}
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", req.Name},
		{"phone", req.Phone},
		{"date", req.Date},
		{"time", req.Time},
		{"format_type", req.FormatType},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return padelapi.BookingRequest{}, &MissingFieldsError{Fields: missing}
	}
	return req, nil
}

func (s State) beginSubmit() State {
	s.Submitting = true
	return s
}

func (s State) submitFailed() State {
	s.Submitting = false
	return s
}
