// Package bookingflow drives the three-step reservation dialog: pick a date,
// pick a time, then enter contact details and submit.
package bookingflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/padel-booking/internal/formats"
	"github.com/wolfman30/padel-booking/pkg/logging"
	"github.com/wolfman30/padel-booking/pkg/padelapi"
)

var flowTracer = otel.Tracer("padel.internal.bookingflow")

const dateLayout = "2006-01-02"

// ScheduleSource provides the schedule snapshot.
type ScheduleSource interface {
	FetchSchedule(ctx context.Context) ([]padelapi.ScheduleDay, error)
}

// BookingSink accepts reservation requests.
type BookingSink interface {
	CreateBooking(ctx context.Context, req padelapi.BookingRequest) (*padelapi.Booking, error)
}

// NoticeKind classifies a user-facing notification.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

func (k NoticeKind) String() string {
	if k == NoticeSuccess {
		return "success"
	}
	return "error"
}

// Notice is a transient message for the user.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Notifier shows notices to the user. It is never called with the flow lock held.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Messages are the notice texts.
type Messages struct {
	ScheduleFailed string
	MissingFields  string
	Booked         string
	BookingFailed  string
}

// DefaultMessages returns the stock English texts.
func DefaultMessages() Messages {
	return Messages{
		ScheduleFailed: "Could not load the schedule",
		MissingFields:  "Please fill in all fields",
		Booked:         "You're booked! See you on the court!",
		BookingFailed:  "Booking failed",
	}
}

// Option configures a Flow.
type Option func(*Flow)

// WithNotifier routes notices to n.
func WithNotifier(n Notifier) Option {
	return func(f *Flow) { f.notifier = n }
}

// WithMessages overrides notice texts; empty fields keep their defaults.
func WithMessages(m Messages) Option {
	return func(f *Flow) {
		if m.ScheduleFailed != "" {
			f.messages.ScheduleFailed = m.ScheduleFailed
		}
		if m.MissingFields != "" {
			f.messages.MissingFields = m.MissingFields
		}
		if m.Booked != "" {
			f.messages.Booked = m.Booked
		}
		if m.BookingFailed != "" {
			f.messages.BookingFailed = m.BookingFailed
		}
	}
}

// WithFormats replaces the format catalog.
func WithFormats(options []formats.Option) Option {
	return func(f *Flow) {
		f.formats = append([]formats.Option(nil), options...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Flow is one booking dialog. It is safe to read State from another
// goroutine while Open or Submit wait on the network; the lock is never held
// across a call to the source or the sink.
type Flow struct {
	source   ScheduleSource
	sink     BookingSink
	notifier Notifier
	messages Messages
	formats  []formats.Option
	logger   *logging.Logger

	mu            sync.Mutex
	state         State
	initialFormat string
	snapshot      []padelapi.ScheduleDay
	// gen changes on every open and close so late results can be discarded.
	gen uint64
}

// New creates a closed flow.
func New(source ScheduleSource, sink BookingSink, opts ...Option) *Flow {
	if source == nil {
		panic("bookingflow: schedule source required")
	}
	if sink == nil {
		panic("bookingflow: booking sink required")
	}
	f := &Flow{
		source:   source,
		sink:     sink,
		messages: DefaultMessages(),
		formats:  formats.Catalog(),
		logger:   logging.Default(),
		state:    closedState(""),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Open starts a new flow instance and fetches the schedule once. A fetch
// failure is reported through the Notifier and leaves the flow open on the
// date step with no selectable dates. An unknown initialFormat is ignored.
func (f *Flow) Open(ctx context.Context, initialFormat string) error {
	f.mu.Lock()
	if f.state.Open {
		f.mu.Unlock()
		return ErrAlreadyOpen
	}
	if initialFormat != "" && !f.knownFormat(initialFormat) {
		f.logger.Warn("ignoring unknown initial format", "format_type", initialFormat)
		initialFormat = ""
	}
	f.initialFormat = initialFormat
	f.gen++
	gen := f.gen
	f.state = openingState(initialFormat)
	f.snapshot = nil
	f.mu.Unlock()

	ctx, span := flowTracer.Start(ctx, "bookingflow.open")
	defer span.End()

	days, err := f.source.FetchSchedule(ctx)

	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return ErrStale
	}
	if err == nil {
		f.snapshot = copySnapshot(days)
	}
	f.state = f.state.loaded()
	f.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		f.logger.Warn("schedule fetch failed", "error", err)
		f.notify(NoticeError, f.messages.ScheduleFailed)
		return nil
	}
	span.SetAttributes(attribute.Int("padel.schedule_days", len(days)))
	return nil
}

// Close ends the instance. It is always permitted and resets every field
// except the format, which returns to the initial format given to Open.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

func (f *Flow) closeLocked() {
	if !f.state.Open {
		return
	}
	f.gen++
	f.state = closedState(f.initialFormat)
	f.snapshot = nil
}

// IsOpen reports whether an instance is active.
func (f *Flow) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Open
}

// State returns a copy of the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Formats returns the format catalog.
func (f *Flow) Formats() []formats.Option {
	return append([]formats.Option(nil), f.formats...)
}

// SelectableDates lists exactly the dates in the cached snapshot, in order.
func (f *Flow) SelectableDates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	dates := make([]string, 0, len(f.snapshot))
	for _, day := range f.snapshot {
		dates = append(dates, day.Date)
	}
	return dates
}

// SelectDate records date, clears the time and moves to the time step.
// Days without slots are still selectable.
func (f *Flow) SelectDate(date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.state.ready(StepDate); err != nil {
		return err
	}
	want, ok := calendarDate(date)
	if !ok {
		return ErrDateNotOffered
	}
	if _, ok := f.findDay(want); !ok {
		return ErrDateNotOffered
	}
	// Store the YYYY-MM-DD form; the snapshot may carry timestamps.
	f.state = f.state.withDate(want)
	return nil
}

// Slots returns the selected day's slots in snapshot order.
func (f *Flow) Slots() []padelapi.TimeSlot {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Date == "" {
		return nil
	}
	day, ok := f.findDay(f.state.Date)
	if !ok {
		return nil
	}
	return append([]padelapi.TimeSlot{}, day.Slots...)
}

// SelectTime picks a slot of the selected day by id or time label. Unknown
// and unavailable slots leave the state untouched.
func (f *Flow) SelectTime(ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.state.ready(StepTime); err != nil {
		return err
	}
	day, ok := f.findDay(f.state.Date)
	if !ok {
		return ErrSlotNotFound
	}
	for _, slot := range day.Slots {
		if string(slot.ID) == ref || slot.Time == ref {
			if !slot.Available {
				return ErrSlotUnavailable
			}
			f.state = f.state.withTime(slot.Time)
			return nil
		}
	}
	return ErrSlotNotFound
}

// Back returns to the previous step, keeping the snapshot and typed contact details.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next, err := f.state.back()
	if err != nil {
		return err
	}
	f.state = next
	return nil
}

// SetFormat selects a format from the catalog.
func (f *Flow) SetFormat(value string) error {
	if !f.knownFormat(value) {
		return ErrUnknownFormat
	}
	return f.edit(func(s *State) { s.Format = value })
}

// SetName records the contact name.
func (f *Flow) SetName(name string) error {
	return f.edit(func(s *State) { s.Name = name })
}

// SetPhone records the contact phone. Its format is not checked.
func (f *Flow) SetPhone(phone string) error {
	return f.edit(func(s *State) { s.Phone = phone })
}

func (f *Flow) edit(apply func(*State)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.state.editable(); err != nil {
		return err
	}
	apply(&f.state)
	return nil
}

// Submit sends the reservation. Missing fields are reported without a network
// call. Success closes the flow; failure keeps every field on the contact step.
// A call while another submission is in flight returns ErrSubmitInProgress
// and changes nothing.
func (f *Flow) Submit(ctx context.Context) (*padelapi.Booking, error) {
	f.mu.Lock()
	if err := f.state.ready(StepContact); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	req, err := f.state.request()
	if err != nil {
		f.mu.Unlock()
		f.notify(NoticeError, f.messages.MissingFields)
		return nil, err
	}
	f.state = f.state.beginSubmit()
	gen := f.gen
	f.mu.Unlock()

	ctx, span := flowTracer.Start(ctx, "bookingflow.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("padel.date", req.Date),
		attribute.String("padel.time", req.Time),
		attribute.String("padel.format_type", req.FormatType),
	)
	start := time.Now()

	booking, err := f.sink.CreateBooking(ctx, req)

	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStale, err)
		}
		return booking, nil
	}
	if err != nil {
		f.state = f.state.submitFailed()
		f.mu.Unlock()
		span.RecordError(err)
		f.logger.Warn("booking submission failed", "error", err, "date", req.Date, "time", req.Time)
		f.notify(NoticeError, f.failureMessage(err))
		return nil, fmt.Errorf("bookingflow: submit: %w", err)
	}
	f.closeLocked()
	f.mu.Unlock()

	f.logger.Info("booking submitted", "date", req.Date, "time", req.Time, "format_type", req.FormatType,
		"elapsed_ms", time.Since(start).Milliseconds())
	f.notify(NoticeSuccess, f.messages.Booked)
	return booking, nil
}

func (f *Flow) failureMessage(err error) string {
	var apiErr *padelapi.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return f.messages.BookingFailed
}

func (f *Flow) notify(kind NoticeKind, message string) {
	if f.notifier == nil {
		if kind == NoticeError {
			f.logger.Warn("booking notice", "message", message)
		} else {
			f.logger.Info("booking notice", "message", message)
		}
		return
	}
	f.notifier.Notify(Notice{Kind: kind, Message: message})
}

func (f *Flow) knownFormat(value string) bool {
	for _, opt := range f.formats {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// findDay matches by calendar date, so a timestamp such as
// 2025-06-10T00:00:00Z finds the 2025-06-10 entry.
func (f *Flow) findDay(date string) (padelapi.ScheduleDay, bool) {
	want, ok := calendarDate(date)
	if !ok {
		return padelapi.ScheduleDay{}, false
	}
	for _, day := range f.snapshot {
		if got, ok := calendarDate(day.Date); ok && got == want {
			return day, true
		}
	}
	return padelapi.ScheduleDay{}, false
}

func calendarDate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t.Format(dateLayout), true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Format(dateLayout), true
	}
	return "", false
}

func copySnapshot(days []padelapi.ScheduleDay) []padelapi.ScheduleDay {
	out := make([]padelapi.ScheduleDay, len(days))
	for i, day := range days {
		out[i] = padelapi.ScheduleDay{Date: day.Date, Slots: append([]padelapi.TimeSlot{}, day.Slots...)}
	}
	return out
}
