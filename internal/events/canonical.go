package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Typed is any payload that knows its versioned event name.
type Typed interface {
	EventType() string
}

// Envelope is the JSON body carried on the booking events queue.
type Envelope struct {
	EventID         uuid.UUID       `json:"event_id"`
	EventType       string          `json:"event_type"`
	Aggregate       string          `json:"aggregate"`
	TimestampMicros int64           `json:"timestamp"`
	Payload         json.RawMessage `json:"payload"`
}

var (
	ErrNoAggregate = errors.New("events: aggregate is required")
	ErrNilEvent    = errors.New("events: event is required")
	ErrNoEventType = errors.New("events: event type is required")
)

// clock is swapped in tests.
var clock = time.Now

// EnvelopeOption adjusts an envelope after it is built.
type EnvelopeOption func(*Envelope)

// WithEventID pins the event id; uuid.Nil is ignored.
func WithEventID(id uuid.UUID) EnvelopeOption {
	return func(e *Envelope) {
		if id == uuid.Nil {
			return
		}
		e.EventID = id
	}
}

// WithTimestamp pins the envelope time; the zero time is ignored.
func WithTimestamp(ts time.Time) EnvelopeOption {
	return func(e *Envelope) {
		if !ts.IsZero() {
			e.TimestampMicros = ts.UTC().UnixMicro()
		}
	}
}

// NewEnvelope serialises evt and stamps it with a fresh id and the current time.
func NewEnvelope(aggregate string, evt Typed, opts ...EnvelopeOption) (Envelope, error) {
	aggregate = strings.TrimSpace(aggregate)
	switch {
	case aggregate == "":
		return Envelope{}, ErrNoAggregate
	case evt == nil:
		return Envelope{}, ErrNilEvent
	}
	kind := strings.TrimSpace(evt.EventType())
	if kind == "" {
		return Envelope{}, ErrNoEventType
	}

	raw, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: encode %s: %w", kind, err)
	}
	env := Envelope{
		EventID:         uuid.New(),
		EventType:       kind,
		Aggregate:       aggregate,
		TimestampMicros: clock().UTC().UnixMicro(),
		Payload:         raw,
	}
	for _, apply := range opts {
		if apply != nil {
			apply(&env)
		}
	}
	return env, nil
}

// Sent reports the envelope timestamp as a UTC time.
func (e Envelope) Sent() time.Time {
	return time.UnixMicro(e.TimestampMicros).UTC()
}

// DecodeEnvelope parses a queue message body.
func DecodeEnvelope(body string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return Envelope{}, fmt.Errorf("events: decode envelope: %w", err)
	}
	if strings.TrimSpace(env.EventType) == "" {
		return Envelope{}, ErrNoEventType
	}
	return env, nil
}

func decodePayload[T Typed](e Envelope) (T, error) {
	var out T
	if want := out.EventType(); e.EventType != want {
		return out, fmt.Errorf("events: envelope is %q, want %q", e.EventType, want)
	}
	if err := json.Unmarshal(e.Payload, &out); err != nil {
		return out, fmt.Errorf("events: decode %s payload: %w", e.EventType, err)
	}
	return out, nil
}

// BookingCreated unpacks a booking.created.v1 payload.
func (e Envelope) BookingCreated() (BookingCreatedV1, error) {
	return decodePayload[BookingCreatedV1](e)
}
