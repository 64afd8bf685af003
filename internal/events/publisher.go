package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/padel-booking/pkg/logging"
)

var publisherTracer = otel.Tracer("padel.internal.events")

// Publisher writes canonical envelopes to a Queue.
type Publisher struct {
	queue  Queue
	logger *logging.Logger
}

// NewPublisher returns a publisher bound to queue.
func NewPublisher(queue Queue, logger *logging.Logger) (*Publisher, error) {
	if queue == nil {
		return nil, errors.New("events: queue is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}, nil
}

// Publish wraps evt in an envelope and enqueues it.
func (p *Publisher) Publish(ctx context.Context, aggregate string, evt Typed, opts ...EnvelopeOption) (Envelope, error) {
	ctx, span := publisherTracer.Start(ctx, "events.publish")
	defer span.End()

	env, err := NewEnvelope(aggregate, evt, opts...)
	if err != nil {
		span.RecordError(err)
		return Envelope{}, err
	}
	span.SetAttributes(
		attribute.String("event.type", env.EventType),
		attribute.String("event.id", env.EventID.String()),
	)

	body, err := json.Marshal(env)
	if err != nil {
		span.RecordError(err)
		return Envelope{}, fmt.Errorf("events: marshal envelope: %w", err)
	}
	if err := p.queue.Send(ctx, string(body), map[string]string{AttrEventType: env.EventType}); err != nil {
		span.RecordError(err)
		return Envelope{}, err
	}
	p.logger.Debug("event published", "event_type", env.EventType, "event_id", env.EventID.String(), "aggregate", env.Aggregate)
	return env, nil
}

// PublishBookingCreated enqueues a booking.created.v1 event keyed by the booking id.
func (p *Publisher) PublishBookingCreated(ctx context.Context, evt BookingCreatedV1) error {
	_, err := p.Publish(ctx, "booking:"+evt.BookingID, evt, WithTimestamp(evt.OccurredAt))
	return err
}
