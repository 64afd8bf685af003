package bookings

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/padel-booking/internal/events"
	"github.com/wolfman30/padel-booking/internal/observability/metrics"
	"github.com/wolfman30/padel-booking/pkg/logging"
)

var bookingsTracer = otel.Tracer("padel.internal.bookings")

// SlotChecker reports whether a slot is on the published schedule and drops
// cached availability after a booking lands.
type SlotChecker interface {
	Bookable(date, tm string) bool
	Invalidate(ctx context.Context) error
}

// EventPublisher emits booking.created events.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, evt events.BookingCreatedV1) error
}

// Option configures a Service.
type Option func(*Service)

// WithSlotChecker rejects slots outside the schedule and invalidates its cache.
func WithSlotChecker(c SlotChecker) Option {
	return func(s *Service) { s.slots = c }
}

// WithPublisher publishes an event for every created booking.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics records booking outcomes.
func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service creates and lists bookings.
type Service struct {
	repo      Repository
	slots     SlotChecker
	publisher EventPublisher
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
}

// NewService constructs a bookings service.
func NewService(repo Repository, logger *logging.Logger, opts ...Option) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{repo: repo, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create validates req and reserves its slot. Cache invalidation and event
// publishing failures are logged, not returned: the booking already exists.
func (s *Service) Create(ctx context.Context, req *CreateBookingRequest) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()
	start := time.Now()

	booking, err := s.create(ctx, req)
	s.metrics.ObserveBooking(req.FormatType, outcome(err), time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("padel.booking_id", booking.ID),
		attribute.String("padel.format_type", booking.FormatType),
	)
	return booking, nil
}

func (s *Service) create(ctx context.Context, req *CreateBookingRequest) (*Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.slots != nil && !s.slots.Bookable(req.Date, req.Time) {
		return nil, ErrSlotNotOffered
	}

	booking, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking created", "booking_id", booking.ID, "date", booking.Date, "time", booking.Time, "format_type", booking.FormatType)

	if s.slots != nil {
		if err := s.slots.Invalidate(ctx); err != nil {
			s.logger.Warn("schedule cache invalidation failed", "error", err, "booking_id", booking.ID)
		}
	}
	if s.publisher != nil {
		evt := events.BookingCreatedV1{
			BookingID:  booking.ID,
			Name:       booking.Name,
			Phone:      booking.Phone,
			Date:       booking.Date,
			Time:       booking.Time,
			FormatType: booking.FormatType,
			OccurredAt: booking.CreatedAt,
		}
		if err := s.publisher.PublishBookingCreated(ctx, evt); err != nil {
			s.logger.Error("failed to publish booking event", "error", err, "booking_id", booking.ID)
		}
	}
	return booking, nil
}

// Get loads one booking.
func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

// List returns every booking ordered by date and time.
func (s *Service) List(ctx context.Context) ([]*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.list")
	defer span.End()

	list, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return list, nil
}

// Count reports the number of stored bookings.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ErrSlotNotOffered):
		return "not_offered"
	default:
		return "error"
	}
}
