package schedule

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/padel-booking/internal/observability/metrics"
	"github.com/wolfman30/padel-booking/pkg/logging"
)

var scheduleTracer = otel.Tracer("padel.internal.schedule")

// BookedSlotLister reports which slots on or after from (YYYY-MM-DD) already
// hold a reservation.
type BookedSlotLister interface {
	BookedSlots(ctx context.Context, from string) ([]SlotKey, error)
}

// Service builds availability snapshots from the generator and the booking store.
type Service struct {
	gen     Generator
	booked  BookedSlotLister
	cache   Cache
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewService constructs a schedule service. cache and m may be nil.
func NewService(gen Generator, booked BookedSlotLister, cache Cache, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if booked == nil {
		panic("schedule: booked slot lister required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{gen: gen, booked: booked, cache: cache, metrics: m, logger: logger}
}

// Snapshot returns every bookable day with taken slots marked unavailable.
func (s *Service) Snapshot(ctx context.Context) ([]Day, error) {
	ctx, span := scheduleTracer.Start(ctx, "schedule.snapshot")
	defer span.End()

	cacheable := false
	var gen int64
	if s.cache != nil {
		days, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("schedule cache read failed", "error", err)
		} else if ok {
			span.SetAttributes(attribute.Bool("padel.cache_hit", true))
			s.metrics.ObserveSchedule("hit")
			return days, nil
		}
		// Read before listing bookings: an Invalidate after this point
		// bumps the generation and the write below is dropped.
		if gen, err = s.cache.Generation(ctx); err != nil {
			s.logger.Warn("schedule cache generation read failed", "error", err)
		} else {
			cacheable = true
		}
	}

	days := s.gen.Generate()
	from := ""
	if len(days) > 0 {
		from = days[0].Date
	}
	booked, err := s.booked.BookedSlots(ctx, from)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("schedule: list booked slots: %w", err)
	}
	days = markBooked(days, booked)

	if s.cache == nil {
		s.metrics.ObserveSchedule("uncached")
		return days, nil
	}
	s.metrics.ObserveSchedule("miss")
	if !cacheable {
		return days, nil
	}
	stored, err := s.cache.SetIfGeneration(ctx, days, gen)
	if err != nil {
		s.logger.Warn("schedule cache write failed", "error", err)
	} else if !stored {
		s.logger.Debug("schedule snapshot superseded by a newer booking; not cached")
	}
	return days, nil
}

// Bookable reports whether date/time is a slot the center currently offers.
func (s *Service) Bookable(date, tm string) bool {
	return s.gen.Contains(date, tm)
}

// Invalidate drops the cached snapshot so the next read sees new bookings.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

func markBooked(days []Day, booked []SlotKey) []Day {
	if len(booked) == 0 {
		return days
	}
	taken := make(map[SlotKey]struct{}, len(booked))
	for _, key := range booked {
		taken[key] = struct{}{}
	}
	for i := range days {
		for j := range days[i].Slots {
			if _, ok := taken[SlotKey{Date: days[i].Date, Time: days[i].Slots[j].Time}]; ok {
				days[i].Slots[j].Available = false
			}
		}
	}
	return days
}
