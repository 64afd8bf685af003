// Package stats serves the marketing figures shown above the booking dialog
// along with live booking counts.
package stats

import (
	"context"

	"github.com/wolfman30/padel-booking/internal/bookings"
	"github.com/wolfman30/padel-booking/internal/formats"
)

// Figures are the configured headline numbers.
type Figures struct {
	Players       int
	GamesPerMonth int
	Rating        float64
}

// Summary is the body of GET /api/stats.
type Summary struct {
	Players       int     `json:"players"`
	GamesPerMonth int     `json:"games_per_month"`
	Rating        float64 `json:"rating"`
	Bookings      *int64  `json:"bookings,omitempty"`
}

// FormatCount is one row of GET /api/stats/formats.
type FormatCount struct {
	FormatType string `json:"format_type"`
	Label      string `json:"label"`
	Count      int64  `json:"count"`
}

// Counter reports booking totals.
type Counter interface {
	Count(ctx context.Context) (int64, error)
	CountByFormat(ctx context.Context, formatTypes []string) (map[string]int64, error)
}

// BookingLister is the part of the bookings service ListCounter needs.
type BookingLister interface {
	List(ctx context.Context) ([]*bookings.Booking, error)
	Count(ctx context.Context) (int64, error)
}

// ListCounter derives counts from a full booking listing. It suits the
// in-memory and document stores where no aggregate query is available.
type ListCounter struct {
	source BookingLister
}

// NewListCounter wraps source.
func NewListCounter(source BookingLister) *ListCounter {
	return &ListCounter{source: source}
}

func (c *ListCounter) Count(ctx context.Context) (int64, error) {
	return c.source.Count(ctx)
}

func (c *ListCounter) CountByFormat(ctx context.Context, formatTypes []string) (map[string]int64, error) {
	list, err := c.source.List(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]struct{}, len(formatTypes))
	for _, f := range formatTypes {
		wanted[f] = struct{}{}
	}
	counts := make(map[string]int64, len(formatTypes))
	for _, b := range list {
		if _, ok := wanted[b.FormatType]; ok {
			counts[b.FormatType]++
		}
	}
	return counts, nil
}

// Breakdown returns one row per catalog format, zero-filled, in catalog order.
func Breakdown(ctx context.Context, counter Counter) ([]FormatCount, error) {
	counts, err := counter.CountByFormat(ctx, formats.Values())
	if err != nil {
		return nil, err
	}
	catalog := formats.Catalog()
	out := make([]FormatCount, 0, len(catalog))
	for _, opt := range catalog {
		out = append(out, FormatCount{FormatType: opt.Value, Label: opt.Label, Count: counts[opt.Value]})
	}
	return out, nil
}
