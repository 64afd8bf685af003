package events

import "time"

// BookingCreatedType is the canonical type of BookingCreatedV1.
const BookingCreatedType = "booking.created.v1"

// BookingCreatedV1 is emitted once a reservation has been persisted.
type BookingCreatedV1 struct {
	BookingID  string    `json:"booking_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	FormatType string    `json:"format_type"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (BookingCreatedV1) EventType() string { return BookingCreatedType }
