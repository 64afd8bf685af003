package padelapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// SlotID identifies a time slot. Servers may send it as a JSON string or
// number; both decode to the same textual form.
type SlotID string

func (id *SlotID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = SlotID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("padelapi: slot id must be a string or number: %w", err)
	}
	*id = SlotID(n.String())
	return nil
}

// TimeSlot is one bookable time on a day.
type TimeSlot struct {
	ID        SlotID `json:"id"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// ScheduleDay lists the slots for a calendar date (YYYY-MM-DD).
type ScheduleDay struct {
	Date  string     `json:"date"`
	Slots []TimeSlot `json:"slots"`
}

// BookingRequest is the body of POST /bookings.
type BookingRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	FormatType string `json:"format_type"`
}

// Booking is a confirmed reservation.
type Booking struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	FormatType string    `json:"format_type"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Stats are the landing page headline figures.
type Stats struct {
	Players       int     `json:"players"`
	GamesPerMonth int     `json:"games_per_month"`
	Rating        float64 `json:"rating"`
	Bookings      *int64  `json:"bookings,omitempty"`
}

// Review is a customer testimonial.
type Review struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Text   string  `json:"text"`
	Rating int     `json:"rating"`
	Avatar *string `json:"avatar,omitempty"`
}
