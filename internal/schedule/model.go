package schedule

import (
	"github.com/google/uuid"
)

const (
	// DateLayout is the wire format of a calendar date.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format of a slot's time of day.
	TimeLayout = "15:04"
)

// Slot is one bookable time of day on a given date.
type Slot struct {
	ID        string `json:"id"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Day lists the slots offered on one calendar date.
type Day struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

// SlotKey identifies a slot independent of its generated ID.
type SlotKey struct {
	Date string
	Time string
}

var slotNamespace = uuid.MustParse("5b7c4f1e-2f55-4d8c-9a8e-6a1f0d3c2b10")

// SlotID returns a stable identifier for the slot at date/time so clients can
// key on it across snapshots.
func SlotID(date, tm string) string {
	return uuid.NewSHA1(slotNamespace, []byte(date+"T"+tm)).String()
}
