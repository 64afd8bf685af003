package schedule

import (
	"time"
)

// Generator produces the bookable calendar: the next Days days, each with the
// same fixed list of slot times.
type Generator struct {
	Days     int
	Times    []string
	Location *time.Location
	Now      func() time.Time
}

func (g Generator) today() time.Time {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	loc := g.Location
	if loc == nil {
		loc = time.UTC
	}
	t := now().In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Generate returns every day in the window with all slots available.
func (g Generator) Generate() []Day {
	start := g.today()
	days := make([]Day, 0, g.Days)
	for i := 0; i < g.Days; i++ {
		date := start.AddDate(0, 0, i).Format(DateLayout)
		slots := make([]Slot, 0, len(g.Times))
		for _, tm := range g.Times {
			slots = append(slots, Slot{ID: SlotID(date, tm), Time: tm, Available: true})
		}
		days = append(days, Day{Date: date, Slots: slots})
	}
	return days
}

// Contains reports whether date/time is a slot inside the current window.
func (g Generator) Contains(date, tm string) bool {
	d, err := time.ParseInLocation(DateLayout, date, g.today().Location())
	if err != nil {
		return false
	}
	start := g.today()
	if d.Before(start) || !d.Before(start.AddDate(0, 0, g.Days)) {
		return false
	}
	for _, candidate := range g.Times {
		if candidate == tm {
			return true
		}
	}
	return false
}
