package bookings

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/padel-booking/internal/schedule"
)

// Repository defines the interface for booking storage. Implementations
// enforce at most one booking per (date, time).
type Repository interface {
	Create(ctx context.Context, req *CreateBookingRequest) (*Booking, error)
	Get(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context) ([]*Booking, error)
	Count(ctx context.Context) (int64, error)
	BookedSlots(ctx context.Context, from string) ([]schedule.SlotKey, error)
}

// InMemoryRepository keeps bookings in process memory.
type InMemoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]*Booking
	slots    map[schedule.SlotKey]string
	now      func() time.Time
}

// NewInMemoryRepository creates an empty in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		bookings: make(map[string]*Booking),
		slots:    make(map[schedule.SlotKey]string),
		now:      time.Now,
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, req *CreateBookingRequest) (*Booking, error) {
	booking := &Booking{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Phone:      req.Phone,
		Date:       req.Date,
		Time:       req.Time,
		FormatType: req.FormatType,
		Status:     StatusConfirmed,
		CreatedAt:  r.now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.slots[booking.Slot()]; taken {
		return nil, ErrSlotTaken
	}
	r.slots[booking.Slot()] = booking.ID
	r.bookings[booking.ID] = booking

	out := *booking
	return &out, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *booking
	return &out, nil
}

// List returns bookings ordered by date then time.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Booking, error) {
	r.mu.RLock()
	out := make([]*Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		cp := *b
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (r *InMemoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.bookings)), nil
}

func (r *InMemoryRepository) BookedSlots(ctx context.Context, from string) ([]schedule.SlotKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]schedule.SlotKey, 0, len(r.slots))
	for key := range r.slots {
		if from != "" && key.Date < from {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}
