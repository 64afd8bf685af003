package bookings

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/padel-booking/internal/schedule"
)

func TestInMemoryRepositoryCreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	booking, err := repo.Create(ctx, validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, StatusConfirmed, booking.Status)
	assert.False(t, booking.CreatedAt.IsZero())

	got, err := repo.Get(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking, got)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryRepositoryRejectsTakenSlot(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, validRequest())
	require.NoError(t, err)

	dup := validRequest()
	dup.Name = "Bob"
	_, err = repo.Create(ctx, dup)
	assert.ErrorIs(t, err, ErrSlotTaken)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestInMemoryRepositoryConcurrentCreateSameSlot(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, validRequest())
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			} else if !errors.Is(err, ErrSlotTaken) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)
}

func TestInMemoryRepositoryListOrderAndSlots(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for _, slot := range []schedule.SlotKey{
		{Date: "2025-06-11", Time: "09:00"},
		{Date: "2025-06-10", Time: "18:00"},
		{Date: "2025-06-10", Time: "10:00"},
	} {
		req := validRequest()
		req.Date, req.Time = slot.Date, slot.Time
		_, err := repo.Create(ctx, req)
		require.NoError(t, err)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, schedule.SlotKey{Date: "2025-06-10", Time: "10:00"}, list[0].Slot())
	assert.Equal(t, schedule.SlotKey{Date: "2025-06-10", Time: "18:00"}, list[1].Slot())
	assert.Equal(t, schedule.SlotKey{Date: "2025-06-11", Time: "09:00"}, list[2].Slot())

	slots, err := repo.BookedSlots(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []schedule.SlotKey{
		{Date: "2025-06-11", Time: "09:00"},
		{Date: "2025-06-10", Time: "18:00"},
		{Date: "2025-06-10", Time: "10:00"},
	}, slots)

	slots, err = repo.BookedSlots(ctx, "2025-06-11")
	require.NoError(t, err)
	assert.Equal(t, []schedule.SlotKey{{Date: "2025-06-11", Time: "09:00"}}, slots)
}
