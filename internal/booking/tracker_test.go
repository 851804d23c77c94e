package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/cinema-booking/internal/model"
)

func TestTrackerAvailability(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addSession(7, hall5x8)
	store.forceTicket(7, 2, 3)
	store.forceTicket(7, 1, 1)
	store.forceTicket(8, 1, 1)

	tr := NewTracker(store, zap.NewNop())

	av, err := tr.GetAvailability(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []model.Seat{{Row: 1, Seat: 1}, {Row: 2, Seat: 3}}, av.TakenSeats)
	assert.Equal(t, 38, av.AvailableCount)
	assert.Equal(t, hall5x8.Capacity(), av.AvailableCount+len(av.TakenSeats))

	n, err := tr.AvailableCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 38, n)

	sum, err := tr.GetAvailabilitySummary(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, AvailabilitySummary{SessionID: 7, Capacity: 40, TicketsAvailable: 38}, sum)

	det, err := tr.GetAvailabilityDetail(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, hall5x8, det.Hall)
	assert.Equal(t, av.TakenSeats, det.TakenPlaces)
	assert.Equal(t, 38, det.TicketsAvailable)
}

func TestTrackerTakenSeatsIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addSession(7, hall5x8)
	tr := NewTracker(store, nil)

	before, err := tr.TakenSeats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, before.Len())

	store.forceTicket(7, 3, 3)
	after, err := tr.TakenSeats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Len())
	assert.Equal(t, 0, before.Len())
}

func TestTrackerUnknownSession(t *testing.T) {
	_, err := NewTracker(newMemStore(), nil).GetAvailability(context.Background(), 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTrackerNegativeCountIsConsistencyError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	store := newMemStore()
	store.addSession(7, model.CinemaHall{ID: 1, Rows: 1, SeatsInRow: 1})
	store.forceTicket(7, 1, 1)
	store.forceTicket(7, 1, 2)
	tr := NewTracker(store, zap.New(core))

	_, err := tr.AvailableCount(context.Background(), 7)
	var ce *ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Capacity)
	assert.Equal(t, 2, ce.Taken)
	assert.Equal(t, 1, logs.FilterMessage("negative availability").Len())
}

func TestTrackerDuplicateSeatsIsConsistencyError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	store := newMemStore()
	store.addSession(7, hall5x8)
	store.forceTicket(7, 1, 1)
	store.forceTicket(7, 1, 1)

	_, err := NewTracker(store, zap.New(core)).GetAvailabilityDetail(context.Background(), 7)
	var ce *ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, logs.Len())
}

func TestRemaining(t *testing.T) {
	tr := NewTracker(newMemStore(), nil)

	n, err := tr.Remaining(3, 40, 40)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = tr.Remaining(3, 40, 41)
	var ce *ConsistencyError
	assert.ErrorAs(t, err, &ce)
}
