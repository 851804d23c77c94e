package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/model"
)

func newEngineFixture() (*Engine, *memStore, *Tracker) {
	store := newMemStore()
	store.addSession(7, hall5x8)
	return NewEngine(store, zap.NewNop()), store, NewTracker(store, zap.NewNop())
}

func seats(sessionID uint64, coords ...[2]int) []TicketRequest {
	out := make([]TicketRequest, len(coords))
	for i, c := range coords {
		out[i] = TicketRequest{SessionID: sessionID, Row: c[0], Seat: c[1]}
	}
	return out
}

func available(t *testing.T, tr *Tracker, id uint64) int {
	t.Helper()
	n, err := tr.AvailableCount(context.Background(), id)
	require.NoError(t, err)
	return n
}

func TestCreateOrderScenario(t *testing.T) {
	ctx := context.Background()
	engine, store, tr := newEngineFixture()

	order, err := engine.CreateOrder(ctx, 1, seats(7, [2]int{1, 1}, [2]int{1, 2}))
	require.NoError(t, err)
	require.Len(t, order.Tickets, 2)
	assert.NotZero(t, order.ID)
	assert.Equal(t, uint64(1), order.UserID)
	for _, tk := range order.Tickets {
		assert.Equal(t, order.ID, tk.OrderID)
		assert.NotZero(t, tk.ID)
	}
	assert.Equal(t, 38, available(t, tr, 7))

	_, err = engine.CreateOrder(ctx, 2, seats(7, [2]int{1, 2}, [2]int{2, 3}))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Tickets, 1)
	assert.Equal(t, 0, verr.Tickets[0].Index)
	var st *SeatTakenError
	require.ErrorAs(t, err, &st)
	assert.Equal(t, model.Seat{Row: 1, Seat: 2}, model.Seat{Row: st.Row, Seat: st.Seat})
	assert.Equal(t, 38, available(t, tr, 7))

	_, err = engine.CreateOrder(ctx, 3, seats(7, [2]int{1, 3}, [2]int{1, 3}))
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Tickets, 1)
	assert.Equal(t, 1, verr.Tickets[0].Index)
	require.ErrorAs(t, err, &st)
	assert.True(t, st.InBatch)

	orders, tickets := store.counts()
	assert.Equal(t, 1, orders)
	assert.Equal(t, 2, tickets)
	assert.Equal(t, 38, available(t, tr, 7))
}

func TestCreateOrderOutOfBoundsReportsRange(t *testing.T) {
	engine, store, _ := newEngineFixture()

	_, err := engine.CreateOrder(context.Background(), 1, seats(7, [2]int{6, 1}))
	var ob *OutOfBoundsError
	require.ErrorAs(t, err, &ob)
	assert.Equal(t, "row", ob.Field)
	assert.Equal(t, 1, ob.Min)
	assert.Equal(t, 5, ob.Max)

	orders, tickets := store.counts()
	assert.Zero(t, orders)
	assert.Zero(t, tickets)
}

func TestCreateOrderEmptyOpensNoTransaction(t *testing.T) {
	engine, store, _ := newEngineFixture()

	_, err := engine.CreateOrder(context.Background(), 1, nil)
	var empty *EmptyOrderError
	require.ErrorAs(t, err, &empty)
	assert.Zero(t, store.txCount)
}

func TestCreateOrderAtomicity(t *testing.T) {
	engine, store, tr := newEngineFixture()

	_, err := engine.CreateOrder(context.Background(), 1,
		seats(7, [2]int{1, 1}, [2]int{2, 2}, [2]int{3, 3}, [2]int{3, 9}))
	require.Error(t, err)

	orders, tickets := store.counts()
	assert.Zero(t, orders)
	assert.Zero(t, tickets)
	assert.Equal(t, 40, available(t, tr, 7))
}

func TestCreateOrderUnknownSession(t *testing.T) {
	engine, _, _ := newEngineFixture()

	_, err := engine.CreateOrder(context.Background(), 1, []TicketRequest{
		{SessionID: 7, Row: 1, Seat: 1},
		{SessionID: 404, Row: 1, Seat: 1},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Tickets, 1)
	assert.Equal(t, "movie_session", verr.Tickets[0].Field)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCreateOrderLocksSessionsInAscendingOrder(t *testing.T) {
	engine, store, _ := newEngineFixture()
	store.addSession(3, hall5x8)
	store.addSession(11, hall5x8)

	_, err := engine.CreateOrder(context.Background(), 1, []TicketRequest{
		{SessionID: 11, Row: 1, Seat: 1},
		{SessionID: 3, Row: 1, Seat: 1},
		{SessionID: 7, Row: 1, Seat: 1},
		{SessionID: 3, Row: 1, Seat: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 7, 11}, store.locked)
}

func TestCreateOrderTranslatesUniqueViolation(t *testing.T) {
	engine, store, _ := newEngineFixture()
	_, err := engine.CreateOrder(context.Background(), 1, seats(7, [2]int{4, 4}))
	require.NoError(t, err)

	store.staleReads = true
	_, err = engine.CreateOrder(context.Background(), 2, seats(7, [2]int{4, 5}, [2]int{4, 4}))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Tickets, 1)
	assert.Equal(t, 1, verr.Tickets[0].Index)
	var st *SeatTakenError
	require.ErrorAs(t, err, &st)
	assert.False(t, st.InBatch)

	store.staleReads = false
	orders, tickets := store.counts()
	assert.Equal(t, 1, orders)
	assert.Equal(t, 1, tickets)
}

func TestCreateOrderConcurrentCollision(t *testing.T) {
	engine, store, _ := newEngineFixture()

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		taken     int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := engine.CreateOrder(context.Background(), user, seats(7, [2]int{3, 4}))
			mu.Lock()
			defer mu.Unlock()
			var st *SeatTakenError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &st):
				taken++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, taken)
	_, tickets := store.counts()
	assert.Equal(t, 1, tickets)
}

func TestCreateOrderNoDoubleBookingUnderLoad(t *testing.T) {
	engine, store, tr := newEngineFixture()

	var wg sync.WaitGroup
	for user := uint64(1); user <= 20; user++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			row := int(user%5) + 1
			_, _ = engine.CreateOrder(context.Background(), user,
				seats(7, [2]int{row, 1}, [2]int{row, 2}, [2]int{(row % 5) + 1, 3}))
		}(user)
	}
	wg.Wait()

	taken, err := store.TakenSeats(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, len(taken), NewSeatSet(taken).Len())
	assert.Equal(t, 40, available(t, tr, 7)+len(taken))
}

func TestCreateOrderCancelledContextRollsBack(t *testing.T) {
	engine, store, _ := newEngineFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.CreateOrder(ctx, 1, seats(7, [2]int{1, 1}))
	assert.ErrorIs(t, err, context.Canceled)
	orders, tickets := store.counts()
	assert.Zero(t, orders)
	assert.Zero(t, tickets)
}

func TestCreateOrderUsesClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 18, 30, 0, 0, time.FixedZone("X", 3600))
	store := newMemStore()
	store.addSession(7, hall5x8)
	engine := NewEngine(store, nil, WithClock(func() time.Time { return fixed }), WithCommitTimeout(time.Second))

	order, err := engine.CreateOrder(context.Background(), 1, seats(7, [2]int{1, 1}))
	require.NoError(t, err)
	assert.True(t, order.CreatedAt.Equal(fixed))
	assert.Equal(t, time.UTC, order.CreatedAt.Location())
	assert.Equal(t, time.Second, engine.timeout)
}
