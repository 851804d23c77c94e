package booking

import (
	"context"
	"slices"
	"sync"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

type memTxKey struct{}

// memStore is an in-memory Store.  Transactions are serialized by txMu,
// which plays the role of the session row locks; the seat uniqueness
// check in InsertTickets plays the role of the unique key.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	halls   map[uint64]model.CinemaHall // keyed by session id
	orders  []model.Order
	tickets []model.Ticket
	nextID  uint64

	// staleReads makes TakenSeats report nothing, as if the read raced
	// with another commit; only the unique check can then catch a clash.
	staleReads bool
	txCount    int
	locked     []uint64
}

func newMemStore() *memStore {
	return &memStore{halls: map[uint64]model.CinemaHall{}}
}

func (s *memStore) addSession(sessionID uint64, hall model.CinemaHall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halls[sessionID] = hall
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.txCount++
	orders := slices.Clone(s.orders)
	tickets := slices.Clone(s.tickets)
	s.mu.Unlock()

	err := fn(context.WithValue(ctx, memTxKey{}, true))
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.mu.Lock()
		s.orders, s.tickets = orders, tickets
		s.mu.Unlock()
	}
	return err
}

func (s *memStore) SessionHall(_ context.Context, id uint64) (model.CinemaHall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.halls[id]
	if !ok {
		return h, repository.ErrSessionNotFound
	}
	return h, nil
}

func (s *memStore) LockSessionHall(ctx context.Context, id uint64) (model.CinemaHall, error) {
	if ctx.Value(memTxKey{}) == nil {
		panic("LockSessionHall outside transaction")
	}
	s.mu.Lock()
	s.locked = append(s.locked, id)
	s.mu.Unlock()
	return s.SessionHall(ctx, id)
}

func (s *memStore) TakenSeats(_ context.Context, id uint64) ([]model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Seat{}
	if s.staleReads {
		return out, nil
	}
	for _, t := range s.tickets {
		if t.MovieSessionID == id {
			out = append(out, t.Coordinate())
		}
	}
	return out, nil
}

func (s *memStore) CountTickets(ctx context.Context, id uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tickets {
		if t.MovieSessionID == id {
			n++
		}
	}
	return n, nil
}

func (s *memStore) InsertOrder(_ context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	o.ID = s.nextID
	s.orders = append(s.orders, *o)
	return nil
}

func (s *memStore) InsertTickets(_ context.Context, tickets []model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range tickets {
		t := &tickets[i]
		for _, existing := range s.tickets {
			if existing.MovieSessionID == t.MovieSessionID && existing.Row == t.Row && existing.Seat == t.Seat {
				return &repository.DuplicateSeatError{Index: i, SessionID: t.MovieSessionID, Row: t.Row, Seat: t.Seat}
			}
		}
		s.nextID++
		t.ID = s.nextID
		s.tickets = append(s.tickets, *t)
	}
	return nil
}

func (s *memStore) counts() (orders, tickets int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders), len(s.tickets)
}

// forceTicket bypasses validation to simulate historical bad data.
func (s *memStore) forceTicket(sessionID uint64, row, seat int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.tickets = append(s.tickets, model.Ticket{ID: s.nextID, MovieSessionID: sessionID, Row: row, Seat: seat})
}
