package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// DefaultCommitTimeout bounds one order transaction when no timeout is
// configured.
const DefaultCommitTimeout = 5 * time.Second

// Engine creates orders and their tickets as one atomic unit.
type Engine struct {
	store   Store
	log     *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithCommitTimeout bounds each CreateOrder transaction.
func WithCommitTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithClock replaces time.Now for order timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Store, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{store: store, log: log.Named("engine"), timeout: DefaultCommitTimeout, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateOrder validates every ticket against the committed state plus
// earlier tickets of the same list and, if all pass, writes one order
// and its tickets in one transaction.
//
// The referenced sessions are locked in ascending id order before
// anything is read, so concurrent commits on the same session serialize
// and cannot deadlock on each other.  The seat unique key is the second
// line of defence: a violation there is reported as *SeatTakenError like
// any other collision.  Errors are *EmptyOrderError, *ValidationError,
// context errors or wrapped store failures.
func (e *Engine) CreateOrder(ctx context.Context, userID uint64, reqs []TicketRequest) (*model.Order, error) {
	if len(reqs) == 0 {
		return nil, &EmptyOrderError{}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var order *model.Order
	err := e.store.WithTx(ctx, func(ctx context.Context) error {
		states, err := e.lockSessions(ctx, reqs)
		if err != nil {
			return err
		}
		if err := NewValidator(states).ValidateBatch(reqs); err != nil {
			return err
		}

		o := &model.Order{UserID: userID, CreatedAt: e.now().UTC().Truncate(time.Microsecond)}
		if err := e.store.InsertOrder(ctx, o); err != nil {
			return err
		}
		tickets := make([]model.Ticket, len(reqs))
		for i, r := range reqs {
			tickets[i] = model.Ticket{Row: r.Row, Seat: r.Seat, MovieSessionID: r.SessionID, OrderID: o.ID}
		}
		if err := e.store.InsertTickets(ctx, tickets); err != nil {
			return translateInsert(err, reqs)
		}
		o.Tickets = tickets
		order = o
		return nil
	})
	if err != nil {
		e.logFailure(userID, len(reqs), err)
		return nil, err
	}

	e.log.Info("order committed",
		zap.Uint64("order_id", order.ID),
		zap.Uint64("user_id", userID),
		zap.Int("tickets", len(order.Tickets)))
	return order, nil
}

// lockSessions locks each distinct session and snapshots its hall and
// taken seats inside the transaction.  Unknown sessions are left out of
// the result and reported by the validator.
func (e *Engine) lockSessions(ctx context.Context, reqs []TicketRequest) (map[uint64]SessionState, error) {
	ids := make([]uint64, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.SessionID)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	states := make(map[uint64]SessionState, len(ids))
	for _, id := range ids {
		hall, err := e.store.LockSessionHall(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lock session %d: %w", id, err)
		}
		seats, err := e.store.TakenSeats(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("taken seats of session %d: %w", id, err)
		}
		states[id] = SessionState{Hall: hall, Taken: NewSeatSet(seats)}
	}
	return states, nil
}

// translateInsert turns a unique key violation into the same error a
// pre-check collision produces.
func translateInsert(err error, reqs []TicketRequest) error {
	var dup *repository.DuplicateSeatError
	if !errors.As(err, &dup) {
		return err
	}
	r := reqs[dup.Index]
	return &ValidationError{Tickets: []*TicketError{{
		Index:     dup.Index,
		SessionID: r.SessionID,
		Row:       r.Row,
		Seat:      r.Seat,
		Field:     "seat",
		Err:       &SeatTakenError{SessionID: r.SessionID, Row: r.Row, Seat: r.Seat},
	}}}
}

func (e *Engine) logFailure(userID uint64, n int, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		e.log.Info("order rejected",
			zap.Uint64("user_id", userID),
			zap.Int("tickets", n),
			zap.Int("failures", len(verr.Tickets)))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		e.log.Warn("order aborted", zap.Uint64("user_id", userID), zap.Error(err))
	default:
		e.log.Error("order commit failed", zap.Uint64("user_id", userID), zap.Error(err))
	}
}
