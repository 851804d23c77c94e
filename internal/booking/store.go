package booking

import (
	"context"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// SessionReader is the read side of the ticket store.  Implementations
// must use the transaction carried by ctx when there is one.
type SessionReader interface {
	// SessionHall returns the session's hall or ErrSessionNotFound.
	SessionHall(ctx context.Context, sessionID uint64) (model.CinemaHall, error)
	// TakenSeats returns the coordinates of committed tickets.
	TakenSeats(ctx context.Context, sessionID uint64) ([]model.Seat, error)
	// CountTickets counts committed tickets.
	CountTickets(ctx context.Context, sessionID uint64) (int, error)
}

// Store is everything the commit engine needs.  repository.BookingStore
// is the MySQL implementation.
type Store interface {
	SessionReader
	// WithTx runs fn inside one transaction carried by the ctx given to
	// fn.  Returning an error rolls back every write made through it.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LockSessionHall is SessionHall holding a row lock on the session
	// until the transaction ends.
	LockSessionHall(ctx context.Context, sessionID uint64) (model.CinemaHall, error)
	InsertOrder(ctx context.Context, o *model.Order) error
	// InsertTickets returns *repository.DuplicateSeatError when a ticket
	// violates the per-session seat uniqueness constraint.
	InsertTickets(ctx context.Context, tickets []model.Ticket) error
}
