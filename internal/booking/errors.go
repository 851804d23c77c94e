package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/repository"
)

// ErrSessionNotFound is reported for tickets naming an unknown session.
var ErrSessionNotFound = repository.ErrSessionNotFound

// OutOfBoundsError reports a row or seat outside the hall grid.  Min and
// Max are the valid inclusive range for Field; the hall's full geometry
// is included so clients can redraw the grid.
type OutOfBoundsError struct {
	Field          string // "row" or "seat"
	Value          int
	Min            int
	Max            int
	HallRows       int
	HallSeatsInRow int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s must be between %d and %d, got %d", e.Field, e.Min, e.Max, e.Value)
}

// SeatTakenError reports a seat already held by a committed ticket, or
// claimed by an earlier ticket of the same order when InBatch is set.
type SeatTakenError struct {
	SessionID uint64
	Row       int
	Seat      int
	InBatch   bool
}

func (e *SeatTakenError) Error() string {
	if e.InBatch {
		return fmt.Sprintf("seat (%d,%d) of session %d is requested more than once in this order", e.Row, e.Seat, e.SessionID)
	}
	return fmt.Sprintf("seat (%d,%d) of session %d is already taken", e.Row, e.Seat, e.SessionID)
}

// EmptyOrderError is returned for an order without tickets.  No
// transaction is opened in that case.
type EmptyOrderError struct{}

func (*EmptyOrderError) Error() string { return "order must contain at least one ticket" }

// ConsistencyError signals a broken storage invariant detected at read
// time, such as more tickets than seats.  It is a defect, not a user
// error, and is always logged where it is raised.
type ConsistencyError struct {
	SessionID uint64
	Capacity  int
	Taken     int
	Detail    string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency violation in session %d: %s (capacity %d, taken %d)",
		e.SessionID, e.Detail, e.Capacity, e.Taken)
}

// TicketError ties one failure to the position of the ticket in the
// submitted list.  Field names the offending input: "row", "seat" or
// "movie_session".
type TicketError struct {
	Index     int
	SessionID uint64
	Row       int
	Seat      int
	Field     string
	Err       error
}

func (e *TicketError) Error() string {
	return fmt.Sprintf("ticket %d (%s): %v", e.Index, e.Field, e.Err)
}

func (e *TicketError) Unwrap() error { return e.Err }

// ValidationError aggregates every per-ticket failure of one order.
type ValidationError struct {
	Tickets []*TicketError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Tickets))
	for i, t := range e.Tickets {
		msgs[i] = t.Error()
	}
	return "order rejected: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the ticket errors so errors.As can reach the nested
// kinds (e.g. *SeatTakenError).
func (e *ValidationError) Unwrap() []error {
	out := make([]error, len(e.Tickets))
	for i, t := range e.Tickets {
		out[i] = t
	}
	return out
}

// OnlySeatTaken reports whether every failure is a *SeatTakenError,
// meaning the request was well-formed but lost against existing
// bookings or itself.
func (e *ValidationError) OnlySeatTaken() bool {
	if len(e.Tickets) == 0 {
		return false
	}
	for _, t := range e.Tickets {
		var st *SeatTakenError
		if !errors.As(t.Err, &st) {
			return false
		}
	}
	return true
}

func (e *ValidationError) add(te *TicketError) { e.Tickets = append(e.Tickets, te) }

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Tickets) == 0 {
		return nil
	}
	return e
}
