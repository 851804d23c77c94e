package booking

import (
	"github.com/iliyamo/cinema-booking/internal/model"
)

// TicketRequest is one proposed ticket of an order.
type TicketRequest struct {
	SessionID uint64
	Row       int
	Seat      int
}

// SessionState is what validation needs to know about one session: its
// hall and the seats committed so far.
type SessionState struct {
	Hall  model.CinemaHall
	Taken SeatSet
}

// Validator checks proposed tickets against hall geometry and taken
// seats.  It never writes: validating a seat does not reserve it.
type Validator struct {
	sessions map[uint64]SessionState
}

// NewValidator returns a validator over the given session snapshots.
// Sessions absent from the map are treated as unknown.
func NewValidator(sessions map[uint64]SessionState) *Validator {
	return &Validator{sessions: sessions}
}

// Validate checks a single ticket against committed state only.  It
// returns ErrSessionNotFound, *OutOfBoundsError or *SeatTakenError.
func (v *Validator) Validate(req TicketRequest) error {
	st, ok := v.sessions[req.SessionID]
	if !ok {
		return ErrSessionNotFound
	}
	return checkSeat(req, st)
}

// ValidateBatch validates reqs in list order.  A seat claimed by an
// earlier ticket of the batch counts as taken for later ones, so the
// second occurrence of a duplicate is the one rejected.  Tickets that
// fail a bounds check or name an unknown session claim nothing.  Every
// failure is collected; the result is nil or a *ValidationError.
func (v *Validator) ValidateBatch(reqs []TicketRequest) error {
	verr := &ValidationError{}
	claimed := make(map[uint64]map[model.Seat]struct{})

	for i, req := range reqs {
		te := &TicketError{Index: i, SessionID: req.SessionID, Row: req.Row, Seat: req.Seat}
		st, ok := v.sessions[req.SessionID]
		if !ok {
			te.Field, te.Err = "movie_session", ErrSessionNotFound
			verr.add(te)
			continue
		}
		if err := checkSeat(req, st); err != nil {
			te.Field, te.Err = fieldOf(err), err
			verr.add(te)
			continue
		}
		seat := model.Seat{Row: req.Row, Seat: req.Seat}
		batch := claimed[req.SessionID]
		if batch == nil {
			batch = make(map[model.Seat]struct{})
			claimed[req.SessionID] = batch
		}
		if _, dup := batch[seat]; dup {
			te.Field = "seat"
			te.Err = &SeatTakenError{SessionID: req.SessionID, Row: req.Row, Seat: req.Seat, InBatch: true}
			verr.add(te)
			continue
		}
		batch[seat] = struct{}{}
	}
	return verr.orNil()
}

func checkSeat(req TicketRequest, st SessionState) error {
	h := st.Hall
	if !h.RowInRange(req.Row) {
		return &OutOfBoundsError{Field: "row", Value: req.Row, Min: 1, Max: h.Rows, HallRows: h.Rows, HallSeatsInRow: h.SeatsInRow}
	}
	if !h.SeatInRange(req.Seat) {
		return &OutOfBoundsError{Field: "seat", Value: req.Seat, Min: 1, Max: h.SeatsInRow, HallRows: h.Rows, HallSeatsInRow: h.SeatsInRow}
	}
	if st.Taken.Contains(model.Seat{Row: req.Row, Seat: req.Seat}) {
		return &SeatTakenError{SessionID: req.SessionID, Row: req.Row, Seat: req.Seat}
	}
	return nil
}

func fieldOf(err error) string {
	if ob, ok := err.(*OutOfBoundsError); ok {
		return ob.Field
	}
	return "seat"
}
