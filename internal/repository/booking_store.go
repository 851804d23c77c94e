package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// BookingStore is the durable store behind the availability tracker and
// the order commit engine.  Every method runs on the transaction carried
// by ctx when WithTx opened one, and directly on the pool otherwise.
type BookingStore struct {
	db *sql.DB
}

func NewBookingStore(db *sql.DB) *BookingStore { return &BookingStore{db: db} }

// WithTx runs fn in one transaction; any error rolls everything back.
func (s *BookingStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.db, fn)
}

const sessionHallSelect = `SELECT h.id, h.name, h.rows_count, h.seats_in_row
	FROM movie_sessions s
	JOIN cinema_halls h ON h.id = s.cinema_hall_id
	WHERE s.id = ?`

// SessionHall resolves the hall a session is screened in.
func (s *BookingStore) SessionHall(ctx context.Context, sessionID uint64) (model.CinemaHall, error) {
	return s.sessionHall(ctx, sessionHallSelect, sessionID)
}

// LockSessionHall is SessionHall with the session and hall rows locked
// until the surrounding transaction ends.  Concurrent commits touching
// the same session serialize here.
func (s *BookingStore) LockSessionHall(ctx context.Context, sessionID uint64) (model.CinemaHall, error) {
	if !InTx(ctx) {
		return model.CinemaHall{}, errors.New("lock session hall: no transaction in context")
	}
	return s.sessionHall(ctx, sessionHallSelect+` FOR UPDATE`, sessionID)
}

func (s *BookingStore) sessionHall(ctx context.Context, query string, sessionID uint64) (model.CinemaHall, error) {
	var h model.CinemaHall
	err := conn(ctx, s.db).QueryRowContext(ctx, query, sessionID).Scan(&h.ID, &h.Name, &h.Rows, &h.SeatsInRow)
	if errors.Is(err, sql.ErrNoRows) {
		return h, ErrSessionNotFound
	}
	return h, err
}

// TakenSeats returns the coordinates of committed tickets ordered by row
// then seat.
func (s *BookingStore) TakenSeats(ctx context.Context, sessionID uint64) ([]model.Seat, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx,
		`SELECT row_num, seat_num FROM tickets WHERE movie_session_id = ? ORDER BY row_num, seat_num`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Seat{}
	for rows.Next() {
		var st model.Seat
		if err := rows.Scan(&st.Row, &st.Seat); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// CountTickets counts committed tickets for a session.
func (s *BookingStore) CountTickets(ctx context.Context, sessionID uint64) (int, error) {
	var n int
	err := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE movie_session_id = ?`, sessionID).Scan(&n)
	return n, err
}

// InsertOrder inserts o and sets its ID.
func (s *BookingStore) InsertOrder(ctx context.Context, o *model.Order) error {
	res, err := conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO orders (user_id, created_at) VALUES (?, ?)`, o.UserID, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// InsertTickets inserts tickets one by one with a prepared statement so
// a unique key violation can be attributed to the offending ticket.  It
// returns *DuplicateSeatError in that case; IDs are set on success.
func (s *BookingStore) InsertTickets(ctx context.Context, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	stmt, err := conn(ctx, s.db).PrepareContext(ctx,
		`INSERT INTO tickets (movie_session_id, order_id, row_num, seat_num) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range tickets {
		t := &tickets[i]
		res, err := stmt.ExecContext(ctx, t.MovieSessionID, t.OrderID, t.Row, t.Seat)
		if err != nil {
			if IsDuplicateKey(err) {
				return &DuplicateSeatError{Index: i, SessionID: t.MovieSessionID, Row: t.Row, Seat: t.Seat}
			}
			return fmt.Errorf("insert ticket %d: %w", i, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		t.ID = uint64(id)
	}
	return nil
}
