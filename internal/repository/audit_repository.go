package repository

import (
	"context"
	"database/sql"
)

// SessionLoad is a session whose committed tickets were counted against
// its hall capacity.
type SessionLoad struct {
	SessionID uint64
	Capacity  int
	Taken     int
}

// OrphanTicket is a ticket whose coordinate lies outside the current
// geometry of its session's hall.
type OrphanTicket struct {
	TicketID   uint64
	SessionID  uint64
	Row        int
	Seat       int
	Rows       int
	SeatsInRow int
}

// AuditRepo runs read-only invariant checks over the whole store.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// OverbookedSessions lists sessions holding more tickets than seats.
func (r *AuditRepo) OverbookedSessions(ctx context.Context) ([]SessionLoad, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT s.id, h.rows_count * h.seats_in_row, COUNT(t.id)
		FROM movie_sessions s
		JOIN cinema_halls h ON h.id = s.cinema_hall_id
		JOIN tickets t      ON t.movie_session_id = s.id
		GROUP BY s.id, h.rows_count, h.seats_in_row
		HAVING COUNT(t.id) > h.rows_count * h.seats_in_row
		ORDER BY s.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionLoad
	for rows.Next() {
		var l SessionLoad
		if err := rows.Scan(&l.SessionID, &l.Capacity, &l.Taken); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// OrphanTickets lists tickets outside their hall's grid, at most limit.
func (r *AuditRepo) OrphanTickets(ctx context.Context, limit int) ([]OrphanTicket, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT t.id, t.movie_session_id, t.row_num, t.seat_num, h.rows_count, h.seats_in_row
		FROM tickets t
		JOIN movie_sessions s ON s.id = t.movie_session_id
		JOIN cinema_halls h   ON h.id = s.cinema_hall_id
		WHERE t.row_num < 1 OR t.row_num > h.rows_count OR t.seat_num < 1 OR t.seat_num > h.seats_in_row
		ORDER BY t.id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrphanTicket
	for rows.Next() {
		var o OrphanTicket
		if err := rows.Scan(&o.TicketID, &o.SessionID, &o.Row, &o.Seat, &o.Rows, &o.SeatsInRow); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
