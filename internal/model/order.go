package model

import "time"

// Seat is a coordinate in a hall grid.  Row and Seat are 1-indexed.
type Seat struct {
	Row  int `json:"row"`
	Seat int `json:"seat"`
}

// Less orders seats by row, then by seat number.
func (s Seat) Less(o Seat) bool {
	if s.Row != o.Row {
		return s.Row < o.Row
	}
	return s.Seat < o.Seat
}

// Ticket binds a seat of a movie session to an order.  Tickets are
// created only as part of an order commit and are never updated in
// place; deleting the owning order deletes them.
//
// Fields:
//  ID             – primary key identifier.
//  Row            – 1-indexed row number.
//  Seat           – 1-indexed seat number within the row.
//  MovieSessionID – the session this ticket admits to.
//  OrderID        – owning order.
type Ticket struct {
	ID             uint64 // tickets.id
	Row            int    // tickets.row_num
	Seat           int    // tickets.seat_num
	MovieSessionID uint64 // tickets.movie_session_id
	OrderID        uint64 // tickets.order_id
}

// Coordinate returns the ticket's seat coordinate.
func (t Ticket) Coordinate() Seat {
	return Seat{Row: t.Row, Seat: t.Seat}
}

// Order groups one or more tickets bought by a user in one commit.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owning user.
//  CreatedAt – commit timestamp (UTC).
//  Tickets   – tickets owned by this order.
type Order struct {
	ID        uint64    // orders.id
	UserID    uint64    // orders.user_id
	CreatedAt time.Time // orders.created_at
	Tickets   []Ticket  // tickets.order_id = orders.id
}
