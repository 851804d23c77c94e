package model

import "time"

// CinemaHall represents a screening hall and its seat grid.  Seat
// coordinates are 1-indexed: rows run from 1 to Rows and seats within
// a row from 1 to SeatsInRow.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – display name of the hall.
//  Rows       – number of seating rows (always > 0).
//  SeatsInRow – number of seats in every row (always > 0).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type CinemaHall struct {
	ID         uint64    `json:"id"`           // cinema_halls.id
	Name       string    `json:"name"`         // cinema_halls.name
	Rows       int       `json:"rows"`         // cinema_halls.rows_count
	SeatsInRow int       `json:"seats_in_row"` // cinema_halls.seats_in_row
	CreatedAt  time.Time `json:"-"`            // cinema_halls.created_at
	UpdatedAt  time.Time `json:"-"`            // cinema_halls.updated_at
}

// Capacity is the total number of seats in the hall.
func (h CinemaHall) Capacity() int {
	return h.Rows * h.SeatsInRow
}

// RowInRange reports whether row lies within [1, Rows].
func (h CinemaHall) RowInRange(row int) bool {
	return row >= 1 && row <= h.Rows
}

// SeatInRange reports whether seat lies within [1, SeatsInRow].
func (h CinemaHall) SeatInRange(seat int) bool {
	return seat >= 1 && seat <= h.SeatsInRow
}

// Contains reports whether the coordinate exists in the hall grid.
func (h CinemaHall) Contains(s Seat) bool {
	return h.RowInRange(s.Row) && h.SeatInRange(s.Seat)
}
