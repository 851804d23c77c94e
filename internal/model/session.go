package model

import "time"

// MovieSession represents a scheduled screening of a movie in a
// particular hall.  The session's seat space is exactly the hall grid.
//
// Fields:
//  ID           – primary key identifier.
//  MovieID      – movie being screened.
//  CinemaHallID – hall where the session takes place.
//  ShowTime     – when the session starts (UTC).
type MovieSession struct {
	ID           uint64    // movie_sessions.id
	MovieID      uint64    // movie_sessions.movie_id
	CinemaHallID uint64    // movie_sessions.cinema_hall_id
	ShowTime     time.Time // movie_sessions.show_time
}

// SessionListItem is the list-view projection of a session.  Capacity
// and Taken are aggregated by the store; TicketsAvailable is derived
// from them by the availability tracker.
type SessionListItem struct {
	ID               uint64    `json:"id"`
	ShowTime         time.Time `json:"show_time"`
	MovieTitle       string    `json:"movie_title"`
	CinemaHallName   string    `json:"cinema_hall_name"`
	CinemaHallCap    int       `json:"cinema_hall_capacity"`
	TicketsAvailable int       `json:"tickets_available"`
	Taken            int       `json:"-"`
}
