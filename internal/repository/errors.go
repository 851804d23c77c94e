// Package repository holds the MySQL data access layer.  Sentinel errors
// defined here let handlers and the booking engine tell failure scenarios
// apart without inspecting driver errors.  ErrConflict signals that an
// operation cannot proceed because of dependent records (e.g. changing
// the geometry of a hall that sessions already reference).
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrForbidden is returned when the caller attempts an operation on a
	// resource they do not own.  Handlers translate it into 403.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when an update or delete cannot proceed
	// because of conflicting state.  Handlers translate it into 409.
	ErrConflict = errors.New("conflict")

	ErrGenreNotFound   = errors.New("genre not found")
	ErrActorNotFound   = errors.New("actor not found")
	ErrHallNotFound    = errors.New("cinema hall not found")
	ErrMovieNotFound   = errors.New("movie not found")
	ErrSessionNotFound = errors.New("movie session not found")
	ErrOrderNotFound   = errors.New("order not found")

	ErrGenreExists   = errors.New("genre already exists")
	ErrEmailExists   = errors.New("email already exists")
	ErrDuplicateSeat = errors.New("seat already booked for this session")

	// ErrUnknownReference is returned when a write names a related row
	// (genre, actor, movie, hall) that does not exist.
	ErrUnknownReference = errors.New("referenced record does not exist")
)

// DuplicateSeatError reports which ticket of an insert batch hit the
// (movie_session_id, row_num, seat_num) unique key.
type DuplicateSeatError struct {
	Index     int
	SessionID uint64
	Row       int
	Seat      int
}

func (e *DuplicateSeatError) Error() string {
	return fmt.Sprintf("ticket %d: seat (%d,%d) of session %d: %v", e.Index, e.Row, e.Seat, e.SessionID, ErrDuplicateSeat)
}

func (e *DuplicateSeatError) Unwrap() error { return ErrDuplicateSeat }

// MySQL server error numbers the repositories translate.
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// IsDuplicateKey reports whether err is a unique key violation.
func IsDuplicateKey(err error) bool { return mysqlErrNumber(err) == mysqlDuplicateEntry }

func isRowReferenced(err error) bool { return mysqlErrNumber(err) == mysqlRowIsReferenced }

func isMissingReference(err error) bool { return mysqlErrNumber(err) == mysqlNoReferencedRow }
