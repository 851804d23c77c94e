package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// SessionFilter narrows List.  A zero MovieID or empty Date disables the
// corresponding filter.  Date is YYYY-MM-DD and matches the UTC date of
// show_time.
type SessionFilter struct {
	MovieID uint64
	Date    string
}

// SessionRepo provides CRUD access to movie_sessions and the aggregated
// list projection.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// listSelect aggregates capacity and committed ticket count per session
// in one pass.  The available figure is derived from these by the
// caller so that a negative result can be reported as a consistency
// error instead of being rendered.
const listSelect = `SELECT s.id, s.show_time, m.title, h.name,
		h.rows_count * h.seats_in_row AS capacity,
		COUNT(t.id) AS taken
	FROM movie_sessions s
	JOIN movies m       ON m.id = s.movie_id
	JOIN cinema_halls h ON h.id = s.cinema_hall_id
	LEFT JOIN tickets t ON t.movie_session_id = s.id
	WHERE `

const listGroup = ` GROUP BY s.id, s.show_time, m.title, h.name, h.rows_count, h.seats_in_row`

// List returns list-view rows ordered by show time.
func (r *SessionRepo) List(ctx context.Context, f SessionFilter) ([]model.SessionListItem, error) {
	where := []string{}
	args := []any{}
	if f.MovieID != 0 {
		where = append(where, "s.movie_id = ?")
		args = append(args, f.MovieID)
	}
	if f.Date != "" {
		where = append(where, "DATE(s.show_time) = ?")
		args = append(args, f.Date)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	return r.queryItems(ctx, listSelect+cond+listGroup+` ORDER BY s.show_time, s.id`, args...)
}

// ListItemsByIDs returns list-view rows for the given session ids keyed
// by id.  Unknown ids are absent from the map.
func (r *SessionRepo) ListItemsByIDs(ctx context.Context, ids []uint64) (map[uint64]model.SessionListItem, error) {
	out := make(map[uint64]model.SessionListItem, len(ids))
	ids = dedupe(ids)
	if len(ids) == 0 {
		return out, nil
	}
	items, err := r.queryItems(ctx, listSelect+`s.id IN (`+placeholders(len(ids))+`)`+listGroup, appendIDs(nil, ids)...)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r *SessionRepo) queryItems(ctx context.Context, query string, args ...any) ([]model.SessionListItem, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SessionListItem{}
	for rows.Next() {
		var it model.SessionListItem
		if err := rows.Scan(&it.ID, &it.ShowTime, &it.MovieTitle, &it.CinemaHallName, &it.CinemaHallCap, &it.Taken); err != nil {
			return nil, err
		}
		it.ShowTime = it.ShowTime.UTC()
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetByID returns ErrSessionNotFound when no row matches.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (model.MovieSession, error) {
	var s model.MovieSession
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, movie_id, cinema_hall_id, show_time FROM movie_sessions WHERE id = ?`, id).
		Scan(&s.ID, &s.MovieID, &s.CinemaHallID, &s.ShowTime)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrSessionNotFound
	}
	s.ShowTime = s.ShowTime.UTC()
	return s, err
}

// Create inserts a session.  Unknown movie or hall ids yield
// ErrUnknownReference.
func (r *SessionRepo) Create(ctx context.Context, s *model.MovieSession) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movie_sessions (movie_id, cinema_hall_id, show_time) VALUES (?, ?, ?)`,
		s.MovieID, s.CinemaHallID, s.ShowTime.UTC())
	if err != nil {
		if isMissingReference(err) {
			return ErrUnknownReference
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Update moves a session to another movie, hall or time.  Moving a
// session that already has tickets to a different hall is rejected with
// ErrConflict because the tickets' coordinates belong to the old grid.
func (r *SessionRepo) Update(ctx context.Context, s model.MovieSession) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		q := conn(ctx, r.db)
		var hallID uint64
		err := q.QueryRowContext(ctx, `SELECT cinema_hall_id FROM movie_sessions WHERE id = ? FOR UPDATE`, s.ID).Scan(&hallID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		if hallID != s.CinemaHallID {
			var sold bool
			if err := q.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM tickets WHERE movie_session_id = ?)`, s.ID).Scan(&sold); err != nil {
				return err
			}
			if sold {
				return ErrConflict
			}
		}
		_, err = q.ExecContext(ctx,
			`UPDATE movie_sessions SET movie_id = ?, cinema_hall_id = ?, show_time = ? WHERE id = ?`,
			s.MovieID, s.CinemaHallID, s.ShowTime.UTC(), s.ID)
		if isMissingReference(err) {
			return ErrUnknownReference
		}
		return err
	})
}

// Delete removes a session.  Sessions with sold tickets are kept
// (ON DELETE RESTRICT) and yield ErrConflict.
func (r *SessionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movie_sessions WHERE id = ?`, id)
	if err != nil {
		if isRowReferenced(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ParseDate validates a YYYY-MM-DD filter value.
func ParseDate(s string) (string, bool) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return "", false
	}
	return t.Format(time.DateOnly), true
}
