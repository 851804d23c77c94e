package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// HallRepo provides methods to create, retrieve and modify cinema halls.
type HallRepo struct {
	db *sql.DB
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

const hallColumns = `id, name, rows_count, seats_in_row, created_at, updated_at`

func scanHall(row interface{ Scan(...any) error }, h *model.CinemaHall) error {
	return row.Scan(&h.ID, &h.Name, &h.Rows, &h.SeatsInRow, &h.CreatedAt, &h.UpdatedAt)
}

// Create inserts a new hall and reads it back so timestamps are set.
func (r *HallRepo) Create(ctx context.Context, h *model.CinemaHall) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cinema_halls (name, rows_count, seats_in_row) VALUES (?, ?, ?)`,
		h.Name, h.Rows, h.SeatsInRow)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*h = created
	return nil
}

// GetByID returns ErrHallNotFound when no row matches.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (model.CinemaHall, error) {
	var h model.CinemaHall
	err := scanHall(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+hallColumns+` FROM cinema_halls WHERE id = ?`, id), &h)
	if errors.Is(err, sql.ErrNoRows) {
		return h, ErrHallNotFound
	}
	return h, err
}

// List returns every hall ordered by id.
func (r *HallRepo) List(ctx context.Context) ([]model.CinemaHall, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+hallColumns+` FROM cinema_halls ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CinemaHall{}
	for rows.Next() {
		var h model.CinemaHall
		if err := scanHall(rows, &h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Update writes name and geometry.  Geometry is frozen once any session
// references the hall: changing rows or seats_in_row then returns
// ErrConflict, since existing tickets could fall outside the new grid.
// Renaming is always allowed.
func (r *HallRepo) Update(ctx context.Context, h *model.CinemaHall) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		q := conn(ctx, r.db)
		var rows, seats int
		err := q.QueryRowContext(ctx,
			`SELECT rows_count, seats_in_row FROM cinema_halls WHERE id = ? FOR UPDATE`, h.ID).Scan(&rows, &seats)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrHallNotFound
		}
		if err != nil {
			return err
		}
		if rows != h.Rows || seats != h.SeatsInRow {
			var referenced bool
			if err := q.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM movie_sessions WHERE cinema_hall_id = ?)`, h.ID).Scan(&referenced); err != nil {
				return err
			}
			if referenced {
				return ErrConflict
			}
		}
		if _, err := q.ExecContext(ctx,
			`UPDATE cinema_halls SET name = ?, rows_count = ?, seats_in_row = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			h.Name, h.Rows, h.SeatsInRow, h.ID); err != nil {
			return err
		}
		updated, err := r.GetByID(ctx, h.ID)
		if err != nil {
			return err
		}
		*h = updated
		return nil
	})
}

// Delete removes a hall.  Halls referenced by sessions cannot be
// deleted (ON DELETE RESTRICT) and yield ErrConflict.
func (r *HallRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cinema_halls WHERE id = ?`, id)
	if err != nil {
		if isRowReferenced(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrHallNotFound
	}
	return nil
}
