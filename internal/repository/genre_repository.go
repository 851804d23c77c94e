package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// GenreRepo provides CRUD access to the genres table.
type GenreRepo struct {
	db *sql.DB
}

// NewGenreRepo constructs a GenreRepo with the given DB handle.
func NewGenreRepo(db *sql.DB) *GenreRepo { return &GenreRepo{db: db} }

// List returns all genres ordered by name.
func (r *GenreRepo) List(ctx context.Context) ([]model.Genre, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetByID returns ErrGenreNotFound when no row matches.
func (r *GenreRepo) GetByID(ctx context.Context, id uint64) (model.Genre, error) {
	var g model.Genre
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM genres WHERE id = ?`, id).Scan(&g.ID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrGenreNotFound
	}
	return g, err
}

// Create inserts g and sets its ID.  Names are unique.
func (r *GenreRepo) Create(ctx context.Context, g *model.Genre) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO genres (name) VALUES (?)`, g.Name)
	if err != nil {
		if IsDuplicateKey(err) {
			return ErrGenreExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}

// Update renames a genre.
func (r *GenreRepo) Update(ctx context.Context, g model.Genre) error {
	res, err := r.db.ExecContext(ctx, `UPDATE genres SET name = ? WHERE id = ?`, g.Name, g.ID)
	if err != nil {
		if IsDuplicateKey(err) {
			return ErrGenreExists
		}
		return err
	}
	return affectedOrNotFound(ctx, r.db, res, `SELECT 1 FROM genres WHERE id = ?`, g.ID, ErrGenreNotFound)
}

// Delete removes a genre; movie links cascade.
func (r *GenreRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM genres WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGenreNotFound
	}
	return nil
}

// affectedOrNotFound distinguishes "no such row" from "row unchanged":
// MySQL reports zero affected rows for an UPDATE that writes identical
// values.
func affectedOrNotFound(ctx context.Context, db *sql.DB, res sql.Result, probe string, id uint64, notFound error) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	err := conn(ctx, db).QueryRowContext(ctx, probe, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}
