package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// MovieFilter narrows List.  Title matches case-insensitively as a
// substring; GenreIDs and ActorIDs match when the movie is linked to
// any of the listed ids.
type MovieFilter struct {
	Title    string
	GenreIDs []uint64
	ActorIDs []uint64
}

// MovieRepo provides access to movies and their genre/actor links.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// List returns the movies matching f with genres and actors loaded.
func (r *MovieRepo) List(ctx context.Context, f MovieFilter) ([]model.Movie, error) {
	where := []string{}
	args := []any{}

	if t := strings.TrimSpace(f.Title); t != "" {
		where = append(where, "LOWER(m.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(t)+"%")
	}
	if len(f.GenreIDs) > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM movie_genres mg WHERE mg.movie_id = m.id AND mg.genre_id IN ("+placeholders(len(f.GenreIDs))+"))")
		args = appendIDs(args, f.GenreIDs)
	}
	if len(f.ActorIDs) > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM movie_actors ma WHERE ma.movie_id = m.id AND ma.actor_id IN ("+placeholders(len(f.ActorIDs))+"))")
		args = appendIDs(args, f.ActorIDs)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.title, m.description, m.duration FROM movies m WHERE `+cond+` ORDER BY m.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := []model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Duration); err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadRelations(ctx, movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// GetByID returns one movie with relations, or ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	var m model.Movie
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, title, description, duration FROM movies WHERE id = ?`, id).
		Scan(&m.ID, &m.Title, &m.Description, &m.Duration)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrMovieNotFound
	}
	if err != nil {
		return m, err
	}
	one := []model.Movie{m}
	if err := r.loadRelations(ctx, one); err != nil {
		return m, err
	}
	return one[0], nil
}

// Create inserts the movie and its links in one transaction.  Unknown
// genre or actor ids yield ErrUnknownReference.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie, genreIDs, actorIDs []uint64) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		res, err := conn(ctx, r.db).ExecContext(ctx,
			`INSERT INTO movies (title, description, duration) VALUES (?, ?, ?)`,
			m.Title, m.Description, m.Duration)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		m.ID = uint64(id)
		if err := r.replaceLinks(ctx, m.ID, genreIDs, actorIDs); err != nil {
			return err
		}
		created, err := r.GetByID(ctx, m.ID)
		if err != nil {
			return err
		}
		*m = created
		return nil
	})
}

// Update overwrites scalar fields and replaces both link sets.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie, genreIDs, actorIDs []uint64) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		res, err := conn(ctx, r.db).ExecContext(ctx,
			`UPDATE movies SET title = ?, description = ?, duration = ? WHERE id = ?`,
			m.Title, m.Description, m.Duration, m.ID)
		if err != nil {
			return err
		}
		if err := affectedOrNotFound(ctx, r.db, res, `SELECT 1 FROM movies WHERE id = ?`, m.ID, ErrMovieNotFound); err != nil {
			return err
		}
		if err := r.replaceLinks(ctx, m.ID, genreIDs, actorIDs); err != nil {
			return err
		}
		updated, err := r.GetByID(ctx, m.ID)
		if err != nil {
			return err
		}
		*m = updated
		return nil
	})
}

// Delete removes a movie and its genre/actor links.  A movie that is
// still scheduled in a session yields ErrConflict.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		if isRowReferenced(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

func (r *MovieRepo) replaceLinks(ctx context.Context, movieID uint64, genreIDs, actorIDs []uint64) error {
	q := conn(ctx, r.db)
	if _, err := q.ExecContext(ctx, `DELETE FROM movie_genres WHERE movie_id = ?`, movieID); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM movie_actors WHERE movie_id = ?`, movieID); err != nil {
		return err
	}
	for _, gid := range dedupe(genreIDs) {
		if _, err := q.ExecContext(ctx, `INSERT INTO movie_genres (movie_id, genre_id) VALUES (?, ?)`, movieID, gid); err != nil {
			if isMissingReference(err) {
				return ErrUnknownReference
			}
			return err
		}
	}
	for _, aid := range dedupe(actorIDs) {
		if _, err := q.ExecContext(ctx, `INSERT INTO movie_actors (movie_id, actor_id) VALUES (?, ?)`, movieID, aid); err != nil {
			if isMissingReference(err) {
				return ErrUnknownReference
			}
			return err
		}
	}
	return nil
}

// loadRelations fills Genres and Actors of every movie with two queries.
func (r *MovieRepo) loadRelations(ctx context.Context, movies []model.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(movies))
	ids := make([]uint64, 0, len(movies))
	for i := range movies {
		index[movies[i].ID] = i
		movies[i].Genres = []model.Genre{}
		movies[i].Actors = []model.Actor{}
		ids = append(ids, movies[i].ID)
	}
	q := conn(ctx, r.db)

	rows, err := q.QueryContext(ctx,
		`SELECT mg.movie_id, g.id, g.name FROM movie_genres mg JOIN genres g ON g.id = mg.genre_id
		 WHERE mg.movie_id IN (`+placeholders(len(ids))+`) ORDER BY g.name, g.id`, appendIDs(nil, ids)...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var movieID uint64
		var g model.Genre
		if err := rows.Scan(&movieID, &g.ID, &g.Name); err != nil {
			rows.Close()
			return err
		}
		i := index[movieID]
		movies[i].Genres = append(movies[i].Genres, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.QueryContext(ctx,
		`SELECT ma.movie_id, a.id, a.first_name, a.last_name FROM movie_actors ma JOIN actors a ON a.id = ma.actor_id
		 WHERE ma.movie_id IN (`+placeholders(len(ids))+`) ORDER BY a.last_name, a.first_name, a.id`, appendIDs(nil, ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var movieID uint64
		var a model.Actor
		if err := rows.Scan(&movieID, &a.ID, &a.FirstName, &a.LastName); err != nil {
			return err
		}
		i := index[movieID]
		movies[i].Actors = append(movies[i].Actors, a)
	}
	return rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func appendIDs(args []any, ids []uint64) []any {
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
