package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

func TestGenreEndpoints(t *testing.T) {
	genres := &fakeGenres{}
	h := NewCatalogHandler(genres, &fakeActors{}, &fakeHalls{}, nil)
	e := newEcho()
	e.GET("/v1/genres", h.ListGenres)
	e.GET("/v1/genres/:id", h.GetGenre)
	e.POST("/v1/genres", h.CreateGenre)

	rec := do(e, http.MethodPost, "/v1/genres", `{"name":"  Drama "}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Drama", gjson.Get(rec.Body.String(), "name").String())

	rec = do(e, http.MethodPost, "/v1/genres", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "required", gjson.Get(rec.Body.String(), "fields.name").String())

	rec = do(e, http.MethodGet, "/v1/genres", "")
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "#").Int())

	rec = do(e, http.MethodGet, "/v1/genres/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	genres.err = repository.ErrGenreExists
	rec = do(e, http.MethodPost, "/v1/genres", `{"name":"Drama"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestActorFullName(t *testing.T) {
	h := NewCatalogHandler(&fakeGenres{}, &fakeActors{actors: []model.Actor{{ID: 1, FirstName: "Uma", LastName: "Thurman"}}}, &fakeHalls{}, nil)
	e := newEcho()
	e.GET("/v1/actors", h.ListActors)
	e.POST("/v1/actors", h.CreateActor)

	rec := do(e, http.MethodGet, "/v1/actors", "")
	assert.Equal(t, "Uma Thurman", gjson.Get(rec.Body.String(), "0.full_name").String())

	rec = do(e, http.MethodPost, "/v1/actors", `{"first_name":"Tim","last_name":"Roth"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Tim Roth", gjson.Get(rec.Body.String(), "full_name").String())
}

func TestHallEndpoints(t *testing.T) {
	halls := &fakeHalls{}
	h := NewCatalogHandler(&fakeGenres{}, &fakeActors{}, halls, nil)
	e := newEcho()
	e.GET("/v1/cinema_halls", h.ListHalls)
	e.POST("/v1/cinema_halls", h.CreateHall)
	e.PUT("/v1/cinema_halls/:id", h.UpdateHall)
	e.DELETE("/v1/cinema_halls/:id", h.DeleteHall)

	rec := do(e, http.MethodGet, "/v1/cinema_halls", "")
	assert.Equal(t, int64(40), gjson.Get(rec.Body.String(), "0.capacity").Int())

	rec = do(e, http.MethodPost, "/v1/cinema_halls", `{"name":"Red","rows":0,"seats_in_row":8}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/v1/cinema_halls", `{"name":"Red","rows":3,"seats_in_row":8}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(24), gjson.Get(rec.Body.String(), "capacity").Int())

	halls.updateErr = repository.ErrConflict
	rec = do(e, http.MethodPut, "/v1/cinema_halls/1", `{"name":"Blue","rows":6,"seats_in_row":8}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	halls.deleteErr = repository.ErrConflict
	rec = do(e, http.MethodDelete, "/v1/cinema_halls/1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	halls.deleteErr = nil
	rec = do(e, http.MethodDelete, "/v1/cinema_halls/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMovieListAndDetailShapes(t *testing.T) {
	movies := &fakeMovies{movies: []model.Movie{{
		ID: 3, Title: "Heat", Duration: 170,
		Genres: []model.Genre{{ID: 1, Name: "Crime"}, {ID: 2, Name: "Drama"}},
		Actors: []model.Actor{{ID: 5, FirstName: "Robert", LastName: "De Niro"}},
	}}}
	h := NewMovieHandler(movies, nil)
	e := newEcho()
	e.GET("/v1/movies", h.List)
	e.GET("/v1/movies/:id", h.Get)
	e.POST("/v1/movies", h.Create)

	rec := do(e, http.MethodGet, "/v1/movies?title=he&genres=1,x,2&actors=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, repository.MovieFilter{Title: "he", GenreIDs: []uint64{1, 2}, ActorIDs: []uint64{5}}, movies.filter)
	assert.Equal(t, `["Crime","Drama"]`, gjson.Get(rec.Body.String(), "0.genres").Raw)
	assert.Equal(t, `["Robert De Niro"]`, gjson.Get(rec.Body.String(), "0.actors").Raw)

	rec = do(e, http.MethodGet, "/v1/movies/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Drama", gjson.Get(rec.Body.String(), "genres.1.name").String())
	assert.Equal(t, "Robert De Niro", gjson.Get(rec.Body.String(), "actors.0.full_name").String())

	rec = do(e, http.MethodPost, "/v1/movies", `{"title":"X","duration":90,"genres":[404]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/v1/movies", `{"title":"X","duration":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "required", gjson.Get(rec.Body.String(), "fields.duration").String())
}
