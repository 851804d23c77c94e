package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

type MovieStore interface {
	List(ctx context.Context, f repository.MovieFilter) ([]model.Movie, error)
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
	Create(ctx context.Context, m *model.Movie, genreIDs, actorIDs []uint64) error
	Update(ctx context.Context, m *model.Movie, genreIDs, actorIDs []uint64) error
	Delete(ctx context.Context, id uint64) error
}

// MovieHandler serves the movie catalog.  Lists flatten relations to
// names; the detail view embeds the full genre and actor objects.
type MovieHandler struct {
	Movies MovieStore
	Log    *zap.Logger
}

func NewMovieHandler(m MovieStore, log *zap.Logger) *MovieHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &MovieHandler{Movies: m, Log: log.Named("movies")}
}

type movieReq struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description"`
	Duration    int      `json:"duration" validate:"required,gt=0"`
	Genres      []uint64 `json:"genres" validate:"dive,gt=0"`
	Actors      []uint64 `json:"actors" validate:"dive,gt=0"`
}

type movieListResp struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    int      `json:"duration"`
	Genres      []string `json:"genres"`
	Actors      []string `json:"actors"`
}

type movieDetailResp struct {
	ID          uint64        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Duration    int           `json:"duration"`
	Genres      []model.Genre `json:"genres"`
	Actors      []actorResp   `json:"actors"`
}

func toMovieList(m model.Movie) movieListResp {
	out := movieListResp{
		ID: m.ID, Title: m.Title, Description: m.Description, Duration: m.Duration,
		Genres: make([]string, len(m.Genres)),
		Actors: make([]string, len(m.Actors)),
	}
	for i, g := range m.Genres {
		out.Genres[i] = g.Name
	}
	for i, a := range m.Actors {
		out.Actors[i] = a.FullName()
	}
	return out
}

func toMovieDetail(m model.Movie) movieDetailResp {
	out := movieDetailResp{
		ID: m.ID, Title: m.Title, Description: m.Description, Duration: m.Duration,
		Genres: m.Genres,
		Actors: make([]actorResp, len(m.Actors)),
	}
	if out.Genres == nil {
		out.Genres = []model.Genre{}
	}
	for i, a := range m.Actors {
		out.Actors[i] = toActorResp(a)
	}
	return out
}

// List supports ?title=substr&genres=1,2&actors=3.
func (h *MovieHandler) List(c echo.Context) error {
	f := repository.MovieFilter{
		Title:    c.QueryParam("title"),
		GenreIDs: csvIDs(c.QueryParam("genres")),
		ActorIDs: csvIDs(c.QueryParam("actors")),
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	movies, err := h.Movies.List(ctx, f)
	if err != nil {
		return fail(c, h.Log, err)
	}
	out := make([]movieListResp, len(movies))
	for i, m := range movies {
		out[i] = toMovieList(m)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MovieHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toMovieDetail(m))
}

func (h *MovieHandler) Create(c echo.Context) error {
	var req movieReq
	if err := decode(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	m := model.Movie{Title: strings.TrimSpace(req.Title), Description: req.Description, Duration: req.Duration}
	if err := h.Movies.Create(ctx, &m, req.Genres, req.Actors); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toMovieDetail(m))
}

func (h *MovieHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req movieReq
	if err := decode(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	m := model.Movie{ID: id, Title: strings.TrimSpace(req.Title), Description: req.Description, Duration: req.Duration}
	if err := h.Movies.Update(ctx, &m, req.Genres, req.Actors); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toMovieDetail(m))
}

func (h *MovieHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Movies.Delete(ctx, id); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
