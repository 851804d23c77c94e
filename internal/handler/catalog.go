package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/model"
)

type GenreStore interface {
	List(ctx context.Context) ([]model.Genre, error)
	GetByID(ctx context.Context, id uint64) (model.Genre, error)
	Create(ctx context.Context, g *model.Genre) error
	Update(ctx context.Context, g model.Genre) error
	Delete(ctx context.Context, id uint64) error
}

type ActorStore interface {
	List(ctx context.Context) ([]model.Actor, error)
	GetByID(ctx context.Context, id uint64) (model.Actor, error)
	Create(ctx context.Context, a *model.Actor) error
	Update(ctx context.Context, a model.Actor) error
	Delete(ctx context.Context, id uint64) error
}

type HallStore interface {
	List(ctx context.Context) ([]model.CinemaHall, error)
	GetByID(ctx context.Context, id uint64) (model.CinemaHall, error)
	Create(ctx context.Context, h *model.CinemaHall) error
	Update(ctx context.Context, h *model.CinemaHall) error
	Delete(ctx context.Context, id uint64) error
}

// CatalogHandler serves genres, actors and cinema halls.  Reads are
// public; writes are mounted behind the ADMIN role.
type CatalogHandler struct {
	Genres GenreStore
	Actors ActorStore
	Halls  HallStore
	Log    *zap.Logger
}

func NewCatalogHandler(g GenreStore, a ActorStore, h HallStore, log *zap.Logger) *CatalogHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogHandler{Genres: g, Actors: a, Halls: h, Log: log.Named("catalog")}
}

// ----- genres -----

type genreReq struct {
	Name string `json:"name" validate:"required,max=255"`
}

func (h *CatalogHandler) ListGenres(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Genres.List(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetGenre(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	g, err := h.Genres.GetByID(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *CatalogHandler) CreateGenre(c echo.Context) error {
	var req genreReq
	if err := decode(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	g := model.Genre{Name: strings.TrimSpace(req.Name)}
	if err := h.Genres.Create(ctx, &g); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *CatalogHandler) UpdateGenre(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req genreReq
	if err := decode(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	g := model.Genre{ID: id, Name: strings.TrimSpace(req.Name)}
	if err := h.Genres.Update(ctx, g); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *CatalogHandler) DeleteGenre(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Genres.Delete(ctx, id); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- actors -----

type actorReq struct {
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
}

type actorResp struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
}

func toActorResp(a model.Actor) actorResp {
	return actorResp{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, FullName: a.FullName()}
}

func (h *CatalogHandler) ListActors(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	actors, err := h.Actors.List(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	out := make([]actorResp, len(actors))
	for i, a := range actors {
		out[i] = toActorResp(a)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetActor(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	a, err := h.Actors.GetByID(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toActorResp(a))
}

func (h *CatalogHandler) CreateActor(c echo.Context) error {
	var req actorReq
	if err := decode(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	a := model.Actor{FirstName: strings.TrimSpace(req.FirstName), LastName: strings.TrimSpace(req.LastName)}
	if err := h.Actors.Create(ctx, &a); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toActorResp(a))
}

func (h *CatalogHandler) UpdateActor(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req actorReq
	if err := decode(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	a := model.Actor{ID: id, FirstName: strings.TrimSpace(req.FirstName), LastName: strings.TrimSpace(req.LastName)}
	if err := h.Actors.Update(ctx, a); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toActorResp(a))
}

func (h *CatalogHandler) DeleteActor(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Actors.Delete(ctx, id); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- cinema halls -----

type hallReq struct {
	Name       string `json:"name" validate:"required,max=255"`
	Rows       int    `json:"rows" validate:"required,gt=0,lte=500"`
	SeatsInRow int    `json:"seats_in_row" validate:"required,gt=0,lte=500"`
}

type hallResp struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Rows       int    `json:"rows"`
	SeatsInRow int    `json:"seats_in_row"`
	Capacity   int    `json:"capacity"`
}

func toHallResp(hall model.CinemaHall) hallResp {
	return hallResp{ID: hall.ID, Name: hall.Name, Rows: hall.Rows, SeatsInRow: hall.SeatsInRow, Capacity: hall.Capacity()}
}

func (h *CatalogHandler) ListHalls(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	halls, err := h.Halls.List(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	out := make([]hallResp, len(halls))
	for i, hall := range halls {
		out[i] = toHallResp(hall)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetHall(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	hall, err := h.Halls.GetByID(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toHallResp(hall))
}

func (h *CatalogHandler) CreateHall(c echo.Context) error {
	var req hallReq
	if err := decode(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	hall := model.CinemaHall{Name: strings.TrimSpace(req.Name), Rows: req.Rows, SeatsInRow: req.SeatsInRow}
	if err := h.Halls.Create(ctx, &hall); err != nil {
		return fail(c, h.Log, err)
	}
	h.Log.Info("hall created", zap.Uint64("hall_id", hall.ID), zap.Int("capacity", hall.Capacity()))
	return c.JSON(http.StatusCreated, toHallResp(hall))
}

// UpdateHall answers 409 when the geometry changes on a hall that
// already has sessions.
func (h *CatalogHandler) UpdateHall(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req hallReq
	if err := decode(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	hall := model.CinemaHall{ID: id, Name: strings.TrimSpace(req.Name), Rows: req.Rows, SeatsInRow: req.SeatsInRow}
	if err := h.Halls.Update(ctx, &hall); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toHallResp(hall))
}

func (h *CatalogHandler) DeleteHall(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Halls.Delete(ctx, id); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
