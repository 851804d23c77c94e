package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

type SessionStore interface {
	List(ctx context.Context, f repository.SessionFilter) ([]model.SessionListItem, error)
	ListItemsByIDs(ctx context.Context, ids []uint64) (map[uint64]model.SessionListItem, error)
	GetByID(ctx context.Context, id uint64) (model.MovieSession, error)
	Create(ctx context.Context, s *model.MovieSession) error
	Update(ctx context.Context, s model.MovieSession) error
	Delete(ctx context.Context, id uint64) error
}

// SessionHandler serves movie sessions and their seat availability.
type SessionHandler struct {
	Sessions SessionStore
	Movies   MovieStore
	Tracker  *booking.Tracker
	Log      *zap.Logger
}

func NewSessionHandler(s SessionStore, m MovieStore, t *booking.Tracker, log *zap.Logger) *SessionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionHandler{Sessions: s, Movies: m, Tracker: t, Log: log.Named("sessions")}
}

type sessionReq struct {
	Movie      uint64    `json:"movie" validate:"required,gt=0"`
	CinemaHall uint64    `json:"cinema_hall" validate:"required,gt=0"`
	ShowTime   time.Time `json:"show_time" validate:"required"`
}

type sessionResp struct {
	ID         uint64    `json:"id"`
	ShowTime   time.Time `json:"show_time"`
	Movie      uint64    `json:"movie"`
	CinemaHall uint64    `json:"cinema_hall"`
}

type sessionDetailResp struct {
	ID               uint64        `json:"id"`
	ShowTime         time.Time     `json:"show_time"`
	Movie            movieListResp `json:"movie"`
	CinemaHall       hallResp      `json:"cinema_hall"`
	TakenPlaces      []model.Seat  `json:"taken_places"`
	TicketsAvailable int           `json:"tickets_available"`
}

func toSessionResp(s model.MovieSession) sessionResp {
	return sessionResp{ID: s.ID, ShowTime: s.ShowTime.UTC(), Movie: s.MovieID, CinemaHall: s.CinemaHallID}
}

// fillAvailable derives tickets_available for list rows.  A row whose
// counts are inconsistent renders 0; the tracker has already logged it.
func fillAvailable(t *booking.Tracker, items []model.SessionListItem) {
	for i := range items {
		left, _ := t.Remaining(items[i].ID, items[i].CinemaHallCap, items[i].Taken)
		items[i].TicketsAvailable = left
	}
}

// List supports ?movie=ID&date=YYYY-MM-DD.
func (h *SessionHandler) List(c echo.Context) error {
	var f repository.SessionFilter
	if v := c.QueryParam("movie"); v != "" {
		ids := csvIDs(v)
		if len(ids) != 1 {
			return fail(c, h.Log, badRequest("invalid movie"))
		}
		f.MovieID = ids[0]
	}
	if v := c.QueryParam("date"); v != "" {
		d, ok := repository.ParseDate(v)
		if !ok {
			return fail(c, h.Log, badRequest("date must be YYYY-MM-DD"))
		}
		f.Date = d
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Sessions.List(ctx, f)
	if err != nil {
		return fail(c, h.Log, err)
	}
	fillAvailable(h.Tracker, items)
	return c.JSON(http.StatusOK, items)
}

// Get renders the detail view: movie, hall and the taken-seat map.
func (h *SessionHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	s, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	detail, err := h.Tracker.GetAvailabilityDetail(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	m, err := h.Movies.GetByID(ctx, s.MovieID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sessionDetailResp{
		ID:               s.ID,
		ShowTime:         s.ShowTime.UTC(),
		Movie:            toMovieList(m),
		CinemaHall:       toHallResp(detail.Hall),
		TakenPlaces:      detail.TakenPlaces,
		TicketsAvailable: detail.TicketsAvailable,
	})
}

// Availability returns the taken seats and remaining count.
func (h *SessionHandler) Availability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	av, err := h.Tracker.GetAvailability(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, av)
}

func (h *SessionHandler) Create(c echo.Context) error {
	var req sessionReq
	if err := decode(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	s := model.MovieSession{MovieID: req.Movie, CinemaHallID: req.CinemaHall, ShowTime: req.ShowTime.UTC()}
	if err := h.Sessions.Create(ctx, &s); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toSessionResp(s))
}

// Update answers 409 when a session with sold tickets is moved to a
// different hall.
func (h *SessionHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req sessionReq
	if err := decode(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	s := model.MovieSession{ID: id, MovieID: req.Movie, CinemaHallID: req.CinemaHall, ShowTime: req.ShowTime.UTC()}
	if err := h.Sessions.Update(ctx, s); err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toSessionResp(s))
}

func (h *SessionHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Sessions.Delete(ctx, id); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
