package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/idempotency"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	return e
}

// as injects the identity JWTAuth would have stored.
func as(uid uint64, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user_id", uid)
			c.Set("role", role)
			return next(c)
		}
	}
}

func do(e *echo.Echo, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// seatReader backs a real booking.Tracker.
type seatReader struct {
	halls map[uint64]model.CinemaHall
	taken map[uint64][]model.Seat
}

func (r *seatReader) SessionHall(_ context.Context, id uint64) (model.CinemaHall, error) {
	h, ok := r.halls[id]
	if !ok {
		return h, booking.ErrSessionNotFound
	}
	return h, nil
}

func (r *seatReader) TakenSeats(_ context.Context, id uint64) ([]model.Seat, error) {
	return r.taken[id], nil
}

func (r *seatReader) CountTickets(_ context.Context, id uint64) (int, error) {
	return len(r.taken[id]), nil
}

type fakeEngine struct {
	mu    sync.Mutex
	calls [][]booking.TicketRequest
	order *model.Order
	err   error
}

func (f *fakeEngine) CreateOrder(_ context.Context, userID uint64, reqs []booking.TicketRequest) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, reqs)
	if f.err != nil {
		return nil, f.err
	}
	o := *f.order
	o.UserID = userID
	return &o, nil
}

type fakeOrders struct {
	orders  []model.Order
	total   int64
	gotPage int
	gotSize int
}

func (f *fakeOrders) ListByUser(_ context.Context, _ uint64, page, size int) ([]model.Order, int64, error) {
	f.gotPage, f.gotSize = page, size
	return f.orders, f.total, nil
}

func (f *fakeOrders) GetForUser(_ context.Context, orderID, userID uint64) (model.Order, error) {
	for _, o := range f.orders {
		if o.ID == orderID && o.UserID == userID {
			return o, nil
		}
	}
	return model.Order{}, repository.ErrOrderNotFound
}

type fakeSessions struct {
	items    []model.SessionListItem
	filter   repository.SessionFilter
	session  model.MovieSession
	err      error
	itemsErr error
}

func (f *fakeSessions) List(_ context.Context, flt repository.SessionFilter) ([]model.SessionListItem, error) {
	f.filter = flt
	return append([]model.SessionListItem(nil), f.items...), nil
}

func (f *fakeSessions) ListItemsByIDs(_ context.Context, ids []uint64) (map[uint64]model.SessionListItem, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	out := map[uint64]model.SessionListItem{}
	for _, it := range f.items {
		for _, id := range ids {
			if it.ID == id {
				out[id] = it
			}
		}
	}
	return out, nil
}

func (f *fakeSessions) GetByID(_ context.Context, id uint64) (model.MovieSession, error) {
	if f.session.ID != id {
		return model.MovieSession{}, repository.ErrSessionNotFound
	}
	return f.session, nil
}

func (f *fakeSessions) Create(_ context.Context, s *model.MovieSession) error {
	if f.err != nil {
		return f.err
	}
	s.ID = 99
	return nil
}

func (f *fakeSessions) Update(_ context.Context, _ model.MovieSession) error { return f.err }
func (f *fakeSessions) Delete(_ context.Context, _ uint64) error             { return f.err }

type fakeMovies struct {
	movies []model.Movie
	filter repository.MovieFilter
}

func (f *fakeMovies) List(_ context.Context, flt repository.MovieFilter) ([]model.Movie, error) {
	f.filter = flt
	return f.movies, nil
}

func (f *fakeMovies) GetByID(_ context.Context, id uint64) (model.Movie, error) {
	for _, m := range f.movies {
		if m.ID == id {
			return m, nil
		}
	}
	return model.Movie{}, repository.ErrMovieNotFound
}

func (f *fakeMovies) Create(_ context.Context, m *model.Movie, genreIDs, actorIDs []uint64) error {
	if len(genreIDs) > 0 && genreIDs[0] == 404 {
		return repository.ErrUnknownReference
	}
	m.ID = 1
	return nil
}

func (f *fakeMovies) Update(context.Context, *model.Movie, []uint64, []uint64) error { return nil }
func (f *fakeMovies) Delete(context.Context, uint64) error                         { return nil }

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.OrderCreatedEvent
	err    error
}

func (f *fakePublisher) PublishOrderCreated(_ context.Context, ev queue.OrderCreatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

type fakeIdem struct {
	state     idempotency.State
	prior     uint64
	err       error
	completed map[string]uint64
	aborted   []string
}

func (f *fakeIdem) Begin(context.Context, uint64, string) (idempotency.State, uint64, error) {
	return f.state, f.prior, f.err
}

func (f *fakeIdem) Complete(_ context.Context, _ uint64, key string, orderID uint64) error {
	if f.completed == nil {
		f.completed = map[string]uint64{}
	}
	f.completed[key] = orderID
	return nil
}

func (f *fakeIdem) Abort(_ context.Context, _ uint64, key string) error {
	f.aborted = append(f.aborted, key)
	return nil
}

type fakeGenres struct {
	genres []model.Genre
	err    error
}

func (f *fakeGenres) List(context.Context) ([]model.Genre, error) { return f.genres, nil }

func (f *fakeGenres) GetByID(_ context.Context, id uint64) (model.Genre, error) {
	for _, g := range f.genres {
		if g.ID == id {
			return g, nil
		}
	}
	return model.Genre{}, repository.ErrGenreNotFound
}

func (f *fakeGenres) Create(_ context.Context, g *model.Genre) error {
	if f.err != nil {
		return f.err
	}
	g.ID = uint64(len(f.genres) + 1)
	f.genres = append(f.genres, *g)
	return nil
}

func (f *fakeGenres) Update(context.Context, model.Genre) error { return f.err }
func (f *fakeGenres) Delete(context.Context, uint64) error      { return f.err }

type fakeActors struct{ actors []model.Actor }

func (f *fakeActors) List(context.Context) ([]model.Actor, error) { return f.actors, nil }
func (f *fakeActors) GetByID(context.Context, uint64) (model.Actor, error) {
	return model.Actor{}, repository.ErrActorNotFound
}
func (f *fakeActors) Create(_ context.Context, a *model.Actor) error { a.ID = 3; return nil }
func (f *fakeActors) Update(context.Context, model.Actor) error      { return nil }
func (f *fakeActors) Delete(context.Context, uint64) error           { return nil }

type fakeHalls struct {
	updateErr error
	deleteErr error
}

func (f *fakeHalls) List(context.Context) ([]model.CinemaHall, error) {
	return []model.CinemaHall{{ID: 1, Name: "Blue", Rows: 5, SeatsInRow: 8}}, nil
}
func (f *fakeHalls) GetByID(context.Context, uint64) (model.CinemaHall, error) {
	return model.CinemaHall{}, repository.ErrHallNotFound
}
func (f *fakeHalls) Create(_ context.Context, h *model.CinemaHall) error { h.ID = 2; return nil }
func (f *fakeHalls) Update(context.Context, *model.CinemaHall) error    { return f.updateErr }
func (f *fakeHalls) Delete(context.Context, uint64) error               { return f.deleteErr }

type fakeUsers struct {
	users map[string]model.User
	next  uint64
}

func (f *fakeUsers) Create(_ context.Context, email, hash, role string) (uint64, error) {
	if _, ok := f.users[email]; ok {
		return 0, repository.ErrEmailExists
	}
	f.next++
	f.users[email] = model.User{ID: f.next, Email: email, PasswordHash: hash, Role: role, IsActive: true}
	return f.next, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := f.users[repository.NormalizeEmail(email)]
	if !ok {
		return u, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

type fakeTokens struct {
	tokens  map[string]uint64
	revoked map[string]bool
	all     []uint64
}

func (f *fakeTokens) StoreRefresh(_ context.Context, uid uint64, hash string, _ time.Time) error {
	f.tokens[hash] = uid
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string, _ time.Time) (uint64, error) {
	uid, ok := f.tokens[hash]
	if !ok || f.revoked[hash] {
		return 0, repository.ErrTokenInvalid
	}
	return uid, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.revoked[hash] = true
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, uid uint64) error {
	f.all = append(f.all, uid)
	return nil
}

type pingerFunc func() error

func (f pingerFunc) PingContext(context.Context) error { return f() }
