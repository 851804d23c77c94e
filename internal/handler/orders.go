package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/idempotency"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
)

// HeaderIdempotencyKey makes order submission safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

type OrderCreator interface {
	CreateOrder(ctx context.Context, userID uint64, reqs []booking.TicketRequest) (*model.Order, error)
}

type OrderReader interface {
	ListByUser(ctx context.Context, userID uint64, page, pageSize int) ([]model.Order, int64, error)
	GetForUser(ctx context.Context, orderID, userID uint64) (model.Order, error)
}

type SessionItems interface {
	ListItemsByIDs(ctx context.Context, ids []uint64) (map[uint64]model.SessionListItem, error)
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, ev queue.OrderCreatedEvent) error
}

type IdempotencyStore interface {
	Begin(ctx context.Context, userID uint64, key string) (idempotency.State, uint64, error)
	Complete(ctx context.Context, userID uint64, key string, orderID uint64) error
	Abort(ctx context.Context, userID uint64, key string) error
}

// OrderHandler creates and lists the caller's orders.  Events and Idem
// are optional; nil disables event publishing and key handling.
type OrderHandler struct {
	Engine   OrderCreator
	Orders   OrderReader
	Sessions SessionItems
	Tracker  *booking.Tracker
	Events   EventPublisher
	Idem     IdempotencyStore
	PageSize int
	NewID    func() string
	Log      *zap.Logger
}

func NewOrderHandler(engine OrderCreator, orders OrderReader, sessions SessionItems, tracker *booking.Tracker, log *zap.Logger) *OrderHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderHandler{
		Engine:   engine,
		Orders:   orders,
		Sessions: sessions,
		Tracker:  tracker,
		PageSize: 10,
		NewID:    uuid.NewString,
		Log:      log.Named("orders"),
	}
}

type ticketReq struct {
	Row          int    `json:"row"`
	Seat         int    `json:"seat"`
	MovieSession uint64 `json:"movie_session" validate:"required"`
}

type orderReq struct {
	Tickets []ticketReq `json:"tickets" validate:"dive"`
}

type ticketResp struct {
	ID           uint64                `json:"id"`
	Row          int                   `json:"row"`
	Seat         int                   `json:"seat"`
	MovieSession model.SessionListItem `json:"movie_session"`
}

type orderResp struct {
	ID        uint64       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Tickets   []ticketResp `json:"tickets"`
}

type orderPage struct {
	Count    int64       `json:"count"`
	Next     *int        `json:"next"`
	Previous *int        `json:"previous"`
	Results  []orderResp `json:"results"`
}

// render expands each ticket's session into its list-view shape.
func (h *OrderHandler) render(ctx context.Context, orders []model.Order) ([]orderResp, error) {
	var ids []uint64
	for _, o := range orders {
		for _, t := range o.Tickets {
			ids = append(ids, t.MovieSessionID)
		}
	}
	items := map[uint64]model.SessionListItem{}
	if len(ids) > 0 {
		var err error
		if items, err = h.Sessions.ListItemsByIDs(ctx, ids); err != nil {
			return nil, err
		}
	}
	for id, it := range items {
		it.TicketsAvailable, _ = h.Tracker.Remaining(id, it.CinemaHallCap, it.Taken)
		items[id] = it
	}
	return expand(orders, items), nil
}

// expand builds responses from orders and the session items found for
// them.  A session without an item renders with its id only.
func expand(orders []model.Order, items map[uint64]model.SessionListItem) []orderResp {
	out := make([]orderResp, len(orders))
	for i, o := range orders {
		r := orderResp{ID: o.ID, CreatedAt: o.CreatedAt.UTC(), Tickets: make([]ticketResp, len(o.Tickets))}
		for j, t := range o.Tickets {
			it, ok := items[t.MovieSessionID]
			if !ok {
				it = model.SessionListItem{ID: t.MovieSessionID}
			}
			r.Tickets[j] = ticketResp{ID: t.ID, Row: t.Row, Seat: t.Seat, MovieSession: it}
		}
		out[i] = r
	}
	return out
}

// Create books every requested ticket or none.  A repeated
// Idempotency-Key returns the order created by the first request.
func (h *OrderHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req orderReq
	if err := decode(c, &req); err != nil {
		return fail(c, h.Log, err)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
	reserved := false
	if key != "" && h.Idem != nil {
		state, prior, err := h.Idem.Begin(ctx, uid, key)
		switch {
		case errors.Is(err, idempotency.ErrKeyTooLong):
			return fail(c, h.Log, badRequest(err.Error()))
		case err != nil:
			h.Log.Warn("idempotency unavailable", zap.Error(err))
		case state == idempotency.InFlight:
			return c.JSON(http.StatusConflict, echo.Map{"error": "request with this idempotency key is in progress"})
		case state == idempotency.Done:
			return h.replay(ctx, c, uid, prior)
		default:
			reserved = true
		}
	}

	reqs := make([]booking.TicketRequest, len(req.Tickets))
	for i, t := range req.Tickets {
		reqs[i] = booking.TicketRequest{SessionID: t.MovieSession, Row: t.Row, Seat: t.Seat}
	}
	order, err := h.Engine.CreateOrder(ctx, uid, reqs)
	if err != nil {
		if reserved {
			h.releaseKey(uid, key)
		}
		return fail(c, h.Log, err)
	}
	if reserved {
		if err := h.Idem.Complete(context.WithoutCancel(ctx), uid, key, order.ID); err != nil {
			h.Log.Warn("idempotency complete failed", zap.Uint64("order_id", order.ID), zap.Error(err))
		}
	}
	h.publish(ctx, order)

	// The order is committed: a failed session lookup degrades the
	// response instead of failing it.
	out, err := h.render(ctx, []model.Order{*order})
	if err != nil {
		h.Log.Warn("render committed order", zap.Uint64("order_id", order.ID), zap.Error(err))
		out = expand([]model.Order{*order}, nil)
	}
	return c.JSON(http.StatusCreated, out[0])
}

func (h *OrderHandler) replay(ctx context.Context, c echo.Context, uid, orderID uint64) error {
	o, err := h.Orders.GetForUser(ctx, orderID, uid)
	if err != nil {
		return fail(c, h.Log, err)
	}
	out, err := h.render(ctx, []model.Order{o})
	if err != nil {
		return fail(c, h.Log, err)
	}
	c.Response().Header().Set("Idempotent-Replayed", "true")
	return c.JSON(http.StatusOK, out[0])
}

func (h *OrderHandler) releaseKey(uid uint64, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.Idem.Abort(ctx, uid, key); err != nil {
		h.Log.Warn("idempotency abort failed", zap.Error(err))
	}
}

// publish emits the order event after commit.  Broker failures never
// affect the committed order.
func (h *OrderHandler) publish(ctx context.Context, order *model.Order) {
	if h.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	ev := queue.NewOrderCreatedEvent(h.NewID(), order)
	if err := h.Events.PublishOrderCreated(ctx, ev); err != nil {
		if errors.Is(err, queue.ErrNoBroker) {
			return
		}
		h.Log.Warn("order event not published", zap.Uint64("order_id", order.ID), zap.Error(err))
	}
}

// List returns the caller's orders newest first, ?page=N.
func (h *OrderHandler) List(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := 1
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fail(c, h.Log, badRequest("invalid page"))
		}
		page = n
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	orders, total, err := h.Orders.ListByUser(ctx, uid, page, h.PageSize)
	if err != nil {
		return fail(c, h.Log, err)
	}
	results, err := h.render(ctx, orders)
	if err != nil {
		return fail(c, h.Log, err)
	}
	resp := orderPage{Count: total, Results: results}
	if int64(page*h.PageSize) < total {
		next := page + 1
		resp.Next = &next
	}
	if page > 1 {
		prev := page - 1
		resp.Previous = &prev
	}
	return c.JSON(http.StatusOK, resp)
}

// Get returns one of the caller's orders.  Other users' orders are
// reported as not found.
func (h *OrderHandler) Get(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	o, err := h.Orders.GetForUser(ctx, id, uid)
	if err != nil {
		return fail(c, h.Log, err)
	}
	out, err := h.render(ctx, []model.Order{o})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out[0])
}
