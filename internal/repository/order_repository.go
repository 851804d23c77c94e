package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// OrderRepo serves the read side of orders: a user's order history and
// single order lookups.  Writes go through BookingStore.
type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// ListByUser returns one page of the user's orders, newest first, with
// tickets loaded, plus the total number of orders.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64, page, pageSize int) ([]model.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, created_at FROM orders WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.CreatedAt); err != nil {
			return nil, 0, err
		}
		o.CreatedAt = o.CreatedAt.UTC()
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.loadTickets(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// GetForUser returns ErrOrderNotFound unless the order exists and is
// owned by userID.
func (r *OrderRepo) GetForUser(ctx context.Context, orderID, userID uint64) (model.Order, error) {
	var o model.Order
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at FROM orders WHERE id = ? AND user_id = ?`, orderID, userID).
		Scan(&o.ID, &o.UserID, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return o, ErrOrderNotFound
	}
	if err != nil {
		return o, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	one := []model.Order{o}
	if err := r.loadTickets(ctx, one); err != nil {
		return o, err
	}
	return one[0], nil
}

func (r *OrderRepo) loadTickets(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(orders))
	ids := make([]uint64, 0, len(orders))
	for i := range orders {
		index[orders[i].ID] = i
		orders[i].Tickets = []model.Ticket{}
		ids = append(ids, orders[i].ID)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, movie_session_id, row_num, seat_num FROM tickets
		 WHERE order_id IN (`+placeholders(len(ids))+`) ORDER BY id`, appendIDs(nil, ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.OrderID, &t.MovieSessionID, &t.Row, &t.Seat); err != nil {
			return err
		}
		i := index[t.OrderID]
		orders[i].Tickets = append(orders[i].Tickets, t)
	}
	return rows.Err()
}
