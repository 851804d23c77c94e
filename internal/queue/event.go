// Package queue carries order events over RabbitMQ: the payload types,
// a publisher used after an order commits, and the background consumer
// that appends every event to an order log file.
package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// OrderCreatedEvent is published after an order commits.  It carries
// enough for downstream consumers to log or notify without querying the
// primary database.
type OrderCreatedEvent struct {
	MessageID string        `json:"message_id"`
	OrderID   uint64        `json:"order_id"`
	UserID    uint64        `json:"user_id"`
	CreatedAt string        `json:"created_at"`
	Tickets   []EventTicket `json:"tickets"`
}

// EventTicket is one ticket of an OrderCreatedEvent.
type EventTicket struct {
	TicketID  uint64 `json:"ticket_id"`
	SessionID uint64 `json:"movie_session"`
	Row       int    `json:"row"`
	Seat      int    `json:"seat"`
}

// NewOrderCreatedEvent builds the event for a committed order.
func NewOrderCreatedEvent(messageID string, o *model.Order) OrderCreatedEvent {
	ev := OrderCreatedEvent{
		MessageID: messageID,
		OrderID:   o.ID,
		UserID:    o.UserID,
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
		Tickets:   make([]EventTicket, len(o.Tickets)),
	}
	for i, t := range o.Tickets {
		ev.Tickets[i] = EventTicket{TicketID: t.ID, SessionID: t.MovieSessionID, Row: t.Row, Seat: t.Seat}
	}
	return ev
}

// LogLine renders the event as one line of the order log.
func (ev OrderCreatedEvent) LogLine() string {
	seats := make([]string, len(ev.Tickets))
	for i, t := range ev.Tickets {
		seats[i] = fmt.Sprintf("s%d:r%d:n%d", t.SessionID, t.Row, t.Seat)
	}
	return fmt.Sprintf("[%s] Order created | order_id=%d | user_id=%d | tickets=%d | seats=[%s] | message_id=%s\n",
		ev.CreatedAt, ev.OrderID, ev.UserID, len(ev.Tickets), strings.Join(seats, ","), ev.MessageID)
}
