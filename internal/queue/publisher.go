package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends order events to a durable queue, dialing once per
// publish.
type Publisher struct {
	url   string
	queue string
	log   *zap.Logger
}

// ErrNoBroker is returned when no broker URL is configured.
var ErrNoBroker = errors.New("rabbitmq url not configured")

func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, queue: queue, log: log.Named("publisher")}
}

// PublishOrderCreated publishes ev as a persistent JSON message.
// Failures are logged and returned so callers may ignore them.
func (p *Publisher) PublishOrderCreated(ctx context.Context, ev OrderCreatedEvent) error {
	if p.url == "" {
		return ErrNoBroker
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		p.log.Warn("queue declare failed", zap.String("queue", p.queue), zap.Error(err))
		return err
	}

	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.MessageID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.log.Warn("publish failed", zap.Uint64("order_id", ev.OrderID), zap.Error(err))
		return err
	}
	p.log.Debug("order event published", zap.Uint64("order_id", ev.OrderID))
	return nil
}
