// Package events publishes domain events to RabbitMQ. Delivery is
// best-effort: errors are logged and returned so callers can ignore them
// without interrupting the main request flow.
package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const orderPaidQueue = "order.paid"

// OrderPaidEvent notifies invoice/notification/calendar-sync collaborators
// that an order settled. Consumers must tolerate duplicates.
type OrderPaidEvent struct {
	OrderID uint      `json:"order_id"`
	PaidAt  time.Time `json:"paid_at"`
}

type Publisher interface {
	PublishOrderPaid(ctx context.Context, ev OrderPaidEvent) error
}

// AMQPPublisher dials per publish so a broker restart never wedges the
// payment path; the queue is durable and messages persistent.
type AMQPPublisher struct {
	url string
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url}
}

func (p *AMQPPublisher) PublishOrderPaid(ctx context.Context, ev OrderPaidEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		logrus.WithError(err).Warn("amqp: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logrus.WithError(err).Warn("amqp: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(orderPaidQueue, true, false, false, false, nil); err != nil {
		logrus.WithError(err).Warn("amqp: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", orderPaidQueue, false, false, pub); err != nil {
		logrus.WithError(err).WithField("order_id", ev.OrderID).Warn("amqp: publish failed")
		return err
	}
	return nil
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPaid(context.Context, OrderPaidEvent) error { return nil }
