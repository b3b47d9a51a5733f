// Package events publishes order lifecycle events for the outbound
// notification component. Delivery is best-effort: a broker outage
// never fails a checkout or a webhook.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/port"
	"go.uber.org/zap"
)

const (
	routingKeyOrderCreated   = "order.created"
	routingKeyOrderCancelled = "order.cancelled"
)

type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *zap.Logger
}

func NewPublisher(url, exchange string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp.Dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("conn.Channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("ch.ExchangeDeclare: %w", err)
	}

	return &Publisher{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

func (p *Publisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

type orderEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OwnerID     string    `json:"owner_id"`
	Status      string    `json:"status"`
	Total       string    `json:"total"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (p *Publisher) OrderCreated(ctx context.Context, order domain.Order) error {
	return p.publish(ctx, routingKeyOrderCreated, order)
}

func (p *Publisher) OrderCancelled(ctx context.Context, order domain.Order) error {
	return p.publish(ctx, routingKeyOrderCancelled, order)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, order domain.Order) error {
	body, err := json.Marshal(orderEvent{
		OrderID:     order.ID.String(),
		OrderNumber: order.Number,
		OwnerID:     order.OwnerID,
		Status:      string(order.Status),
		Total:       order.Total.StringFixed(2),
		Currency:    order.Currency.String(),
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("ch.PublishWithContext: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("routing_key", routingKey),
		zap.String("order_number", order.Number))
	return nil
}

// Nop is used when no broker is configured, e.g. in tests.
type Nop struct{}

func (Nop) OrderCreated(context.Context, domain.Order) error   { return nil }
func (Nop) OrderCancelled(context.Context, domain.Order) error { return nil }

var (
	_ port.EventPublisher = (*Publisher)(nil)
	_ port.EventPublisher = Nop{}
)
