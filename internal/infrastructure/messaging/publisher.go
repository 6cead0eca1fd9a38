package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"restaurant-checkout/internal/domain"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// OrderStatusChanged is published after every committed status transition.
type OrderStatusChanged struct {
	OrderID      uuid.UUID          `json:"orderId"`
	RestaurantID uuid.UUID          `json:"restaurantId"`
	UserID       string             `json:"userId"`
	Status       domain.OrderStatus `json:"status"`
	TotalAmount  *int64             `json:"totalAmount,omitempty"`
	ChangedAt    time.Time          `json:"changedAt"`
}

func NewOrderStatusChanged(order *domain.Order, at time.Time) OrderStatusChanged {
	return OrderStatusChanged{
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		UserID:       order.UserID,
		Status:       order.Status,
		TotalAmount:  order.TotalAmount,
		ChangedAt:    at.UTC(),
	}
}

// Notifier delivers status changes. Callers treat failures as best effort.
type Notifier interface {
	NotifyStatusChanged(ctx context.Context, evt OrderStatusChanged) error
	Close() error
}

type NoopNotifier struct{}

func (NoopNotifier) NotifyStatusChanged(context.Context, OrderStatusChanged) error { return nil }
func (NoopNotifier) Close() error                                                  { return nil }

const (
	dialTimeout      = 2 * time.Second
	reconnectBackoff = 5 * time.Second
)

// ErrBrokerUnavailable is returned without dialing while a failed
// reconnect is backing off.
var ErrBrokerUnavailable = errors.New("rabbitmq unavailable")

// RabbitNotifier publishes to a durable fanout exchange. Publishing runs on
// the request path, so dials are bounded and a failed reconnect is not
// retried for reconnectBackoff.
type RabbitNotifier struct {
	mu         sync.Mutex
	url        string
	exchange   string
	conn       *amqp091.Connection
	retryAfter time.Time
	dial       func(url string) (*amqp091.Connection, error)
	now        func() time.Time
	logger     *slog.Logger
}

func NewRabbitNotifier(url, exchange string, logger *slog.Logger) (*RabbitNotifier, error) {
	n := newRabbitNotifier(url, exchange, logger)
	if err := n.connect(); err != nil {
		return nil, err
	}
	return n, nil
}

func newRabbitNotifier(url, exchange string, logger *slog.Logger) *RabbitNotifier {
	return &RabbitNotifier{
		url:      url,
		exchange: exchange,
		dial:     dialRabbit,
		now:      time.Now,
		logger:   logger,
	}
}

func dialRabbit(url string) (*amqp091.Connection, error) {
	return amqp091.DialConfig(url, amqp091.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp091.DefaultDial(dialTimeout),
	})
}

func (n *RabbitNotifier) connect() error {
	conn, err := n.dial(n.url)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		n.exchange,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	n.conn = conn
	return nil
}

func (n *RabbitNotifier) NotifyStatusChanged(ctx context.Context, evt OrderStatusChanged) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil || n.conn.IsClosed() {
		if n.now().Before(n.retryAfter) {
			return ErrBrokerUnavailable
		}
		if err := n.connect(); err != nil {
			n.retryAfter = n.now().Add(reconnectBackoff)
			return fmt.Errorf("reconnect: %w", err)
		}
		n.retryAfter = time.Time{}
	}

	ch, err := n.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = ch.PublishWithContext(ctx, n.exchange, "", false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    evt.ChangedAt,
		Type:         "order.status_changed",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish status event: %w", err)
	}

	n.logger.Debug("status event published",
		"exchange", n.exchange,
		"order_id", evt.OrderID,
		"status", evt.Status,
	)
	return nil
}

func (n *RabbitNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
