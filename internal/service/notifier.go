// Package service holds the broker and cache adapters used after moderation commits.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/vitrine-craques/video-moderation-go/internal/config"
	"github.com/vitrine-craques/video-moderation-go/internal/models"
	"github.com/vitrine-craques/video-moderation-go/pkg/logger"
)

const confirmTimeout = 5 * time.Second

// NotificationPublisher publishes committed notifications to a RabbitMQ topic
// exchange for push and e-mail delivery workers.
type NotificationPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  config.RabbitMQConfig
	mu      sync.Mutex
}

// NewNotificationPublisher connects to RabbitMQ and declares the exchange and delivery queue.
func NewNotificationPublisher(cfg config.RabbitMQConfig) (*NotificationPublisher, error) {
	p := &NotificationPublisher{config: cfg}

	if err := p.connect(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *NotificationPublisher) connect() error {
	conn, err := amqp.Dial(p.config.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.config.Exchange, // name
		"topic",           // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if p.config.Queue != "" {
		if _, err := ch.QueueDeclare(
			p.config.Queue, // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			amqp.Table{
				"x-message-ttl": 7 * 24 * 60 * 60 * 1000, // 7 days
			},
		); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return fmt.Errorf("failed to declare queue: %w", err)
		}

		if err := ch.QueueBind(p.config.Queue, p.config.RoutingKey, p.config.Exchange, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return fmt.Errorf("failed to bind queue: %w", err)
		}
	}

	p.conn = conn
	p.channel = ch

	logger.Log.Info("Connected to RabbitMQ",
		zap.String("exchange", p.config.Exchange),
		zap.String("queue", p.config.Queue),
	)

	return nil
}

// PublishNotification publishes n as JSON and waits for the broker to confirm it.
// Publications are serialized so each confirmation matches its message.
func (p *NotificationPublisher) PublishNotification(ctx context.Context, n *models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil || p.channel.IsClosed() {
		return fmt.Errorf("channel is not available")
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	confirmation, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		p.config.Exchange,   // exchange
		p.config.RoutingKey, // routing key
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    n.CreatedAt,
			MessageId:    n.ID.String(),
			Type:         string(n.Type),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	acked, err := confirmation.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("waiting for publish confirmation: %w", err)
	}
	if !acked {
		return fmt.Errorf("notification was not acknowledged by broker")
	}

	logger.Log.Debug("Published notification to RabbitMQ",
		zap.String("notificationId", n.ID.String()),
		zap.String("userId", n.UserID),
		zap.String("routingKey", p.config.RoutingKey),
	)

	return nil
}

// Close closes the channel and connection.
func (p *NotificationPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil && !p.channel.IsClosed() {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing publisher: %v", errs)
	}

	logger.Log.Info("RabbitMQ publisher closed")
	return nil
}

// IsHealthy reports whether the broker connection is open.
func (p *NotificationPublisher) IsHealthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.conn != nil && !p.conn.IsClosed() && p.channel != nil && !p.channel.IsClosed()
}
