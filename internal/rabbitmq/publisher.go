package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"entity-chat-service/internal/observability"
)

// Publisher publishes chat events to the outbound event stream.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// NewPublisher connects to RabbitMQ and declares a durable topic exchange. Any
// failure on the way yields a noop publisher that records the reason.
func NewPublisher(amqpURL, exchange string, logger *zap.SugaredLogger) Publisher {
	if amqpURL == "" {
		return fallback(logger, "empty amqp url")
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return fallback(logger, err.Error())
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fallback(logger, err.Error())
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fallback(logger, err.Error())
	}

	logger.Infow("rabbitmq connected", "exchange", exchange)
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange, logger: logger}
}

func fallback(logger *zap.SugaredLogger, reason string) noopPublisher {
	logger.Warnw("rabbitmq disabled, using noop", "reason", reason)
	return noopPublisher{reason: reason, logger: logger}
}

// amqpPublisher serializes publishes: an amqp channel must not be used from
// several goroutines at once, and both the dispatcher and audit emitter share it.
type amqpPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *zap.SugaredLogger
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         routingKey,
		Body:         body,
	}

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		observability.IncBrokerPublishError("amqp")
		p.logger.Warnw("rabbitmq publish failed", "routing_key", routingKey, "error", err)
	}
	return err
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.ch.Close()
	return p.conn.Close()
}

type noopPublisher struct {
	reason string
	logger *zap.SugaredLogger
}

func (p noopPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.logger.Debugw("rabbitmq noop publish", "routing_key", routingKey)
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// PublisherMode reports the publisher mode for logging.
func PublisherMode(p Publisher) string {
	switch p.(type) {
	case *amqpPublisher:
		return "amqp"
	case noopPublisher:
		return "noop"
	default:
		return "unknown"
	}
}

// PublisherNoopReason explains why p fell back to noop, if it did.
func PublisherNoopReason(p Publisher) string {
	if publisher, ok := p.(noopPublisher); ok {
		return publisher.reason
	}
	return ""
}
