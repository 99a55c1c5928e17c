package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/constants"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/retry"
	"github.com/AlibekovAA/shop-dash/backend/internal/observability/metrics"
)

const (
	RoutingUserRegistered = "registry.user.registered"
	RoutingUserDeleted    = "registry.user.deleted"
)

var ErrNotConfirmed = errors.New("broker did not confirm publish")

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	Close() error
}

// Publisher sends JSON events to a durable topic exchange with publisher
// confirms. The channel is shared, so publishes are serialized.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	log      *logger.Logger
	now      func() time.Time

	mu sync.Mutex
}

// Dial connects to the broker, retrying while it starts up, and declares
// the exchange.
func Dial(ctx context.Context, url, exchange string, log *logger.Logger) (*Publisher, error) {
	var conn *amqp.Connection
	policy := retry.Policy{
		MaxAttempts:  6,
		InitialDelay: time.Second,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
		Retryable:    func(error) bool { return true },
	}
	err := retry.Do(ctx, log, "rabbitmq dial", policy, func(context.Context) error {
		var dialErr error
		conn, dialErr = amqp.Dial(url)
		return dialErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p, err := newPublisher(ch, exchange, log)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string, log *logger.Logger) (*Publisher, error) {
	if exchange == "" {
		exchange = constants.DefaultRabbitExchange
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to enable confirms: %w", err)
	}
	return &Publisher{ch: ch, exchange: exchange, log: log, now: time.Now}, nil
}

// Publish marshals payload and waits briefly for the broker confirm.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := amqp.Table{}
	if traceID, ok := ctx.Value(constants.TraceIDKey).(string); ok && traceID != "" {
		headers["X-Trace-ID"] = traceID
	}

	pubCtx, cancel := context.WithTimeout(ctx, constants.RabbitPublishTimeout)
	defer cancel()

	p.mu.Lock()
	dc, err := p.ch.PublishWithDeferredConfirmWithContext(pubCtx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		Headers:      headers,
		Body:         body,
	})
	p.mu.Unlock()
	if err != nil {
		metrics.RegistryEventsPublished.WithLabelValues(routingKey, "error").Inc()
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	if dc != nil {
		waitCtx, waitCancel := context.WithTimeout(ctx, constants.RabbitPublishWait)
		defer waitCancel()
		acked, err := dc.WaitContext(waitCtx)
		if err != nil || !acked {
			metrics.RegistryEventsPublished.WithLabelValues(routingKey, "unconfirmed").Inc()
			if err == nil {
				err = ErrNotConfirmed
			}
			return fmt.Errorf("publish %s: %w", routingKey, err)
		}
	}

	metrics.RegistryEventsPublished.WithLabelValues(routingKey, "ok").Inc()
	return nil
}

func (p *Publisher) Close() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

// NoopPublisher drops events when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (NoopPublisher) Close() error { return nil }
