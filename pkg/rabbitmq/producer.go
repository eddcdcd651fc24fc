package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrInvalidURL is returned for URLs that are not amqp:// or amqps://
var ErrInvalidURL = errors.New("rabbitmq: URL scheme must be amqp or amqps")

// Publisher publishes JSON messages to a fixed exchange
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
	Close() error
}

// Config holds producer configuration
type Config struct {
	URL         string
	Exchange    string
	DialTimeout time.Duration // Default: 10s
}

// EventProducer publishes to a durable topic exchange over one channel
type EventProducer struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewEventProducer dials RabbitMQ and declares the exchange
func NewEventProducer(cfg Config) (*EventProducer, error) {
	cleanURL, err := SanitizeURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Exchange == "" {
		return nil, errors.New("rabbitmq: exchange is required")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(cfg.DialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}

	p := &EventProducer{conn: conn, exchange: cfg.Exchange}
	if err := p.openChannel(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return p, nil
}

func (p *EventProducer) openChannel() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("rabbitmq: declare exchange %s: %w", p.exchange, err)
	}
	p.channel = ch
	return nil
}

// Publish sends body as JSON with the given routing key. A failed publish
// reopens the channel and retries once.
func (p *EventProducer) Publish(ctx context.Context, routingKey string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal %s: %w", routingKey, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	if err == nil {
		return nil
	}

	slog.Warn("rabbitmq publish failed, reopening channel",
		slog.String("exchange", p.exchange),
		slog.String("routing_key", routingKey),
		slog.String("error", err.Error()),
	)
	if reopenErr := p.openChannel(); reopenErr != nil {
		return errors.Join(err, reopenErr)
	}
	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
}

// Close closes the channel and connection
func (p *EventProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

// LoggingPublisher stands in when no broker is configured. It logs each
// message instead of sending it.
type LoggingPublisher struct {
	Exchange string
}

// Publish logs the skipped message
func (p *LoggingPublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	slog.InfoContext(ctx, "event publish skipped, no broker configured",
		slog.String("exchange", p.Exchange),
		slog.String("routing_key", routingKey),
	)
	return nil
}

// Close is a no-op
func (p *LoggingPublisher) Close() error { return nil }

// SanitizeURL strips whitespace, surrounding quotes and stray prefixes from
// an AMQP URL and checks its scheme
func SanitizeURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	if idx := strings.Index(strings.ToLower(clean), "amqp"); idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("rabbitmq: parse URL: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", ErrInvalidURL
	}
	return clean, nil
}

// Redact hides the password in an AMQP URL for logging
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	return u.Redacted()
}
