/**
 * @description
 * This package provides a producer for publishing marketplace events to
 * RabbitMQ. Events are a best-effort side channel: emails are the contractual
 * notification path, the broker feed exists for downstream consumers. When the
 * broker is unreachable at startup the service runs with a no-op fallback.
 *
 * @dependencies
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Exchange is the durable topic exchange all marketplace events go to.
const Exchange = "marketplace.events"

// Routing keys for published events.
const (
	RouteUserRegistered     = "user.registered"
	RouteTransactionCreated = "transaction.created"
	RouteTransactionUpdated = "transaction.status.updated"
)

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
	Close()
}

// FallbackProducer is a no-op Publisher used when RabbitMQ is unavailable.
type FallbackProducer struct{}

func (p *FallbackProducer) Publish(ctx context.Context, routingKey string, body interface{}) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"publish skipped\" routing_key=%s", routingKey)
	return nil
}

func (p *FallbackProducer) Close() {}

// EventProducer holds the RabbitMQ connection and channel for publishing.
type EventProducer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer dials RabbitMQ and opens a publishing channel. The dial is
// bounded so startup does not hang when the broker is down.
func NewEventProducer(amqpURL string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch}, nil
}

// Publish sends a message to the marketplace exchange with a routing key.
// A failed publish reopens the channel once and retries before giving up.
func (p *EventProducer) Publish(ctx context.Context, routingKey string, body interface{}) error {
	if err := p.ensureExchange(); err != nil {
		return err
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Printf("level=error component=rabbitmq_producer msg=\"json marshal failed\" routing_key=%s err=%v", routingKey, err)
		return err
	}

	publishing := amqp091.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        jsonBody,
	}

	if err := p.channel.PublishWithContext(ctx, Exchange, routingKey, false, false, publishing); err != nil {
		log.Printf("level=warn component=rabbitmq_producer msg=\"publish failed; reopening channel\" routing_key=%s err=%v", routingKey, err)
		if reopenErr := p.reopenChannel(); reopenErr != nil {
			return err
		}
		return p.channel.PublishWithContext(ctx, Exchange, routingKey, false, false, publishing)
	}
	return nil
}

func (p *EventProducer) ensureExchange() error {
	err := p.channel.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil)
	if err == nil {
		return nil
	}
	log.Printf("level=warn component=rabbitmq_producer msg=\"exchange declare failed; reopening channel\" err=%v", err)
	if reopenErr := p.reopenChannel(); reopenErr != nil {
		return reopenErr
	}
	return p.channel.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil)
}

func (p *EventProducer) reopenChannel() error {
	if p.conn == nil {
		return errors.New("no amqp connection")
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	p.channel = ch
	return nil
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
