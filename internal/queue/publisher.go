package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes content events to a durable RabbitMQ queue. Each
// call dials its own connection, which keeps the publisher stateless at
// the cost of a handshake per event.
type Publisher struct {
	url   string
	queue string
	dial  func(url string, timeout time.Duration) (*amqp.Connection, error)
}

// defaultDialTimeout bounds the TCP and TLS handshake when ctx carries no
// deadline.
const defaultDialTimeout = 3 * time.Second

func NewPublisher(url, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Publisher{url: url, queue: queue, dial: dialTimeout}
}

func dialTimeout(url string, timeout time.Duration) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(timeout)})
}

// dialBudget derives the handshake timeout from the ctx deadline.
func dialBudget(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	dl, ok := ctx.Deadline()
	if !ok {
		return defaultDialTimeout, nil
	}
	left := time.Until(dl)
	if left <= 0 {
		return 0, context.DeadlineExceeded
	}
	return left, nil
}

// Publish sends ev as a persistent JSON message through the default
// exchange, routed by queue name.
func (p *Publisher) Publish(ctx context.Context, ev ContentEvent) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}

	timeout, err := dialBudget(ctx)
	if err != nil {
		return err
	}
	conn, err := p.dial(p.url, timeout)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	return ch.PublishWithContext(ctx, "", p.queue, false, false, pub)
}

// Encode marshals ev, stamping OccurredAt when unset.
func Encode(ev ContentEvent) ([]byte, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(ev)
}

// Nop discards events. It is used when publishing is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, ContentEvent) error { return nil }
