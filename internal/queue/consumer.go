package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Handler processes one decoded event. A returned error rejects the message
// without requeueing it.
type Handler func(ctx context.Context, ev ContentEvent) error

// Consumer reads content events from RabbitMQ.
type Consumer struct {
	url     string
	queue   string
	handler Handler
	log     logrus.FieldLogger
}

func NewConsumer(url, queue string, h Handler, log logrus.FieldLogger) *Consumer {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Consumer{url: url, queue: queue, handler: h, log: log.WithField("component", "event-consumer")}
}

// Run connects to the broker and consumes until ctx is cancelled. Dial
// failures back off exponentially up to 30s; a dropped connection is
// re-established after a short pause.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WithError(err).Warnf("failed to dial broker; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.WithError(err).Warn("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.WithError(err).Warn("set QoS failed")
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body); err != nil {
				c.log.WithError(err).Error("handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var ev ContentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.ContentID == 0 {
		return errors.New("event without type or content id")
	}
	return c.handler(ctx, ev)
}

// LogHandler writes each event as one structured log line.
func LogHandler(log logrus.FieldLogger) Handler {
	return func(_ context.Context, ev ContentEvent) error {
		fields := logrus.Fields{
			"event":       ev.Type,
			"content_id":  ev.ContentID,
			"occurred_at": ev.OccurredAt.Format(time.RFC3339),
		}
		if ev.ChapterID != 0 {
			fields["chapter_id"] = ev.ChapterID
		}
		if ev.ActorID != 0 {
			fields["actor_id"] = ev.ActorID
		}
		if ev.OwnerBound {
			fields["owner_bound"] = true
		}
		log.WithFields(fields).Info("content event")
		return nil
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
