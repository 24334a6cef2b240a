package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher publishes every event as a persistent JSON message to a
// durable queue on the default exchange, over a connection opened per event.
type AMQPPublisher struct {
	url   string
	queue string
}

func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: queue}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event BookingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	return ch.PublishWithContext(ctx, "", p.queue, false, false, newPublishing(event, body))
}

func newPublishing(event BookingEvent, body []byte) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         string(event.Type),
		MessageId:    event.Booking.Id,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}
}
