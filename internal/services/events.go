package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"movie-night-backend/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ScheduleEventsQueue is the durable queue schedule events are published to
const ScheduleEventsQueue = "schedule.events"

// Schedule event types
const (
	EventScheduleCreated     = "schedule.created"
	EventScheduleRescheduled = "schedule.rescheduled"
	EventScheduleDeleted     = "schedule.deleted"
)

// ScheduleEvent describes a committed schedule write
type ScheduleEvent struct {
	Type            string           `json:"type"`
	UserID          string           `json:"userId"`
	ISODate         time.Time        `json:"isoDate"`
	PreviousISODate *time.Time       `json:"previousIsoDate,omitempty"`
	Schedule        *models.Schedule `json:"schedule"`
	OccurredAt      time.Time        `json:"occurredAt"`
}

// EventPublisher publishes schedule events to a broker
type EventPublisher interface {
	Publish(ctx context.Context, event ScheduleEvent) error
}

// AMQPPublisher publishes events to RabbitMQ. Each publish dials its own
// connection, so a broker outage never leaves a broken channel behind.
type AMQPPublisher struct {
	url   string
	queue string
}

// NewAMQPPublisher creates a publisher for the broker at url
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: ScheduleEventsQueue}
}

// Publish sends event as a persistent JSON message to the schedule events queue
func (p *AMQPPublisher) Publish(ctx context.Context, event ScheduleEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("failed to dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
