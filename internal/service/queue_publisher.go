// Package queue_publisher publishes domain events to RabbitMQ. Errors are
// logged and returned so callers can ignore broker failures without
// interrupting the request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/gymboo/gym-backend/internal/queue"
)

// PublishReservationConfirmed publishes to the reservation.confirmed queue.
func PublishReservationConfirmed(ctx context.Context, ev q.ReservationConfirmedEvent) error {
	return publish(ctx, q.ReservationQueueName, ev)
}

// PublishOrderPlaced publishes to the order.placed queue.
func PublishOrderPlaced(ctx context.Context, ev q.OrderPlacedEvent) error {
	return publish(ctx, q.OrderQueueName, ev)
}

// PublishPasswordReset publishes to the password.reset queue.
func PublishPasswordReset(ctx context.Context, ev q.PasswordResetEvent) error {
	return publish(ctx, q.PasswordResetQueueName, ev)
}

// publish opens a short-lived connection, declares the durable queue and
// sends one persistent JSON message. A connection per publish keeps the
// publisher stateless; reservation and order volume stays well below the
// point where channel pooling would matter.
func publish(ctx context.Context, queueName string, event interface{}) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
