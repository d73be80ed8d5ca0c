// Package service holds the business operations that span repositories,
// locks and the message broker.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-contracts/internal/queue"
)

// Publisher sends domain events.  Failures are returned so callers can log
// them; a failed publish never undoes the stored change.
type Publisher interface {
	PublishInvoiceCreated(ctx context.Context, ev queue.InvoiceCreatedEvent) error
	PublishContractStatusChanged(ctx context.Context, ev queue.ContractStatusChangedEvent) error
}

// AMQPPublisher publishes persistent JSON messages to durable queues on the
// default exchange.  It dials per message.
type AMQPPublisher struct {
	URL string
	Log *logrus.Logger
}

func (p *AMQPPublisher) PublishInvoiceCreated(ctx context.Context, ev queue.InvoiceCreatedEvent) error {
	return p.publish(ctx, queue.InvoiceCreatedQueue, ev)
}

func (p *AMQPPublisher) PublishContractStatusChanged(ctx context.Context, ev queue.ContractStatusChangedEvent) error {
	return p.publish(ctx, queue.ContractStatusChangedQueue, ev)
}

func (p *AMQPPublisher) publish(ctx context.Context, queueName string, event any) error {
	log := p.Log.WithField("queue", queueName)

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.WithError(err).Warn("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishInvoiceCreated(context.Context, queue.InvoiceCreatedEvent) error {
	return nil
}

func (NopPublisher) PublishContractStatusChanged(context.Context, queue.ContractStatusChangedEvent) error {
	return nil
}
