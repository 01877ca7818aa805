package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const invoiceQueueName = "invoice.paid"

// Publisher publishes invoice events to RabbitMQ.  Publishing is
// fire-and-forget from the caller's point of view: a broker outage must
// never roll back a confirmed payment, so errors are logged and returned
// for the caller to swallow.
type Publisher struct {
	url    string
	logger *zap.Logger
}

// NewPublisher returns a Publisher for the given broker URL.  An empty
// URL yields a disabled publisher whose dispatch is a logged no-op.
func NewPublisher(url string, logger *zap.Logger) *Publisher {
	return &Publisher{url: url, logger: logger}
}

// DispatchInvoicePaid publishes an InvoicePaidEvent to the invoice.paid
// queue.  The queue is declared durable and messages are persistent so a
// broker restart does not lose receipts.
func (p *Publisher) DispatchInvoicePaid(ctx context.Context, event InvoicePaidEvent) error {
	if p.url == "" {
		p.logger.Warn("invoice publisher disabled, dropping event",
			zap.String("event_id", event.EventID),
			zap.Uint64("registration_id", event.RegistrationID))
		return nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Error("rabbitmq dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Error("rabbitmq channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		invoiceQueueName, // name
		true,             // durable
		false,            // autoDelete
		false,            // exclusive
		false,            // noWait
		nil,              // args
	); err != nil {
		p.logger.Error("rabbitmq queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal invoice event failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",               // default exchange
		invoiceQueueName, // routing key = queue name
		false,            // mandatory
		false,            // immediate
		pub,
	); err != nil {
		p.logger.Error("rabbitmq publish failed", zap.Error(err))
		return err
	}
	return nil
}
