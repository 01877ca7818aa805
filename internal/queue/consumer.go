package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Mailer renders and sends an invoice for a confirmed payment.  The real
// implementation lives with the email templates outside this core; tests
// and local runs use LogMailer.
type Mailer interface {
	SendInvoice(event InvoicePaidEvent) error
}

// LogMailer writes invoices to the structured log instead of sending
// email.  Used when no mail collaborator is configured.
type LogMailer struct {
	Logger *zap.Logger
}

// SendInvoice logs the invoice payload.
func (m LogMailer) SendInvoice(event InvoicePaidEvent) error {
	m.Logger.Info("invoice",
		zap.String("event_id", event.EventID),
		zap.Uint64("registration_id", event.RegistrationID),
		zap.String("user", event.UserCode),
		zap.String("email", event.Email),
		zap.String("course", event.CourseCode),
		zap.Int64("amount", event.Amount),
		zap.String("paid_at", event.PaidAt))
	return nil
}

// StartInvoiceConsumer connects to RabbitMQ, declares the invoice.paid
// queue and hands each event to the mailer.  It runs a reconnect loop
// with exponential backoff and never stops on processing errors: a
// malformed or failing message is rejected without requeue and the loop
// continues, so a poisoned event cannot stall receipts.
func StartInvoiceConsumer(url string, mailer Mailer, logger *zap.Logger) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("invoice consumer dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeInvoices(conn, mailer, logger); err != nil {
			logger.Warn("invoice consume loop ended", zap.Error(err))
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeInvoices(conn *amqp.Connection, mailer Mailer, logger *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(invoiceQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(invoiceQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		var ev InvoicePaidEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			logger.Error("invoice event unmarshal failed", zap.Error(err))
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		if err := mailer.SendInvoice(ev); err != nil {
			logger.Error("invoice send failed",
				zap.Error(err), zap.String("event_id", ev.EventID))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}
