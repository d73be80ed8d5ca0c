package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// AuditLogFile is the file, inside the consumer's log directory, that
// receives one line per event.
const AuditLogFile = "contract-events.log"

// AuditConsumer appends every contract and invoice event to a log file.
type AuditConsumer struct {
	URL    string
	LogDir string
	Log    *logrus.Logger
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff (capped at 30s) whenever the connection drops.
func (a *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(a.URL)
		if err != nil {
			a.Log.WithError(err).WithField("retry_in", backoff.String()).Warn("audit-consumer: dial failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = a.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.Log.WithError(err).Warn("audit-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (a *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		a.Log.WithError(err).Warn("audit-consumer: set QoS failed")
	}

	type delivery struct {
		queue string
		d     amqp.Delivery
	}
	merged := make(chan delivery)
	done := make(chan struct{})
	defer close(done)

	for _, name := range []string{InvoiceCreatedQueue, ContractStatusChangedQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		go func(name string, msgs <-chan amqp.Delivery) {
			for d := range msgs {
				select {
				case merged <- delivery{queue: name, d: d}:
				case <-done:
					return
				}
			}
		}(name, msgs)
	}

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-connClosed:
			return closeErr(amqpErr, "connection closed")
		case amqpErr := <-chClosed:
			return closeErr(amqpErr, "channel closed")
		case m := <-merged:
			if err := a.HandleMessage(m.queue, m.d.Body); err != nil {
				a.Log.WithError(err).WithField("queue", m.queue).Error("audit-consumer: handle message failed")
				// reject without requeue so a bad payload cannot loop
				_ = m.d.Nack(false, false)
				continue
			}
			_ = m.d.Ack(false)
		}
	}
}

// HandleMessage decodes one delivery from queue and appends its line to the
// audit log.
func (a *AuditConsumer) HandleMessage(queue string, body []byte) error {
	line, err := FormatLine(queue, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(a.LogDir, AuditLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders an event as a single newline-terminated line.
func FormatLine(queue string, body []byte) (string, error) {
	switch queue {
	case InvoiceCreatedQueue:
		var ev InvoiceCreatedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Invoice created | invoice_id=%s | contract_id=%s | landlord_id=%d | period=%d/%d | due=%s | total=%s\n",
			ev.CreatedAt, ev.InvoiceID, ev.ContractID, ev.LandlordID, ev.Month, ev.Year, ev.DueDate, ev.Total), nil
	case ContractStatusChangedQueue:
		var ev ContractStatusChangedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		actor := fmt.Sprintf("%d", ev.ActorID)
		if ev.ActorID == 0 {
			actor = "system"
		}
		return fmt.Sprintf("[%s] Contract status changed | contract_id=%s | %s -> %s | actor=%s | note=%q\n",
			ev.ChangedAt, ev.ContractID, ev.From, ev.To, actor, ev.Note), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}

func closeErr(err *amqp.Error, fallback string) error {
	if err != nil {
		return err
	}
	return errors.New(fallback)
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
