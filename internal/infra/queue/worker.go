package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// WarningNotifier delivers a deadline warning to the lead owner.
type WarningNotifier interface {
	SendDeadlineWarning(ctx context.Context, payload DeadlineWarningPayload) error
}

// Consumer is the subset of *amqp.Channel the worker needs.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Acknowledger settles one delivery; amqp.Delivery satisfies it.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type Worker struct {
	Channel  Consumer
	Notifier WarningNotifier
	Logger   *zap.Logger
}

func NewWorker(ch Consumer, notifier WarningNotifier, logger *zap.Logger) *Worker {
	return &Worker{Channel: ch, Notifier: notifier, Logger: logger}
}

// Start consumes until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	w.Logger.Info("deadline warning worker waiting", zap.String("queue", queueName))
	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("deadline warning worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			w.handle(ctx, d.Body, &d)
		}
	}
}

// handle acks on success. Malformed bodies and failed sends are nacked
// without requeue so they move to the dead-letter queue.
func (w *Worker) handle(ctx context.Context, body []byte, ack Acknowledger) {
	var payload DeadlineWarningPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		w.Logger.Error("malformed deadline warning", zap.Error(err))
		ack.Nack(false, false)
		return
	}
	if payload.OwnerEmail == "" {
		w.Logger.Warn("deadline warning without owner email, dropping",
			zap.String("lead_id", payload.LeadID))
		ack.Ack(false)
		return
	}

	if err := w.Notifier.SendDeadlineWarning(ctx, payload); err != nil {
		w.Logger.Error("deadline warning delivery failed",
			zap.String("lead_id", payload.LeadID), zap.Error(err))
		ack.Nack(false, false)
		return
	}

	w.Logger.Info("deadline warning delivered",
		zap.String("lead_id", payload.LeadID),
		zap.Int("days_until_expiry", payload.DaysUntilExpiry))
	ack.Ack(false)
}
