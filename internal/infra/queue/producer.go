package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeadlineWarningPayload is the event emitted when a lead enters the final
// week before its progress deadline.
type DeadlineWarningPayload struct {
	LeadID           string    `json:"lead_id"`
	CompanyName      string    `json:"company_name"`
	OwnerID          string    `json:"owner_id"`
	OwnerEmail       string    `json:"owner_email"`
	DaysUntilExpiry  int       `json:"days_until_expiry"`
	ProgressDeadline time.Time `json:"progress_deadline"`
	Message          string    `json:"message"`
	SentAt           time.Time `json:"sent_at"`
}

// Publisher is the subset of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishDeadlineWarning(ctx context.Context, payload DeadlineWarningPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    payload.LeadID + ":" + payload.SentAt.UTC().Format(time.RFC3339),
			Timestamp:    payload.SentAt,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to rabbitmq: %w", err)
	}
	return nil
}
