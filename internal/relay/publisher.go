package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"stokhub/internal/model"
	"stokhub/pkg/rabbitmq"
)

// Publisher serializes change events and puts them on the topic
// exchange. The underlying connection reconnects lazily, so a Publish
// call may block while the link is re-established.
type Publisher struct {
	log  *zap.Logger
	conn *rabbitmq.Conn
}

func NewPublisher(log *zap.Logger, conn *rabbitmq.Conn) *Publisher {
	return &Publisher{
		log:  log,
		conn: conn,
	}
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, event model.StokHareketEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to get broker channel: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := ch.PublishWithContext(ctx,
		Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:     contentType,
			ContentEncoding: "utf-8",
			DeliveryMode:    amqp.Persistent,
			MessageId:       uuid.NewString(),
			Timestamp:       time.Now().UTC(),
			Body:            body,
		},
	); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", routingKey, err)
	}

	p.log.Debug("Published change event",
		zap.Int64("id", event.ID),
		zap.String("routing_key", routingKey),
	)

	return nil
}
