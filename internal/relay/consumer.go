package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"stokhub/internal/apperrors"
	"stokhub/internal/hub"
	"stokhub/internal/model"
	"stokhub/pkg/rabbitmq"
)

const resubscribeDelay = 5 * time.Second

// Broadcaster is the slice of the push gateway the consumer needs.
type Broadcaster interface {
	BroadcastToGroup(group, event string, payload any) error
	BroadcastToAll(event string, payload any) error
}

// Consumer drains the relay queue and fans events out to connected
// clients. Messages are handled one at a time; the ack is sent only
// after the gateway delivery returns, which makes slow fan-out the
// backpressure path from clients back to the broker.
type Consumer struct {
	log         *zap.Logger
	conn        *rabbitmq.Conn
	broadcaster Broadcaster
}

func NewConsumer(log *zap.Logger, conn *rabbitmq.Conn, broadcaster Broadcaster) *Consumer {
	return &Consumer{
		log:         log,
		conn:        conn,
		broadcaster: broadcaster,
	}
}

// Run blocks until ctx is cancelled. A dropped delivery stream is
// re-subscribed through the shared connection's retry policy rather than
// terminating the consumer.
func (c *Consumer) Run(ctx context.Context) {
	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.log.Error("Failed to subscribe to relay queue", zap.Error(err))

			select {
			case <-ctx.Done():
				return
			case <-time.After(resubscribeDelay):
				continue
			}
		}

		c.log.Info("Consuming from relay queue",
			zap.String("queue", Queue),
			zap.Int("prefetch", PrefetchCount),
		)

		if done := c.consume(ctx, deliveries); done {
			return
		}
	}
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to get broker channel: %w", err)
	}

	if err := ch.Qos(PrefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		Queue,
		"",    // consumer tag
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	return deliveries, nil
}

// consume returns true when the consumer should stop for good.
func (c *Consumer) consume(ctx context.Context, deliveries <-chan amqp.Delivery) bool {
	for {
		select {
		case <-ctx.Done():
			c.log.Info("Consumer stopping")

			return true
		case delivery, ok := <-deliveries:
			if !ok {
				c.log.Warn("Delivery stream closed, resubscribing")

				return false
			}

			if err := c.handle(delivery); err != nil {
				c.log.Error("Failed to handle relay message",
					zap.String("routing_key", delivery.RoutingKey),
					zap.Error(err),
				)

				// Drop, never requeue: a poison message must not loop.
				if err := delivery.Nack(false, false); err != nil {
					c.log.Warn("Failed to nack message", zap.Error(err))
				}

				continue
			}

			if err := delivery.Ack(false); err != nil {
				c.log.Warn("Failed to ack message", zap.Error(err))
			}
		}
	}
}

func (c *Consumer) handle(delivery amqp.Delivery) error {
	var serverEvent string

	switch delivery.RoutingKey {
	case RoutingKeyCreated:
		serverEvent = hub.EventStokHareketCreated
	case RoutingKeyUpdated:
		serverEvent = hub.EventStokHareketUpdated
	default:
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownRoutingKey, delivery.RoutingKey)
	}

	var event model.StokHareketEvent
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return c.fanOut(serverEvent, &event)
}

// fanOut routes the event to its tenant group when the cost-center is
// set, otherwise to every connected client. The catch-all event fires
// either way so clients can follow one stream for all activity.
func (c *Consumer) fanOut(serverEvent string, event *model.StokHareketEvent) error {
	tenantID := event.TenantID()

	if tenantID != 0 {
		group := hub.GroupName(tenantID)

		if err := c.broadcaster.BroadcastToGroup(group, serverEvent, event); err != nil {
			return fmt.Errorf("failed to deliver %s to %s: %w", serverEvent, group, err)
		}

		if err := c.broadcaster.BroadcastToGroup(group, hub.EventStokHareketReceived, event); err != nil {
			return fmt.Errorf("failed to deliver %s to %s: %w", hub.EventStokHareketReceived, group, err)
		}

		c.log.Debug("Delivered event to group",
			zap.Int64("id", event.ID),
			zap.String("event", serverEvent),
			zap.String("group", group),
		)

		return nil
	}

	// No tenant key means visible to everyone, not to no one.
	if err := c.broadcaster.BroadcastToAll(serverEvent, event); err != nil {
		return fmt.Errorf("failed to broadcast %s: %w", serverEvent, err)
	}

	if err := c.broadcaster.BroadcastToAll(hub.EventStokHareketReceived, event); err != nil {
		return fmt.Errorf("failed to broadcast %s: %w", hub.EventStokHareketReceived, err)
	}

	c.log.Debug("Broadcasted event to all clients",
		zap.Int64("id", event.ID),
		zap.String("event", serverEvent),
	)

	return nil
}
