package relay

import (
	amqp "github.com/rabbitmq/amqp091-go"

	"stokhub/pkg/rabbitmq"
)

// Wire values shared with the legacy dashboard clients. These are
// compatibility constants; renaming any of them breaks deployed
// consumers.
const (
	Exchange = "barsoft.stok.exchange"
	Queue    = "barsoft.stok.queue"

	// BindingKey matches every stock-movement routing key.
	BindingKey = "stok.hareket.*"

	RoutingKeyCreated = "stok.hareket.created"
	RoutingKeyUpdated = "stok.hareket.updated"
)

const (
	// Queued events older than this are gone; consumers that were down
	// longer simply miss them (no backfill by design).
	messageTTLMs = 3600000

	// PrefetchCount bounds in-flight deliveries so slow client fan-out
	// throttles broker consumption instead of buffering without limit.
	PrefetchCount = 10

	contentType = "application/json"
)

// DeclareTopology declares the exchange, queue and binding. All
// declarations are idempotent, so it is safe to run on every
// (re)connect.
func DeclareTopology(ch rabbitmq.Channel) error {
	if err := ch.ExchangeDeclare(
		Exchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(
		Queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		amqp.Table{
			"x-message-ttl": int32(messageTTLMs),
		},
	); err != nil {
		return err
	}

	return ch.QueueBind(Queue, BindingKey, Exchange, false, nil)
}
