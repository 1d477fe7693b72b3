package relay

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type declaredExchange struct {
	name    string
	kind    string
	durable bool
}

type declaredQueue struct {
	name    string
	durable bool
	args    amqp.Table
}

type declaredBinding struct {
	queue    string
	key      string
	exchange string
}

type topologyRecorder struct {
	exchanges []declaredExchange
	queues    []declaredQueue
	bindings  []declaredBinding
}

func (r *topologyRecorder) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	r.exchanges = append(r.exchanges, declaredExchange{name: name, kind: kind, durable: durable})
	return nil
}

func (r *topologyRecorder) QueueDeclare(name string, durable, _, _, _ bool, args amqp.Table) (amqp.Queue, error) {
	r.queues = append(r.queues, declaredQueue{name: name, durable: durable, args: args})
	return amqp.Queue{Name: name}, nil
}

func (r *topologyRecorder) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	r.bindings = append(r.bindings, declaredBinding{queue: name, key: key, exchange: exchange})
	return nil
}

func (r *topologyRecorder) Qos(int, int, bool) error { return nil }

func (r *topologyRecorder) PublishWithContext(context.Context, string, string, bool, bool, amqp.Publishing) error {
	return nil
}

func (r *topologyRecorder) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return nil, nil
}

func (r *topologyRecorder) IsClosed() bool { return false }
func (r *topologyRecorder) Close() error   { return nil }

func TestDeclareTopology(t *testing.T) {
	rec := &topologyRecorder{}

	require.NoError(t, DeclareTopology(rec))

	require.Len(t, rec.exchanges, 1)
	assert.Equal(t, declaredExchange{
		name:    "barsoft.stok.exchange",
		kind:    "topic",
		durable: true,
	}, rec.exchanges[0])

	require.Len(t, rec.queues, 1)
	assert.Equal(t, "barsoft.stok.queue", rec.queues[0].name)
	assert.True(t, rec.queues[0].durable)
	assert.Equal(t, int32(3600000), rec.queues[0].args["x-message-ttl"])

	require.Len(t, rec.bindings, 1)
	assert.Equal(t, declaredBinding{
		queue:    "barsoft.stok.queue",
		key:      "stok.hareket.*",
		exchange: "barsoft.stok.exchange",
	}, rec.bindings[0])
}

func TestRoutingKeysMatchBinding(t *testing.T) {
	// Both published keys must fall under the queue's wildcard binding.
	assert.Equal(t, "stok.hareket.created", RoutingKeyCreated)
	assert.Equal(t, "stok.hareket.updated", RoutingKeyUpdated)
}
