package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChannel struct {
	closed       bool
	declareCalls int
}

func (c *fakeChannel) ExchangeDeclare(string, string, bool, bool, bool, bool, amqp.Table) error {
	c.declareCalls++
	return nil
}

func (c *fakeChannel) QueueDeclare(string, bool, bool, bool, bool, amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{}, nil
}

func (c *fakeChannel) QueueBind(string, string, string, bool, amqp.Table) error {
	return nil
}

func (c *fakeChannel) Qos(int, int, bool) error {
	return nil
}

func (c *fakeChannel) PublishWithContext(context.Context, string, string, bool, bool, amqp.Publishing) error {
	return nil
}

func (c *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	ch := make(chan amqp.Delivery)
	close(ch)

	return ch, nil
}

func (c *fakeChannel) IsClosed() bool { return c.closed }

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type fakeConnection struct {
	ch     *fakeChannel
	closed bool
}

func (c *fakeConnection) Channel() (Channel, error) {
	return c.ch, nil
}

func (c *fakeConnection) IsClosed() bool { return c.closed }

func (c *fakeConnection) Close() error {
	c.closed = true
	return nil
}

func testConfig() *Config {
	return &Config{
		Host:        "localhost",
		Port:        5672,
		Username:    "guest",
		Password:    "guest",
		VirtualHost: "/",
		RetryCount:  3,
		RetryDelay:  time.Millisecond,
	}
}

func TestConn_ConnectsAndDeclaresTopology(t *testing.T) {
	var declared int

	dial := func(*Config) (Connection, error) {
		return &fakeConnection{ch: &fakeChannel{}}, nil
	}

	topology := func(Channel) error {
		declared++
		return nil
	}

	conn, err := New(zap.NewNop(), testConfig(), topology, WithDialFunc(dial))
	require.NoError(t, err)

	assert.Equal(t, StateConnected, conn.State())
	assert.True(t, conn.Healthy())
	assert.Equal(t, 1, declared)
}

func TestConn_RetriesThenFails(t *testing.T) {
	var attempts int

	dial := func(*Config) (Connection, error) {
		attempts++
		return nil, errors.New("connection refused")
	}

	_, err := New(zap.NewNop(), testConfig(), nil, WithDialFunc(dial))
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 3, attempts)
}

func TestConn_RecoversWithinRetryBudget(t *testing.T) {
	var attempts int

	dial := func(*Config) (Connection, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}

		return &fakeConnection{ch: &fakeChannel{}}, nil
	}

	conn, err := New(zap.NewNop(), testConfig(), nil, WithDialFunc(dial))
	require.NoError(t, err)

	assert.Equal(t, StateConnected, conn.State())
	assert.Equal(t, 3, attempts)
}

func TestConn_ChannelReconnectsAfterLoss(t *testing.T) {
	var dials int
	var declared int

	dial := func(*Config) (Connection, error) {
		dials++
		return &fakeConnection{ch: &fakeChannel{}}, nil
	}

	topology := func(Channel) error {
		declared++
		return nil
	}

	conn, err := New(zap.NewNop(), testConfig(), topology, WithDialFunc(dial))
	require.NoError(t, err)
	require.Equal(t, 1, dials)

	// A healthy connection hands back the same channel without dialing.
	_, err = conn.Channel()
	require.NoError(t, err)
	assert.Equal(t, 1, dials)

	// Simulate the broker dropping the link.
	conn.conn.(*fakeConnection).closed = true

	_, err = conn.Channel()
	require.NoError(t, err)

	assert.Equal(t, 2, dials)
	assert.Equal(t, 2, declared, "topology must be re-declared on reconnect")
	assert.Equal(t, StateConnected, conn.State())
}

func TestConn_TopologyFailureIsARetry(t *testing.T) {
	var attempts int

	dial := func(*Config) (Connection, error) {
		return &fakeConnection{ch: &fakeChannel{}}, nil
	}

	topology := func(Channel) error {
		attempts++
		return errors.New("precondition failed")
	}

	_, err := New(zap.NewNop(), testConfig(), topology, WithDialFunc(dial))
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 3, attempts)
}

func TestConn_CloseMarksDisconnected(t *testing.T) {
	dial := func(*Config) (Connection, error) {
		return &fakeConnection{ch: &fakeChannel{}}, nil
	}

	conn, err := New(zap.NewNop(), testConfig(), nil, WithDialFunc(dial))
	require.NoError(t, err)

	require.NoError(t, conn.Close())

	assert.Equal(t, StateDisconnected, conn.State())
	assert.False(t, conn.Healthy())
}
