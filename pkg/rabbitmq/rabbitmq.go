package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var ErrRetriesExhausted = errors.New("connect retries exhausted")

// State of the broker connection. Transitions are guarded by the Conn
// mutex: Disconnected -> Connecting -> Connected, and back to
// Disconnected when the link is found closed.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Channel is the slice of amqp091.Channel the relay uses. Kept as an
// interface so connection handling is testable without a broker.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	IsClosed() bool
	Close() error
}

// Connection abstracts amqp091.Connection for the same reason.
type Connection interface {
	Channel() (Channel, error)
	IsClosed() bool
	Close() error
}

// DialFunc opens a broker connection. Production code uses Dial;
// tests substitute a fake.
type DialFunc func(cfg *Config) (Connection, error)

type Config struct {
	Host           string
	Port           uint16
	Username       string
	Password       string
	VirtualHost    string
	ConnectTimeout time.Duration
	RetryCount     int
	RetryDelay     time.Duration
}

func (c *Config) url() string {
	uri := amqp.URI{
		Scheme:   "amqp",
		Host:     c.Host,
		Port:     int(c.Port),
		Username: c.Username,
		Password: c.Password,
		Vhost:    c.VirtualHost,
	}

	return uri.String()
}

// Dial opens a real AMQP connection with the configured per-attempt
// timeout.
func Dial(cfg *Config) (Connection, error) {
	conn, err := amqp.DialConfig(cfg.url(), amqp.Config{
		Vhost: cfg.VirtualHost,
		Dial:  amqp.DefaultDial(cfg.ConnectTimeout),
	})
	if err != nil {
		return nil, err
	}

	return &realConnection{conn: conn}, nil
}

type realConnection struct {
	conn *amqp.Connection
}

func (c *realConnection) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}

	return ch, nil
}

func (c *realConnection) IsClosed() bool {
	return c.conn.IsClosed()
}

func (c *realConnection) Close() error {
	return c.conn.Close()
}

// Topology is re-applied by Conn on every (re)connect. Declarations must
// be idempotent: repeating them against matching topology is a no-op.
type Topology func(ch Channel) error

// Conn maintains one long-lived broker connection plus channel and
// reconnects them lazily. Safe for concurrent use; only one reconnect
// attempt proceeds at a time while other callers wait on the mutex.
type Conn struct {
	log      *zap.Logger
	cfg      *Config
	dial     DialFunc
	topology Topology

	mu    sync.Mutex
	state State
	conn  Connection
	ch    Channel
}

// New connects immediately; startup fails if every attempt is spent, as
// the broker is a required dependency.
func New(log *zap.Logger, cfg *Config, topology Topology, opts ...ConnOption) (*Conn, error) {
	c := &Conn{
		log:      log,
		cfg:      cfg,
		dial:     Dial,
		topology: topology,
		state:    StateDisconnected,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(); err != nil {
		return nil, err
	}

	return c, nil
}

type ConnOption func(*Conn)

func WithDialFunc(dial DialFunc) ConnOption {
	return func(c *Conn) {
		c.dial = dial
	}
}

// Channel returns the live channel, transparently reinitializing a
// closed connection first. Callers may block here while a reconnect is
// in flight.
func (c *Conn) Channel() (Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openLocked() {
		return c.ch, nil
	}

	c.log.Warn("Broker connection lost, reconnecting")

	if err := c.connectLocked(); err != nil {
		return nil, err
	}

	return c.ch, nil
}

// Healthy reports whether both the connection and the channel are open.
func (c *Conn) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.openLocked()
}

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error

	if c.ch != nil && !c.ch.IsClosed() {
		if chErr := c.ch.Close(); chErr != nil {
			err = fmt.Errorf("failed to close channel: %w", chErr)
		}
	}

	if c.conn != nil && !c.conn.IsClosed() {
		if connErr := c.conn.Close(); connErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close connection: %w", connErr))
		}
	}

	c.state = StateDisconnected

	return err
}

func (c *Conn) openLocked() bool {
	return c.state == StateConnected &&
		c.conn != nil && !c.conn.IsClosed() &&
		c.ch != nil && !c.ch.IsClosed()
}

func (c *Conn) connectLocked() error {
	c.state = StateConnecting

	var lastErr error

	for attempt := 1; attempt <= c.cfg.RetryCount; attempt++ {
		c.log.Info("Connecting to broker",
			zap.String("host", c.cfg.Host),
			zap.Uint16("port", c.cfg.Port),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.cfg.RetryCount),
		)

		conn, err := c.dial(c.cfg)
		if err != nil {
			lastErr = err

			c.log.Warn("Failed to connect to broker",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)

			if attempt < c.cfg.RetryCount {
				time.Sleep(c.cfg.RetryDelay)
			}

			continue
		}

		ch, err := conn.Channel()
		if err != nil {
			lastErr = err

			_ = conn.Close()

			c.log.Warn("Failed to open channel", zap.Int("attempt", attempt), zap.Error(err))

			if attempt < c.cfg.RetryCount {
				time.Sleep(c.cfg.RetryDelay)
			}

			continue
		}

		if c.topology != nil {
			if err := c.topology(ch); err != nil {
				lastErr = err

				_ = ch.Close()
				_ = conn.Close()

				c.log.Warn("Failed to declare topology", zap.Int("attempt", attempt), zap.Error(err))

				if attempt < c.cfg.RetryCount {
					time.Sleep(c.cfg.RetryDelay)
				}

				continue
			}
		}

		c.conn = conn
		c.ch = ch
		c.state = StateConnected

		c.log.Info("Connected to broker",
			zap.String("host", c.cfg.Host),
			zap.Uint16("port", c.cfg.Port),
		)

		return nil
	}

	c.state = StateDisconnected

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.cfg.RetryCount, lastErr)
}
