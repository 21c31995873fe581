package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumerSpec binds a worker name to its topology and processor.
type ConsumerSpec struct {
	Name      string
	Topology  Topology
	Processor Processor
}

// DeliveryObserver is notified once per handled delivery, after the message was acknowledged.
type DeliveryObserver interface {
	DeliveryHandled(ctx context.Context, queue string, duration time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) DeliveryHandled(context.Context, string, time.Duration, error) {}

// Session is a single consuming attempt driven by a Supervisor.
type Session interface {
	Run(ctx context.Context) error
	Stop()
	CloseConnection() error
	WasConsuming() bool
	ShouldReconnect() bool
}

// ConsumerFactory builds a fresh Session for every attempt.
type ConsumerFactory func() Session

// Consumer performs one connect, declare and consume attempt. It is not reused across
// reconnects: the supervisor asks its factory for a new one each time.
type Consumer struct {
	cfg     Config
	spec    ConsumerSpec
	options consumerOptions

	mu      sync.Mutex
	conn    amqpConnection
	channel *ChannelWrapper

	wasConsuming    atomic.Bool
	stopRequested   atomic.Bool
	shouldReconnect atomic.Bool
}

func NewConsumer(cfg Config, spec ConsumerSpec, opts ...ConsumerOption) *Consumer {
	options := defaultConsumerOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if options.tag == "" {
		options.tag = spec.Name
	}

	return &Consumer{
		cfg:     cfg,
		spec:    spec,
		options: options,
	}
}

// Run connects, declares the topology and consumes until the channel closes, Stop is
// called or ctx is done. It returns an error only when the failure is fatal. Any other
// failure is logged and reflected by ShouldReconnect.
func (c *Consumer) Run(ctx context.Context) error {
	err := c.run(ctx)

	if IsFatal(err) {
		c.shouldReconnect.Store(false)

		return err
	}

	if err != nil {
		c.options.logger.Warn().
			Err(err).
			Str("worker", c.spec.Name).
			Msg("consumer attempt failed")
	}

	c.shouldReconnect.Store(!c.stopRequested.Load() && ctx.Err() == nil)

	return nil
}

func (c *Consumer) run(ctx context.Context) error {
	defer c.teardown()

	if err := c.spec.Topology.Validate(); err != nil {
		return err
	}

	if c.stopRequested.Load() {
		return nil
	}

	conn, err := c.options.dial(c.cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ at %s: %w", c.cfg.RedactedURL(), err)
	}

	if !c.attachConnection(conn) {
		return nil
	}

	amqpCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	ch := newChannelWrapper(amqpCh, c.options.logger)
	if !c.attachChannel(ch) {
		return nil
	}

	closed := ch.notifyClose()

	if err := ch.qos(c.options.prefetch, 0, false); err != nil {
		return &SetupError{Stage: "set QoS", Err: err}
	}

	if err := Declare(ch, c.spec.Topology); err != nil {
		return err
	}

	deliveries, err := ch.consume(c.spec.Topology.Queue, c.options.tag, false, false, false, false, nil)
	if err != nil {
		return &SetupError{Stage: "start consuming", Err: err}
	}

	c.wasConsuming.Store(true)

	c.options.logger.Info().
		Str("worker", c.spec.Name).
		Str("queue", c.spec.Topology.Queue).
		Str("exchange", c.spec.Topology.Exchange).
		Str("routing_key", c.spec.Topology.RoutingKey).
		Msg("consuming messages")

	for {
		select {
		case <-ctx.Done():
			c.Stop()

			return nil
		case d, ok := <-deliveries:
			if !ok {
				c.logClosed(closed)

				return nil
			}

			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) attachConnection(conn amqpConnection) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn = conn

	return !c.stopRequested.Load()
}

func (c *Consumer) attachChannel(ch *ChannelWrapper) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.channel = ch

	return !c.stopRequested.Load()
}

func (c *Consumer) logClosed(closed chan *amqp.Error) {
	select {
	case amqpErr, ok := <-closed:
		if ok && amqpErr != nil {
			c.options.logger.Warn().
				Err(amqpErr).
				Str("worker", c.spec.Name).
				Msg("channel closed by broker")

			return
		}
	default:
	}

	c.options.logger.Info().Str("worker", c.spec.Name).Msg("delivery stream closed")
}

// handle runs the processor and acknowledges the delivery whatever the outcome.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	start := time.Now()

	payload, err := decodePayload(d.Body)
	if err == nil {
		err = c.process(ctx, payload)
	}

	elapsed := time.Since(start)

	if err != nil {
		c.options.logger.Error().
			Err(err).
			Str("worker", c.spec.Name).
			Str("message_id", d.MessageId).
			Str("routing_key", d.RoutingKey).
			Dur("elapsed", elapsed).
			Msg("failed to process message")
	} else {
		c.options.logger.Debug().
			Str("worker", c.spec.Name).
			Str("message_id", d.MessageId).
			Dur("elapsed", elapsed).
			Msg("message processed")
	}

	if ackErr := d.Ack(false); ackErr != nil {
		c.options.logger.Error().
			Err(ackErr).
			Str("worker", c.spec.Name).
			Str("message_id", d.MessageId).
			Msg("failed to acknowledge message")
	}

	c.options.observer.DeliveryHandled(ctx, c.spec.Topology.Queue, elapsed, err)
}

func (c *Consumer) process(ctx context.Context, payload Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrProcessorPanic, r)
		}
	}()

	return c.spec.Processor.Process(ctx, payload)
}

// teardown closes the channel and then the connection once Run is done with them.
func (c *Consumer) teardown() {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()

	c.closeChannel(ch)

	if err := c.CloseConnection(); err != nil {
		c.options.logger.Debug().Err(err).Str("worker", c.spec.Name).Msg("failed to close connection")
	}
}

func (c *Consumer) closeChannel(ch *ChannelWrapper) {
	if ch == nil {
		return
	}

	if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		c.options.logger.Debug().Err(err).Str("worker", c.spec.Name).Msg("failed to close channel")
	}
}

// Stop cancels the consumer tag. The broker stops sending deliveries and the
// delivery stream ends, so Run returns after acknowledging the message in flight
// and closes the channel itself. It is safe to call more than once and from any
// goroutine.
func (c *Consumer) Stop() {
	if !c.stopRequested.CompareAndSwap(false, true) {
		return
	}

	c.shouldReconnect.Store(false)

	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()

	if ch == nil {
		return
	}

	if err := ch.cancel(c.options.tag, false); err != nil {
		c.options.logger.Debug().Err(err).Str("worker", c.spec.Name).Msg("failed to cancel consumer")

		c.closeChannel(ch)
	}
}

// CloseConnection closes the underlying connection if it is still open. Closing it
// while a message is in flight makes its acknowledgement fail.
func (c *Consumer) CloseConnection() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	return closeConnection(conn)
}

// WasConsuming reports whether the consumer reached the consuming state.
func (c *Consumer) WasConsuming() bool {
	return c.wasConsuming.Load()
}

// ShouldReconnect reports whether the supervisor should start another attempt.
func (c *Consumer) ShouldReconnect() bool {
	return c.shouldReconnect.Load()
}
