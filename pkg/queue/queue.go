package queue

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpConnection is the subset of *amqp.Connection used by publishers and consumers.
type amqpConnection interface {
	Channel() (amqpChannel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	IsClosed() bool
	Close() error
}

type dialFunc func(cfg Config) (amqpConnection, error)

type connectionAdapter struct {
	conn *amqp.Connection
}

func (a connectionAdapter) Channel() (amqpChannel, error) {
	ch, err := a.conn.Channel()
	if err != nil {
		return nil, err
	}

	return ch, nil
}

func (a connectionAdapter) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	return a.conn.NotifyClose(receiver)
}

func (a connectionAdapter) IsClosed() bool {
	return a.conn.IsClosed()
}

func (a connectionAdapter) Close() error {
	return a.conn.Close()
}

func dial(cfg Config) (amqpConnection, error) {
	conn, err := amqp.DialConfig(getURL(cfg), cfg.amqpConfig())
	if err != nil {
		return nil, err
	}

	return connectionAdapter{conn: conn}, nil
}

// DeclareAll opens a short-lived connection and declares every topology on it, in order.
// It is used by operators to provision the broker ahead of starting workers.
func DeclareAll(ctx context.Context, cfg Config, topologies ...Topology) error {
	return declareAll(ctx, cfg, dial, topologies...)
}

func declareAll(ctx context.Context, cfg Config, dialer dialFunc, topologies ...Topology) error {
	for _, t := range topologies {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	conn, err := dialer(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	defer func() {
		_ = closeConnection(conn)
	}()

	amqpCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	ch := newChannelWrapper(amqpCh, nil)
	defer func() {
		_ = ch.Close()
	}()

	for _, t := range topologies {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := Declare(ch, t); err != nil {
			return err
		}
	}

	return nil
}

func closeConnection(conn amqpConnection) error {
	if conn == nil || conn.IsClosed() {
		return nil
	}

	if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}

	return nil
}
