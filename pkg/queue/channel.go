package queue

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpChannel is used mainly to be able to generate mocks for the AMQP behavior.
//
//nolint:interfacebloat // necessary for complete AMQP channel interface
type amqpChannel interface {
	io.Closer

	Cancel(consumer string, noWait bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
}

// ChannelWrapper is a wrapper around amqp091-go.Channel serializing calls made from the
// consuming goroutine and from Stop.
type ChannelWrapper struct {
	amqpChan amqpChannel

	logger Logger

	mutex    *sync.Mutex
	canceled atomic.Bool
	closed   atomic.Bool
}

func newChannelWrapper(ch amqpChannel, logger Logger) *ChannelWrapper {
	if logger == nil {
		logger = nopLogger{}
	}

	return &ChannelWrapper{
		amqpChan: ch,
		logger:   logger,
		mutex:    &sync.Mutex{},
	}
}

// Close is a wrapper around amqp091-go.Channel.Close method, which closes a channel.
func (ch *ChannelWrapper) Close() error {
	defer ch.mutex.Unlock()
	ch.mutex.Lock()

	if ch.isClosed() {
		return amqp.ErrClosed
	}

	ch.closed.Store(true)

	return ch.amqpChan.Close()
}

func (ch *ChannelWrapper) cancel(consumer string, noWait bool) error {
	defer ch.mutex.Unlock()
	ch.mutex.Lock()

	if ch.isClosed() || ch.isCanceled() {
		return nil
	}

	if err := ch.amqpChan.Cancel(consumer, noWait); err != nil {
		return err
	}

	ch.canceled.Store(true)

	return nil
}

//nolint:revive // This method uses same number of arguments as amqp091 Channel.Consume.
func (ch *ChannelWrapper) consume(
	queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table,
) (<-chan amqp.Delivery, error) {
	defer ch.mutex.Unlock()
	ch.mutex.Lock()

	return ch.amqpChan.Consume(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
}

func (ch *ChannelWrapper) qos(prefetchCount, prefetchSize int, global bool) error {
	defer ch.mutex.Unlock()
	ch.mutex.Lock()

	return ch.amqpChan.Qos(prefetchCount, prefetchSize, global)
}

//nolint:revive // This method has the same arguments as Channel.ExchangeDeclare from amqp091-go lib.
func (ch *ChannelWrapper) exchangeDeclare(
	name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table,
) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.ExchangeDeclare(name, kind, durable, autoDelete, internal, noWait, args)
}

func (ch *ChannelWrapper) publish(
	ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing,
) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.PublishWithContext(ctx, exchange, key, mandatory, immediate, msg)
}

func (ch *ChannelWrapper) queueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	defer ch.mutex.Unlock()
	ch.mutex.Lock()

	return ch.amqpChan.QueueBind(name, key, exchange, noWait, args)
}

func (ch *ChannelWrapper) queueDeclare(
	name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table,
) (amqp.Queue, error) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.QueueDeclare(name, durable, autoDelete, exclusive, noWait, args)
}

// notifyClose registers a buffered listener so the library never blocks on it.
func (ch *ChannelWrapper) notifyClose() chan *amqp.Error {
	return ch.amqpChan.NotifyClose(make(chan *amqp.Error, 1))
}

func (ch *ChannelWrapper) isClosed() bool {
	return ch.closed.Load()
}

func (ch *ChannelWrapper) isCanceled() bool {
	return ch.canceled.Load()
}

// ExchangeDeclare is a public wrapper around exchangeDeclare
func (ch *ChannelWrapper) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return ch.exchangeDeclare(name, kind, durable, autoDelete, internal, noWait, args)
}

// QueueDeclare is a public wrapper around queueDeclare
func (ch *ChannelWrapper) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return ch.queueDeclare(name, durable, autoDelete, exclusive, noWait, args)
}

// QueueBind is a public wrapper around queueBind
func (ch *ChannelWrapper) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return ch.queueBind(name, key, exchange, noWait, args)
}
