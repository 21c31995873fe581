package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeKind is the AMQP exchange type a topology declares.
type ExchangeKind string

const (
	ExchangeTopic        ExchangeKind = amqp.ExchangeTopic
	ExchangeDelayedTopic ExchangeKind = "x-delayed-message"
)

const (
	// DelayHeader carries the delivery delay, in milliseconds, for delayed exchanges.
	DelayHeader = "x-delay"

	// MaxPriority is the highest priority a queue can be declared with.
	MaxPriority uint8 = 255

	delayedTypeArg = "x-delayed-type"
	maxPriorityArg = "x-max-priority"
)

// Declarer is implemented by *amqp.Channel and *ChannelWrapper.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// Topology describes one exchange, one queue and the binding between them.
type Topology struct {
	Exchange     string
	ExchangeKind ExchangeKind
	Queue        string
	RoutingKey   string

	// MaxPriority turns the queue into a priority queue when set.
	MaxPriority *uint8
}

// Delayed reports whether the exchange is an x-delayed-message exchange.
func (t Topology) Delayed() bool {
	return t.ExchangeKind == ExchangeDelayedTopic
}

func (t Topology) Validate() error {
	switch {
	case t.Exchange == "":
		return fmt.Errorf("%w: exchange name is required", ErrInvalidTopology)
	case t.Queue == "":
		return fmt.Errorf("%w: queue name is required for exchange %q", ErrInvalidTopology, t.Exchange)
	case t.RoutingKey == "":
		return fmt.Errorf("%w: routing key is required for queue %q", ErrInvalidTopology, t.Queue)
	}

	switch t.ExchangeKind {
	case ExchangeTopic, ExchangeDelayedTopic:
	default:
		return fmt.Errorf("%w: unsupported exchange kind %q", ErrInvalidTopology, t.ExchangeKind)
	}

	return nil
}

func (t Topology) exchangeArgs() amqp.Table {
	if !t.Delayed() {
		return nil
	}

	return amqp.Table{delayedTypeArg: amqp.ExchangeTopic}
}

func (t Topology) queueArgs() amqp.Table {
	if t.MaxPriority == nil {
		return nil
	}

	return amqp.Table{maxPriorityArg: int(*t.MaxPriority)}
}

// Declare idempotently declares the exchange, the queue and the binding of t, in that order.
//
// Exchange and queue are durable. Redeclaring an existing exchange with a different kind,
// or an existing queue with different arguments, fails with a broker precondition error
// which IsFatal reports as fatal.
func Declare(ch Declarer, t Topology) error {
	if err := t.Validate(); err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(t.Exchange, string(t.ExchangeKind), true, false, false, false, t.exchangeArgs()); err != nil {
		return &TopologyError{Op: "declare exchange", Exchange: t.Exchange, Queue: t.Queue, Err: err}
	}

	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, t.queueArgs()); err != nil {
		return &TopologyError{Op: "declare queue", Exchange: t.Exchange, Queue: t.Queue, Err: err}
	}

	if err := ch.QueueBind(t.Queue, t.RoutingKey, t.Exchange, false, nil); err != nil {
		return &TopologyError{Op: "bind queue", Exchange: t.Exchange, Queue: t.Queue, Err: err}
	}

	return nil
}
