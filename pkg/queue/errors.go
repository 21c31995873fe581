package queue

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrInvalidTopology is returned when a topology cannot be declared as described.
	ErrInvalidTopology = errors.New("invalid topology")

	// ErrProcessorPanic wraps a panic recovered from a message processor.
	ErrProcessorPanic = errors.New("processor panicked")

	// ErrSupervisorStarted is returned when Run is called twice on the same supervisor.
	ErrSupervisorStarted = errors.New("supervisor already started")
)

// TopologyError reports which declaration step failed. Nothing declared before the
// failing step is rolled back.
type TopologyError struct {
	Op       string
	Exchange string
	Queue    string
	Err      error
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("failed to %s (exchange %q, queue %q): %v", e.Op, e.Exchange, e.Queue, e.Err)
}

func (e *TopologyError) Unwrap() error {
	return e.Err
}

// SetupError reports a failure while preparing a channel for consuming.
type SetupError struct {
	Stage string
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Stage, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err points at a misconfiguration that reconnecting cannot fix.
//
// Connection level failures are never fatal. Broker errors raised while declaring the
// topology or starting the consumer are fatal when their reply code says the request
// itself is wrong (access refused, not found, precondition failed and so on).
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidTopology) {
		return true
	}

	var (
		topologyErr *TopologyError
		setupErr    *SetupError
	)

	if !errors.As(err, &topologyErr) && !errors.As(err, &setupErr) {
		return false
	}

	var amqpErr *amqp.Error
	if !errors.As(err, &amqpErr) {
		return false
	}

	return isFatalCode(amqpErr.Code)
}

func isFatalCode(code int) bool {
	switch code {
	case amqp.AccessRefused,
		amqp.NotFound,
		amqp.PreconditionFailed,
		amqp.CommandInvalid,
		amqp.NotAllowed,
		amqp.NotImplemented:
		return true
	default:
		return false
	}
}
