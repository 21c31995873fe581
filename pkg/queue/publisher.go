package queue

import (
	"context"
	"fmt"
	"time"
)

// Publisher sends JSON messages to an exchange. It keeps no connection between calls.
type Publisher struct {
	cfg     Config
	options publisherOptions
}

func NewPublisher(cfg Config, opts ...PublisherOption) *Publisher {
	options := defaultPublisherOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if options.logger == nil {
		options.logger = nopLogger{}
	}

	return &Publisher{
		cfg:     cfg,
		options: options,
	}
}

// DryRun reports whether messages are only logged.
func (p *Publisher) DryRun() bool {
	return p.options.dryRun
}

// Publish serializes data as JSON and publishes it as a persistent message.
//
// A fresh connection and channel are opened for the call and closed before it returns.
func (p *Publisher) Publish(ctx context.Context, exchange, routingKey string, data any, opts ...PublishOption) error {
	options := publishOptions{timeout: p.options.timeout}
	for _, opt := range opts {
		opt(&options)
	}

	env, err := newEnvelope(exchange, routingKey, data, options)
	if err != nil {
		return err
	}

	if p.options.dryRun {
		event := p.options.logger.Warn().
			Str("exchange", exchange).
			Str("routing_key", routingKey).
			Str("message_id", env.MessageID).
			Str("body", string(env.Body)).
			Int("priority", int(env.Priority))
		if env.Delay != nil {
			event = event.Dur("delay", *env.Delay)
		}

		event.Msg("dry run enabled, message not published")

		return nil
	}

	conn, err := p.options.dial(p.cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	defer func() {
		if cerr := closeConnection(conn); cerr != nil {
			p.options.logger.Error().Err(cerr).Msg("failed to close publisher connection")
		}
	}()

	amqpCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	ch := newChannelWrapper(amqpCh, p.options.logger)
	defer func() {
		_ = ch.Close()
	}()

	if options.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.timeout)

		defer cancel()
	}

	if err := ch.publish(ctx, env.Exchange, env.RoutingKey, false, false, env.Publishing()); err != nil {
		return fmt.Errorf("failed to publish message to exchange %q with routing key %q: %w", exchange, routingKey, err)
	}

	event := p.options.logger.Debug().
		Str("exchange", exchange).
		Str("routing_key", routingKey).
		Str("message_id", env.MessageID).
		Int("priority", int(env.Priority))
	if env.Delay != nil {
		event = event.Dur("delay", *env.Delay)
	}

	event.Msg("message published")

	return nil
}

// PublishDelayed publishes data with the x-delay header set to delay.
func (p *Publisher) PublishDelayed(ctx context.Context, exchange, routingKey string, data any, delay time.Duration, opts ...PublishOption) error {
	return p.Publish(ctx, exchange, routingKey, data, append(opts, WithDelay(delay))...)
}
