package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const contentTypeJSON = "application/json"

// Payload is the decoded JSON object carried by a job message.
type Payload map[string]any

// Decode re-encodes the payload and stores the result in the value pointed to by target.
func (p Payload) Decode(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return errors.New("target must be a non-nil pointer")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("could not marshal payload: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("could not unmarshal into target: %w", err)
	}

	return nil
}

// Processor handles one decoded message. Its outcome is logged, never redelivered.
type Processor interface {
	Process(ctx context.Context, payload Payload) error
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc func(ctx context.Context, payload Payload) error

func (f ProcessorFunc) Process(ctx context.Context, payload Payload) error {
	return f(ctx, payload)
}

func decodePayload(body []byte) (Payload, error) {
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("could not decode message body: %w", err)
	}

	if payload == nil {
		return nil, errors.New("could not decode message body: payload must be a JSON object")
	}

	return payload, nil
}

// Envelope is a message ready to be handed to the broker.
type Envelope struct {
	Exchange   string
	RoutingKey string
	MessageID  string
	Body       []byte
	Priority   uint8
	Delay      *time.Duration
}

func newEnvelope(exchange, routingKey string, data any, opts publishOptions) (Envelope, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("could not marshal message: %w", err)
	}

	env := Envelope{
		Exchange:   exchange,
		RoutingKey: routingKey,
		MessageID:  uuid.NewString(),
		Body:       body,
		Delay:      opts.delay,
	}

	if opts.priority != nil {
		env.Priority = *opts.priority
	}

	return env, nil
}

// Publishing converts the envelope into a persistent AMQP publishing.
func (e Envelope) Publishing() amqp.Publishing {
	msg := amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		Priority:     e.Priority,
		MessageId:    e.MessageID,
		Timestamp:    time.Now().UTC(),
		Body:         e.Body,
	}

	if e.Delay != nil {
		msg.Headers = amqp.Table{DelayHeader: delayHeaderValue(*e.Delay)}
	}

	return msg
}

func delayHeaderValue(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	return strconv.FormatInt(d.Milliseconds(), 10)
}
