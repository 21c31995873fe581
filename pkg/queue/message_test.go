package queue

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload_Decode(t *testing.T) {
	t.Parallel()

	type job struct {
		MessageNumber int    `json:"message_number"`
		Prompt        string `json:"prompt"`
	}

	payload := Payload{"message_number": 4.0, "prompt": "hello"}

	var got job
	require.NoError(t, payload.Decode(&got))
	assert.Equal(t, job{MessageNumber: 4, Prompt: "hello"}, got)

	require.Error(t, payload.Decode(got))
	require.Error(t, payload.Decode(nil))
}

func TestDecodePayload(t *testing.T) {
	t.Parallel()

	payload, err := decodePayload([]byte(`{"a":{"b":[1,2]}}`))
	require.NoError(t, err)
	assert.Equal(t, Payload{"a": map[string]any{"b": []any{1.0, 2.0}}}, payload)

	_, err = decodePayload([]byte(`null`))
	require.Error(t, err)

	_, err = decodePayload([]byte(`"text"`))
	require.Error(t, err)
}

func TestEnvelope_Publishing(t *testing.T) {
	t.Parallel()

	delay := -time.Second
	env := Envelope{MessageID: "id-1", Body: []byte(`{}`), Priority: 9, Delay: &delay}

	msg := env.Publishing()

	assert.Equal(t, amqp.Table{DelayHeader: "0"}, msg.Headers)
	assert.Equal(t, uint8(9), msg.Priority)
	assert.Equal(t, "id-1", msg.MessageId)
	assert.False(t, msg.Timestamp.IsZero())
}
