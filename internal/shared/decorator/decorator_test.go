package decorator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/architeacher/svc-job-worker/internal/infrastructure"
)

type (
	PingCommand struct {
		Fail bool
	}

	pingHandler struct{}

	recordedAction struct {
		action  string
		success bool
	}

	recordingMetrics struct {
		actions []recordedAction
	}
)

func (pingHandler) Handle(_ context.Context, cmd PingCommand) (string, error) {
	if cmd.Fail {
		return "", errors.New("ping failed")
	}

	return "pong", nil
}

func (m *recordingMetrics) RecordAction(_ context.Context, action string, _ time.Duration, success bool) {
	m.actions = append(m.actions, recordedAction{action: action, success: success})
}

func TestApplyCommandDecorators(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	metrics := &recordingMetrics{}

	handler := ApplyCommandDecorators[PingCommand, string](pingHandler{}, infrastructure.NewTestLogger(), provider, metrics)

	result, err := handler.Handle(context.Background(), PingCommand{})
	require.NoError(t, err)
	assert.Equal(t, "pong", result)

	_, err = handler.Handle(context.Background(), PingCommand{Fail: true})
	require.EqualError(t, err, "ping failed")

	assert.Equal(t, []recordedAction{
		{action: "commands.PingCommand", success: true},
		{action: "commands.PingCommand", success: false},
	}, metrics.actions)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "commands.PingCommand", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestGenerateActionName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "PingCommand", generateActionName(PingCommand{}))
	assert.Equal(t, "PingCommand", generateActionName(&PingCommand{}))
}
