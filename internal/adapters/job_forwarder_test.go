package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architeacher/svc-job-worker/internal/config"
	"github.com/architeacher/svc-job-worker/internal/domain"
	"github.com/architeacher/svc-job-worker/internal/infrastructure"
)

func endpointConfig(baseURL string) config.ServiceEndpointConfig {
	return config.ServiceEndpointConfig{
		BaseURL:          baseURL,
		Path:             "/jobs",
		Timeout:          2 * time.Second,
		MaxRetries:       0,
		RetryWaitTime:    time.Millisecond,
		MaxRetryWaitTime: time.Millisecond,
		UserAgent:        "svc-job-worker-test",
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     time.Minute,
		},
	}
}

func TestHTTPForwarder_Forward(t *testing.T) {
	t.Parallel()

	var received forwardRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/jobs", r.URL.Path)
		assert.Equal(t, "svc-job-worker-test", r.Header.Get("User-Agent"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	forwarder := NewHTTPForwarder("chat", endpointConfig(srv.URL), infrastructure.NewTestLogger(), &infrastructure.NoOpMetrics{})

	job := domain.NewJob("CHAT_PROCESSOR", map[string]any{domain.JobIDKey: "job-1", "text": "hi"})

	require.NoError(t, forwarder.Forward(context.Background(), job))
	assert.Equal(t, "job-1", received.JobID)
	assert.Equal(t, "CHAT_PROCESSOR", received.Worker)
	assert.Equal(t, "hi", received.Payload["text"])
}

func TestHTTPForwarder_ForwardErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"client error is an invalid payload", http.StatusUnprocessableEntity, domain.ErrInvalidPayload},
		{"server error is a downstream failure", http.StatusBadGateway, domain.ErrDownstreamUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			t.Cleanup(srv.Close)

			forwarder := NewHTTPForwarder("chat", endpointConfig(srv.URL), infrastructure.NewTestLogger(), &infrastructure.NoOpMetrics{})

			err := forwarder.Forward(context.Background(), domain.NewJob("CHAT_PROCESSOR", nil))

			assert.ErrorIs(t, err, tc.sentinel)
		})
	}
}

func TestHTTPForwarder_CircuitBreakerOpens(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	forwarder := NewHTTPForwarder("knowledge", endpointConfig(srv.URL), infrastructure.NewTestLogger(), &infrastructure.NoOpMetrics{})
	job := domain.NewJob("KNOWLEDGE_EXTRACTION_PROCESSOR", nil)

	for range 3 {
		assert.ErrorIs(t, forwarder.Forward(context.Background(), job), domain.ErrDownstreamUnavailable)
	}

	err := forwarder.Forward(context.Background(), job)

	assert.ErrorIs(t, err, domain.ErrCircuitBreakerOpen)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPForwarder_ClientErrorsKeepBreakerClosed(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	forwarder := NewHTTPForwarder("chat", endpointConfig(srv.URL), infrastructure.NewTestLogger(), &infrastructure.NoOpMetrics{})
	job := domain.NewJob("CHAT_PROCESSOR", nil)

	for range 4 {
		assert.ErrorIs(t, forwarder.Forward(context.Background(), job), domain.ErrInvalidPayload)
	}

	assert.Equal(t, int32(4), calls.Load())
}
