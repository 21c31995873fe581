package runtime

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/architeacher/svc-job-worker/internal/config"
	"github.com/architeacher/svc-job-worker/internal/infrastructure"
	"github.com/architeacher/svc-job-worker/internal/workers"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

type fakeSession struct {
	err        error
	ignoreStop bool
	stopped    chan struct{}
	stopOnce   sync.Once
	closeCalls atomic.Int32
}

func newFakeSession() *fakeSession {
	return &fakeSession{stopped: make(chan struct{})}
}

func (s *fakeSession) Run(ctx context.Context) error {
	if s.err != nil {
		return s.err
	}

	select {
	case <-s.stopped:
	case <-ctx.Done():
	}

	return nil
}

func (s *fakeSession) Stop() {
	if s.ignoreStop {
		return
	}

	s.stopOnce.Do(func() { close(s.stopped) })
}

func (s *fakeSession) CloseConnection() error {
	s.closeCalls.Add(1)

	return nil
}

func (s *fakeSession) WasConsuming() bool    { return true }
func (s *fakeSession) ShouldReconnect() bool { return false }

func newTestWorkerCtx(session queue.Session, shutdownTimeout time.Duration) *WorkerCtx {
	cfg := &config.ServiceConfig{}
	cfg.Workers.ShutdownTimeout = shutdownTimeout
	cfg.HealthServer.ShutdownTimeout = time.Second

	wCtx := NewWorker(workers.TestProcessor)
	wCtx.workerCtx, wCtx.workerStopFunc = context.WithCancel(context.Background())
	wCtx.deps = &Dependencies{
		cfg:    cfg,
		logger: infrastructure.NewTestLogger(),
		Infra: InfrastructureDeps{
			Metrics: &infrastructure.NoOpMetrics{},
			Supervisor: queue.NewSupervisor(workers.TestProcessor, func() queue.Session {
				return session
			}),
		},
	}

	return wCtx
}

func waitRunning(t *testing.T, workerCtx *WorkerCtx) {
	t.Helper()

	require.Eventually(t, func() bool {
		return workerCtx.deps.Infra.Supervisor.State() == queue.StateRunning
	}, time.Second, 5*time.Millisecond)
}

func TestNewWorker(t *testing.T) {
	t.Parallel()

	t.Run("creates worker context with default values", func(t *testing.T) {
		t.Parallel()

		workerCtx := NewWorker(workers.ChatProcessor)

		require.NotNil(t, workerCtx)
		require.Equal(t, workers.ChatProcessor, workerCtx.worker)
		require.NotNil(t, workerCtx.shutdownChannel)
		require.NotNil(t, workerCtx.done)
		require.Nil(t, workerCtx.deps)
	})

	t.Run("creates worker context with options", func(t *testing.T) {
		t.Parallel()

		ch := make(chan os.Signal, 1)
		workerCtx := NewWorker(workers.ChatProcessor, WithWorkerTermination(ch))

		require.Equal(t, ch, workerCtx.shutdownChannel)
	})
}

func TestNewPublisher(t *testing.T) {
	t.Parallel()

	t.Run("creates publisher context with default values", func(t *testing.T) {
		t.Parallel()

		publisherCtx := NewPublisher()

		require.NotNil(t, publisherCtx)
		require.NotNil(t, publisherCtx.shutdownChannel)
		require.Nil(t, publisherCtx.deps)
	})

	t.Run("creates publisher context with options", func(t *testing.T) {
		t.Parallel()

		ch := make(chan os.Signal, 1)
		publisherCtx := NewPublisher(WithPublisherTermination(ch))

		require.Equal(t, ch, publisherCtx.shutdownChannel)
	})
}

func TestWorkerCtx_Shutdown(t *testing.T) {
	t.Parallel()

	t.Run("stops gracefully on signal", func(t *testing.T) {
		t.Parallel()

		workerCtx := newTestWorkerCtx(newFakeSession(), time.Second)

		workerCtx.start()
		waitRunning(t, workerCtx)
		workerCtx.shutdownChannel <- syscall.SIGTERM

		require.NoError(t, workerCtx.shutdown())
		require.Equal(t, queue.StateStopped, workerCtx.deps.Infra.Supervisor.State())
		require.Error(t, workerCtx.workerCtx.Err())
	})

	t.Run("returns the fatal error of the supervisor", func(t *testing.T) {
		t.Parallel()

		errFatal := errors.New("access refused")
		session := newFakeSession()
		session.err = errFatal

		workerCtx := newTestWorkerCtx(session, time.Second)

		workerCtx.start()

		err := workerCtx.shutdown()
		require.ErrorIs(t, err, errFatal)
		require.Equal(t, queue.StateFailed, workerCtx.deps.Infra.Supervisor.State())
	})

	t.Run("gives up after the shutdown timeout", func(t *testing.T) {
		t.Parallel()

		session := newFakeSession()
		session.ignoreStop = true

		workerCtx := newTestWorkerCtx(session, 50*time.Millisecond)

		workerCtx.start()
		waitRunning(t, workerCtx)
		workerCtx.shutdownChannel <- syscall.SIGINT

		require.ErrorIs(t, workerCtx.shutdown(), ErrShutdownTimeout)
		require.GreaterOrEqual(t, session.closeCalls.Load(), int32(1))
	})
}

func TestNumberedPayload(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		payload  map[string]any
		number   int
		count    int
		expected map[string]any
	}{
		{
			name:     "single message is left untouched",
			payload:  map[string]any{"text": "hi"},
			number:   1,
			count:    1,
			expected: map[string]any{"text": "hi"},
		},
		{
			name:     "batch messages are numbered",
			payload:  map[string]any{"text": "hi"},
			number:   3,
			count:    5,
			expected: map[string]any{"text": "hi", messageNumberKey: 3},
		},
		{
			name:     "nil payload gets a number",
			number:   2,
			count:    2,
			expected: map[string]any{messageNumberKey: 2},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, numberedPayload(tc.payload, tc.number, tc.count))
		})
	}

	t.Run("does not mutate the original payload", func(t *testing.T) {
		t.Parallel()

		original := map[string]any{"text": "hi"}
		_ = numberedPayload(original, 1, 2)

		require.NotContains(t, original, messageNumberKey)
	})
}
