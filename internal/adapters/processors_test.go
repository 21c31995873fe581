package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/architeacher/svc-job-worker/internal/domain"
	"github.com/architeacher/svc-job-worker/internal/infrastructure"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

type (
	mockForwarder struct {
		mock.Mock
	}

	mockNotifier struct {
		mock.Mock
	}
)

func (m *mockForwarder) Forward(ctx context.Context, job domain.Job) error {
	return m.Called(ctx, job).Error(0)
}

func (m *mockNotifier) Notify(ctx context.Context, event domain.JobEvent) error {
	return m.Called(ctx, event).Error(0)
}

func withStatus(status domain.JobStatus) any {
	return mock.MatchedBy(func(event domain.JobEvent) bool {
		return event.Status == status && event.JobID == "job-1" && event.Worker == "CHAT_PROCESSOR"
	})
}

func TestForwardingProcessor_Process(t *testing.T) {
	t.Parallel()

	payload := queue.Payload{domain.JobIDKey: "job-1", "text": "hello"}

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		forwarder, notifier := new(mockForwarder), new(mockNotifier)
		forwarder.On("Forward", mock.Anything, mock.MatchedBy(func(job domain.Job) bool {
			return job.ID == "job-1" && job.Payload["text"] == "hello"
		})).Return(nil).Once()
		notifier.On("Notify", mock.Anything, withStatus(domain.JobStatusStarted)).Return(nil).Once()
		notifier.On("Notify", mock.Anything, withStatus(domain.JobStatusCompleted)).Return(nil).Once()

		processor := NewForwardingProcessor("CHAT_PROCESSOR", forwarder, notifier, infrastructure.NewTestLogger())

		require.NoError(t, processor.Process(context.Background(), payload))
		forwarder.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("forward failure is reported", func(t *testing.T) {
		t.Parallel()

		downstreamErr := domain.NewDownstreamError("chat", 502, errors.New("bad gateway"))

		forwarder, notifier := new(mockForwarder), new(mockNotifier)
		forwarder.On("Forward", mock.Anything, mock.Anything).Return(downstreamErr).Once()
		notifier.On("Notify", mock.Anything, withStatus(domain.JobStatusStarted)).Return(nil).Once()
		notifier.On("Notify", mock.Anything, mock.MatchedBy(func(event domain.JobEvent) bool {
			return event.Status == domain.JobStatusFailed && event.Error != ""
		})).Return(nil).Once()

		processor := NewForwardingProcessor("CHAT_PROCESSOR", forwarder, notifier, infrastructure.NewTestLogger())

		err := processor.Process(context.Background(), payload)

		assert.ErrorIs(t, err, domain.ErrDownstreamUnavailable)
		notifier.AssertExpectations(t)
	})

	t.Run("notifier failure does not fail the job", func(t *testing.T) {
		t.Parallel()

		forwarder, notifier := new(mockForwarder), new(mockNotifier)
		forwarder.On("Forward", mock.Anything, mock.Anything).Return(nil).Once()
		notifier.On("Notify", mock.Anything, mock.Anything).Return(domain.ErrNotifierUnavailable).Twice()

		processor := NewForwardingProcessor("CHAT_PROCESSOR", forwarder, notifier, infrastructure.NewTestLogger())

		assert.NoError(t, processor.Process(context.Background(), payload))
		notifier.AssertExpectations(t)
	})
}

func TestTestProcessor_Process(t *testing.T) {
	t.Parallel()

	t.Run("completes after the countdown", func(t *testing.T) {
		t.Parallel()

		processor := NewTestProcessor(30*time.Millisecond, infrastructure.NewTestLogger())
		processor.tick = 10 * time.Millisecond

		start := time.Now()
		require.NoError(t, processor.Process(context.Background(), queue.Payload{"message_number": 1.0}))
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("zero countdown returns immediately", func(t *testing.T) {
		t.Parallel()

		processor := NewTestProcessor(0, infrastructure.NewTestLogger())

		assert.NoError(t, processor.Process(context.Background(), queue.Payload{}))
	})

	t.Run("cancellation interrupts the countdown", func(t *testing.T) {
		t.Parallel()

		processor := NewTestProcessor(time.Hour, infrastructure.NewTestLogger())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, processor.Process(ctx, queue.Payload{}), context.Canceled)
	})
}
