//go:generate go tool github.com/maxbrunsfeld/counterfeiter/v6 -generate

package ports

import (
	"context"

	"github.com/architeacher/svc-job-worker/pkg/queue"
)

//counterfeiter:generate -o ../mocks/job_publisher.go . JobPublisher

// JobPublisher emits one message per call to a broker exchange.
type JobPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, data any, opts ...queue.PublishOption) error
}
