//go:generate go tool github.com/maxbrunsfeld/counterfeiter/v6 -generate

package ports

import (
	"context"

	"github.com/architeacher/svc-job-worker/internal/domain"
)

//counterfeiter:generate -o ../mocks/job_forwarder.go . JobForwarder

// JobForwarder hands a job over to the downstream service that executes it.
type JobForwarder interface {
	Forward(ctx context.Context, job domain.Job) error
}
