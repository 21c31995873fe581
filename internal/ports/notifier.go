//go:generate go tool github.com/maxbrunsfeld/counterfeiter/v6 -generate

package ports

import (
	"context"

	"github.com/architeacher/svc-job-worker/internal/domain"
)

//counterfeiter:generate -o ../mocks/notifier.go . Notifier

// Notifier broadcasts job lifecycle events to interested clients.
type Notifier interface {
	Notify(ctx context.Context, event domain.JobEvent) error
}
