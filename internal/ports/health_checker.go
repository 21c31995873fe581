package ports

import (
	"context"

	"github.com/architeacher/svc-job-worker/internal/domain"
)

// HealthChecker reports the health of the worker process.
type HealthChecker interface {
	CheckHealth(ctx context.Context) *domain.HealthResult
}
