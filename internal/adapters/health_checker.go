package adapters

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/architeacher/svc-job-worker/internal/domain"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

type (
	// WorkerStateSource exposes the supervisor lifecycle state.
	WorkerStateSource interface {
		State() queue.State
	}

	// CachePinger is satisfied by redis clients.
	CachePinger interface {
		Ping(ctx context.Context) *redis.StatusCmd
	}

	// HealthChecker implements the health checking functionality
	HealthChecker struct {
		startTime  time.Time
		worker     string
		source     WorkerStateSource
		cache      CachePinger
		reconnects atomic.Int64
	}
)

// NewHealthChecker creates a new health checker instance. cache may be nil.
func NewHealthChecker(worker string, source WorkerStateSource, cache CachePinger) *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		worker:    worker,
		source:    source,
		cache:     cache,
	}
}

// ObserveReconnect counts scheduled reconnects.
func (h *HealthChecker) ObserveReconnect(time.Duration) {
	h.reconnects.Add(1)
}

// CheckHealth performs a comprehensive health check and returns detailed results
func (h *HealthChecker) CheckHealth(ctx context.Context) *domain.HealthResult {
	state := h.source.State()

	result := &domain.HealthResult{
		OverallStatus: workerHealth(state),
		Worker: domain.WorkerStatus{
			Name:       h.worker,
			State:      state.String(),
			Reconnects: h.reconnects.Load(),
		},
		Uptime: float32(time.Since(h.startTime).Seconds()),
	}

	if h.cache != nil {
		cacheStatus := h.checkCacheHealth(ctx)
		result.Cache = &cacheStatus

		if cacheStatus.Status == domain.DependencyCheckStatusUnhealthy &&
			result.OverallStatus == domain.HealthResponseStatusHealthy {
			result.OverallStatus = domain.HealthResponseStatusDegraded
		}
	}

	return result
}

func workerHealth(state queue.State) domain.HealthResponseStatus {
	switch state {
	case queue.StateRunning:
		return domain.HealthResponseStatusHealthy
	case queue.StateIdle, queue.StateBackoff:
		return domain.HealthResponseStatusDegraded
	default:
		return domain.HealthResponseStatusUnhealthy
	}
}

// checkCacheHealth pings the notification cache.
func (h *HealthChecker) checkCacheHealth(ctx context.Context) domain.DependencyStatus {
	start := time.Now()

	status := domain.DependencyStatus{
		Status:      domain.DependencyCheckStatusHealthy,
		LastChecked: start,
	}

	if err := h.cache.Ping(ctx).Err(); err != nil {
		status.Status = domain.DependencyCheckStatusUnhealthy
		status.Error = err.Error()
	}

	status.ResponseTime = float32(time.Since(start).Milliseconds())

	return status
}
