package infrastructure

import (
	"context"
	"net/http"
	"time"
)

type NoOpMetrics struct{}

func (n *NoOpMetrics) RecordDelivery(_ context.Context, _, _ string, _ time.Duration, _ bool) {
}

func (n *NoOpMetrics) RecordReconnect(_ context.Context, _ string, _ time.Duration) {
}

func (n *NoOpMetrics) RecordWorkerState(_ context.Context, _, _ string) {
}

func (n *NoOpMetrics) RecordPublish(_ context.Context, _ string, _, _ bool) {
}

func (n *NoOpMetrics) RecordDownstreamCall(_ context.Context, _ string, _ time.Duration, _ bool) {
}

func (n *NoOpMetrics) RecordAction(_ context.Context, _ string, _ time.Duration, _ bool) {
}

func (n *NoOpMetrics) Handler() http.Handler {
	return http.NotFoundHandler()
}

func (n *NoOpMetrics) Shutdown(_ context.Context) error {
	return nil
}
