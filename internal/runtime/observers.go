package runtime

import (
	"context"
	"time"

	"github.com/architeacher/svc-job-worker/internal/infrastructure"
)

// deliveryObserver turns consumer deliveries into metrics.
type deliveryObserver struct {
	worker  string
	metrics infrastructure.Metrics
}

func newDeliveryObserver(worker string, metrics infrastructure.Metrics) deliveryObserver {
	return deliveryObserver{worker: worker, metrics: metrics}
}

func (o deliveryObserver) DeliveryHandled(ctx context.Context, queue string, duration time.Duration, err error) {
	o.metrics.RecordDelivery(ctx, o.worker, queue, duration, err == nil)
}
