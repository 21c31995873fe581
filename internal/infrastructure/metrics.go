//go:generate go tool github.com/maxbrunsfeld/counterfeiter/v6 -generate

package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/architeacher/svc-job-worker/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	metricsNamespace = "job_worker"
)

type (
	//counterfeiter:generate -o ../mocks/metrics.go . Metrics

	Metrics interface {
		RecordDelivery(ctx context.Context, worker, queue string, duration time.Duration, success bool)
		RecordReconnect(ctx context.Context, worker string, delay time.Duration)
		RecordWorkerState(ctx context.Context, worker, state string)
		RecordPublish(ctx context.Context, exchange string, delayed, success bool)
		RecordDownstreamCall(ctx context.Context, service string, duration time.Duration, success bool)
		RecordAction(ctx context.Context, action string, duration time.Duration, success bool)
		Handler() http.Handler
		Shutdown(ctx context.Context) error
	}

	OTELMetrics struct {
		meterProvider *sdkmetric.MeterProvider
		meter         metric.Meter
		logger        *Logger

		deliveriesTotal         metric.Int64Counter
		deliveryErrorsTotal     metric.Int64Counter
		processingTimeDuration  metric.Float64Histogram
		reconnectsTotal         metric.Int64Counter
		reconnectDelay          metric.Float64Histogram
		workerStateTransitions  metric.Int64Counter
		publishedTotal          metric.Int64Counter
		downstreamCallsTotal    metric.Int64Counter
		downstreamCallsDuration metric.Float64Histogram
		actionsTotal            metric.Int64Counter
		actionDuration          metric.Float64Histogram
	}
)

func NewMetrics(ctx context.Context, cfg config.ServiceConfig, logger *Logger) (Metrics, error) {
	if !cfg.Telemetry.Metrics.Enabled {
		logger.Info().Msg("metrics disabled, using NoOp implementation")

		return &NoOpMetrics{}, nil
	}

	return NewOTELMetrics(ctx, cfg, logger)
}

func NewOTELMetrics(ctx context.Context, cfg config.ServiceConfig, logger *Logger) (*OTELMetrics, error) {
	endpoint := fmt.Sprintf("%s:%s", cfg.Telemetry.OtelGRPCHost, cfg.Telemetry.OtelGRPCPort)

	conn, err := grpc.NewClient(
		endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTEL collector: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg.AppConfig)
	if err != nil {
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(meterProvider)

	provider, err := newOTELMetrics(meterProvider, cfg.AppConfig.ServiceVersion, logger.Component("metrics"))
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("otel_endpoint", endpoint).
		Msg("OTEL metrics provider initialized successfully")

	return provider, nil
}

func newOTELMetrics(meterProvider *sdkmetric.MeterProvider, version string, logger *Logger) (*OTELMetrics, error) {
	provider := &OTELMetrics{
		meterProvider: meterProvider,
		meter: meterProvider.Meter(
			metricsNamespace,
			metric.WithInstrumentationVersion(version),
		),
		logger: logger,
	}

	if err := provider.initializeMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return provider, nil
}

func newResource(ctx context.Context, app config.AppConfig) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(app.ServiceName),
			semconv.ServiceVersionKey.String(app.ServiceVersion),
			semconv.ServiceInstanceIDKey.String(app.CommitSHA),
			semconv.DeploymentEnvironmentKey.String(app.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}

func (om *OTELMetrics) initializeMetrics() error {
	var err error

	om.deliveriesTotal, err = om.meter.Int64Counter(
		"deliveries_total",
		metric.WithDescription("Total number of deliveries handled by workers"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create deliveries_total counter: %w", err)
	}

	om.deliveryErrorsTotal, err = om.meter.Int64Counter(
		"delivery_errors_total",
		metric.WithDescription("Total number of deliveries whose processing failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create delivery_errors_total counter: %w", err)
	}

	om.processingTimeDuration, err = om.meter.Float64Histogram(
		"processing_time_seconds",
		metric.WithDescription("Time spent processing a delivery in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create processing_time_seconds histogram: %w", err)
	}

	om.reconnectsTotal, err = om.meter.Int64Counter(
		"reconnects_total",
		metric.WithDescription("Total number of consumer reconnect attempts"),
		metric.WithUnit("{reconnect}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create reconnects_total counter: %w", err)
	}

	om.reconnectDelay, err = om.meter.Float64Histogram(
		"reconnect_delay_seconds",
		metric.WithDescription("Delay slept before a reconnect attempt in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create reconnect_delay_seconds histogram: %w", err)
	}

	om.workerStateTransitions, err = om.meter.Int64Counter(
		"worker_state_transitions_total",
		metric.WithDescription("Total number of worker supervisor state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create worker_state_transitions_total counter: %w", err)
	}

	om.publishedTotal, err = om.meter.Int64Counter(
		"published_total",
		metric.WithDescription("Total number of publish attempts"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create published_total counter: %w", err)
	}

	om.downstreamCallsTotal, err = om.meter.Int64Counter(
		"downstream_calls_total",
		metric.WithDescription("Total number of calls made by processors to downstream services"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create downstream_calls_total counter: %w", err)
	}

	om.downstreamCallsDuration, err = om.meter.Float64Histogram(
		"downstream_call_duration_seconds",
		metric.WithDescription("Downstream call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create downstream_call_duration_seconds histogram: %w", err)
	}

	om.actionsTotal, err = om.meter.Int64Counter(
		"actions_total",
		metric.WithDescription("Total number of application commands handled"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create actions_total counter: %w", err)
	}

	om.actionDuration, err = om.meter.Float64Histogram(
		"action_duration_seconds",
		metric.WithDescription("Application command duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create action_duration_seconds histogram: %w", err)
	}

	return nil
}

func (om *OTELMetrics) RecordDelivery(ctx context.Context, worker, queue string, duration time.Duration, success bool) {
	attrs := metric.WithAttributes(
		WorkerAttr(worker),
		QueueAttr(queue),
		StatusAttr(statusOf(success)),
	)

	om.deliveriesTotal.Add(ctx, 1, attrs)
	om.processingTimeDuration.Record(ctx, duration.Seconds(), attrs)

	if !success {
		om.deliveryErrorsTotal.Add(ctx, 1,
			metric.WithAttributes(
				WorkerAttr(worker),
				QueueAttr(queue),
			),
		)
	}
}

func (om *OTELMetrics) RecordReconnect(ctx context.Context, worker string, delay time.Duration) {
	om.reconnectsTotal.Add(ctx, 1,
		metric.WithAttributes(
			WorkerAttr(worker),
		),
	)

	om.reconnectDelay.Record(ctx, delay.Seconds(),
		metric.WithAttributes(
			WorkerAttr(worker),
		),
	)
}

func (om *OTELMetrics) RecordWorkerState(ctx context.Context, worker, state string) {
	om.workerStateTransitions.Add(ctx, 1,
		metric.WithAttributes(
			WorkerAttr(worker),
			StateAttr(state),
		),
	)
}

func (om *OTELMetrics) RecordPublish(ctx context.Context, exchange string, delayed, success bool) {
	om.publishedTotal.Add(ctx, 1,
		metric.WithAttributes(
			ExchangeAttr(exchange),
			DelayedAttr(delayed),
			StatusAttr(statusOf(success)),
		),
	)
}

func (om *OTELMetrics) RecordDownstreamCall(ctx context.Context, service string, duration time.Duration, success bool) {
	attrs := metric.WithAttributes(
		ServiceAttr(service),
		StatusAttr(statusOf(success)),
	)

	om.downstreamCallsTotal.Add(ctx, 1, attrs)
	om.downstreamCallsDuration.Record(ctx, duration.Seconds(), attrs)
}

func (om *OTELMetrics) RecordAction(ctx context.Context, action string, duration time.Duration, success bool) {
	attrs := metric.WithAttributes(
		ActionAttr(action),
		StatusAttr(statusOf(success)),
	)

	om.actionsTotal.Add(ctx, 1, attrs)
	om.actionDuration.Record(ctx, duration.Seconds(), attrs)
}

func (om *OTELMetrics) Handler() http.Handler {
	return promhttp.Handler()
}

func (om *OTELMetrics) Shutdown(ctx context.Context) error {
	if err := om.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}

	return nil
}
