package infrastructure

import (
	"context"
	"fmt"
	"os"

	"github.com/architeacher/svc-job-worker/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const tracerName = "github.com/architeacher/svc-job-worker"

// ShutdownFunc flushes and stops a telemetry provider.
type ShutdownFunc func(ctx context.Context) error

// InitGlobalTracer installs the global tracer provider and propagator. When tracing is
// disabled a no-op provider is installed.
func InitGlobalTracer(ctx context.Context, cfg config.ServiceConfig, logger *Logger) (ShutdownFunc, error) {
	if !cfg.Telemetry.Traces.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		logger.Info().Msg("tracing disabled, using NoOp provider")

		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newSpanExporter(ctx, cfg.Telemetry)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, cfg.AppConfig)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Telemetry.Traces.SamplerRatio))),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info().
		Str("exporter", cfg.Telemetry.ExporterType).
		Float64("sampler_ratio", cfg.Telemetry.Traces.SamplerRatio).
		Msg("OTEL tracer provider initialized successfully")

	return func(ctx context.Context) error {
		if err := provider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown tracer provider: %w", err)
		}

		return nil
	}, nil
}

func newSpanExporter(ctx context.Context, cfg config.Telemetry) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case config.ExporterStdout:
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}

		return exporter, nil
	case config.ExporterGRPC, "":
		conn, err := grpc.NewClient(
			fmt.Sprintf("%s:%s", cfg.OtelGRPCHost, cfg.OtelGRPCPort),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC connection to OTEL collector: %w", err)
		}

		exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(otlptracegrpc.WithGRPCConn(conn)))
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}

		return exporter, nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", cfg.ExporterType)
	}
}

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
