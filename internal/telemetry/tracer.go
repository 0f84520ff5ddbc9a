package telemetry

import (
	"context"
	"fmt"

	"agentic-context/internal/config"
	"agentic-context/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"
)

const ServiceName = "agentic-context"

// InitTracer installs an OTLP tracer provider when tracing is enabled.
// The returned shutdown func is always safe to call.
func InitTracer(ctx context.Context, cfg *config.Config) (func(context.Context), error) {
	if !cfg.OTelEnabled {
		return func(context.Context) {}, nil
	}

	// Create OTLP exporter (to Jaeger, Tempo, etc.)
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.OTelSamplingRatio))),
	)

	otel.SetTracerProvider(tp)

	logger.Info("OpenTelemetry tracer initialized",
		zap.String("service", ServiceName),
		zap.String("endpoint", cfg.OTelEndpoint),
		zap.Float64("sampling_ratio", cfg.OTelSamplingRatio),
	)

	return func(ctx context.Context) {
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(err))
		}
	}, nil
}

// newResource describes this service to the tracer and meter providers.
func newResource(ctx context.Context, cfg *config.Config) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(ServiceName),
			semconv.ServiceVersionKey.String("1.0.0"),
			semconv.DeploymentEnvironmentKey.String(cfg.GinMode),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
