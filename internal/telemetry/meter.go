package telemetry

import (
	"context"
	"fmt"

	"agentic-context/internal/config"
	"agentic-context/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

// InitMeterProvider installs an OTLP meter provider when telemetry is enabled,
// exporting every cfg.OTelMetricsInterval. The returned shutdown func flushes
// pending data and is always safe to call.
func InitMeterProvider(ctx context.Context, cfg *config.Config) (func(context.Context), error) {
	if !cfg.OTelEnabled {
		return func(context.Context) {}, nil
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTelEndpoint),
		otlpmetricgrpc.WithInsecure(),
		otlpmetricgrpc.WithTemporalitySelector(func(sdkmetric.InstrumentKind) metricdata.Temporality {
			return metricdata.CumulativeTemporality
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(cfg.OTelMetricsInterval),
		)),
	)

	otel.SetMeterProvider(mp)

	logger.Info("OpenTelemetry meter initialized",
		zap.String("endpoint", cfg.OTelEndpoint),
		zap.Duration("interval", cfg.OTelMetricsInterval),
	)

	return func(ctx context.Context) {
		if err := mp.Shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown meter provider", zap.Error(err))
		}
	}, nil
}
