package config

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ObservabilityProviders holds the OpenTelemetry providers registered as globals.
type ObservabilityProviders struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

// NewObservabilityProviders registers global tracer and meter providers for the service.
// Spans are exported over OTLP/HTTP when an endpoint is configured, otherwise they stay in process.
func NewObservabilityProviders(ctx context.Context, cfg Config, metricReaders ...metric.Reader) (*ObservabilityProviders, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	traceOptions := []trace.TracerProviderOption{trace.WithResource(res)}

	if cfg.OTLPEndpoint != "" {
		exporter, exporterErr := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
		if exporterErr != nil {
			return nil, exporterErr
		}

		traceOptions = append(traceOptions, trace.WithBatcher(exporter))
	}

	meterOptions := []metric.Option{metric.WithResource(res)}
	for _, reader := range metricReaders {
		meterOptions = append(meterOptions, metric.WithReader(reader))
	}

	providers := &ObservabilityProviders{
		TracerProvider: trace.NewTracerProvider(traceOptions...),
		MeterProvider:  metric.NewMeterProvider(meterOptions...),
	}

	otel.SetTracerProvider(providers.TracerProvider)
	otel.SetMeterProvider(providers.MeterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return providers, nil
}

// Shutdown flushes and stops both providers.
func (p *ObservabilityProviders) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.TracerProvider.Shutdown(ctx),
		p.MeterProvider.Shutdown(ctx),
	)
}
