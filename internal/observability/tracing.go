package observability

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
	"go.uber.org/zap"
)

// InitTracing installs the global tracer provider. The OTLP endpoint comes
// from the standard OTEL_EXPORTER_OTLP_* environment; tracing is off unless
// OTEL_ENABLED is truthy. The returned shutdown flushes pending spans.
func InitTracing(ctx context.Context, serviceName, environment string, log *zap.Logger) func(context.Context) error {
	if !tracingEnabled() {
		return func(context.Context) error { return nil }
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(serviceName),
		attribute.String("deployment.environment", environment),
	))
	if err != nil {
		log.Warn("otel resource init failed, continuing", zap.Error(err))
	}

	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		log.Warn("otel exporter init failed, tracing disabled", zap.Error(err))
		return func(context.Context) error { return nil }
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Info("otel tracing initialized", zap.String("service", serviceName))
	return tp.Shutdown
}

func tracingEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_ENABLED"))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
