package tracing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.uber.org/zap"
)

// Init installs the global tracer provider and propagator. With an empty
// endpoint spans stay in-process and the returned shutdown does nothing.
func Init(ctx context.Context, serviceName, environment, endpoint string) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	if strings.TrimSpace(endpoint) == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	logger := zap.L().With(zap.String("component", "Tracing"))
	exporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpoint(stripProtocol(endpoint)),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithHTTPClient(&http.Client{Transport: NewLoggingTransport(logger)}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tracerProvider)

	logger.Info("OTLP trace exporter initialized", zap.String("endpoint", endpoint))
	return tracerProvider.Shutdown, nil
}

// stripProtocol reduces an endpoint to host:port; the exporter appends /v1/traces itself.
func stripProtocol(endpoint string) string {
	endpoint = strings.TrimSpace(strings.Trim(endpoint, `"`))

	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if idx := strings.Index(endpoint, "/"); idx != -1 {
			return endpoint[:idx]
		}
		return endpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	}
	return parsed.Host
}
