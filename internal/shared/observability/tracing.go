package observability

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer is the package-wide tracer used for pipeline phase spans.
var Tracer trace.Tracer = noop.NewTracerProvider().Tracer("monoscope")

// SetupTracing installs an OTLP gRPC exporter when OTEL_EXPORTER_OTLP_ENDPOINT
// is set; otherwise spans stay no-op. Returns a shutdown func.
func SetupTracing(ctx context.Context) (func(context.Context) error, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	Tracer = tp.Tracer("monoscope")

	return tp.Shutdown, nil
}
