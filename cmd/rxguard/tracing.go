package main

import (
	"context"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/CodeNeuron58/RxGuard/internal/config"
	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// newTracerProvider builds a batching OTLP/HTTP tracer provider when tracing
// is enabled. Returns nil when disabled; the pipeline then keeps its noop
// tracer. The caller owns Shutdown.
func newTracerProvider(ctx context.Context, cfg config.TracingConfig) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var opts []otlptracehttp.Option
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to initialize trace exporter", err)
	}

	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter)), nil
}
