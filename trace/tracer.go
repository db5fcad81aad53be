// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trace

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/Juneo-io/epochminter/utils/constants"
	"github.com/Juneo-io/epochminter/version"
)

var _ Tracer = (*tracer)(nil)

type Config struct {
	ExporterConfig `json:"exporterConfig"`

	// Used to flag if tracing should be performed
	Enabled bool `json:"enabled"`

	// The fraction of traces to sample.
	// If >= 1 always samples.
	// If <= 0 never samples.
	TraceSampleRate float64 `json:"traceSampleRate"`
}

type Tracer interface {
	trace.Tracer
	io.Closer
}

type tracer struct {
	trace.Tracer

	tp *sdktrace.TracerProvider
}

func (t *tracer) Close() error {
	return t.tp.Shutdown(context.Background())
}

func New(config Config) (Tracer, error) {
	if !config.Enabled {
		return Noop, nil
	}

	exporter, err := newExporter(config.ExporterConfig)
	if err != nil {
		return nil, err
	}

	tracerProviderOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(exporter, sdktrace.WithExportTimeout(tracerExportTimeout)),
		sdktrace.WithResource(
			resource.NewWithAttributes(semconv.SchemaURL,
				attribute.Stringer("version", version.Current),
				semconv.ServiceNameKey.String(constants.AppName),
			),
		),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(config.TraceSampleRate)),
	}

	tracerProvider := sdktrace.NewTracerProvider(tracerProviderOpts...)
	return &tracer{
		Tracer: tracerProvider.Tracer(constants.AppName),
		tp:     tracerProvider,
	}, nil
}

// Noop is a tracer that records nothing.
var Noop Tracer = noOpTracer{
	Tracer: noop.NewTracerProvider().Tracer(constants.AppName),
}

type noOpTracer struct {
	trace.Tracer
}

func (noOpTracer) Close() error {
	return nil
}
