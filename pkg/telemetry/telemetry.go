// Package telemetry wires OpenTelemetry tracing for memscope.
//
// Tracing is configured from the standard OTEL_* environment variables and
// is off unless OTEL_ENABLED=true. When off, the global TracerProvider stays
// the no-op default and spans cost nothing.
//
//	OTEL_ENABLED                 - enable tracing (default: false)
//	OTEL_SERVICE_NAME            - service name (default: memscope)
//	OTEL_SERVICE_VERSION         - service version (default: unknown)
//	OTEL_EXPORTER_OTLP_ENDPOINT  - OTLP collector endpoint
//	OTEL_EXPORTER_OTLP_PROTOCOL  - grpc or http/protobuf (default: grpc)
//	OTEL_EXPORTER_OTLP_HEADERS   - exporter headers, key=value pairs
//	OTEL_EXPORTER_OTLP_INSECURE  - plaintext connection (default: false)
//	OTEL_TRACES_SAMPLER          - sampler name (default: always_on)
//	OTEL_TRACES_SAMPLER_ARG      - sampler argument, e.g. a ratio
//	OTEL_RESOURCE_ATTRIBUTES     - extra resource attributes
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer used throughout memscope.
const InstrumentationName = "github.com/memscope"

// Attribute keys recorded on scan spans.
const (
	AttrScanSource   = attribute.Key("memscope.scan.source")
	AttrScanBase     = attribute.Key("memscope.scan.base")
	AttrScanSize     = attribute.Key("memscope.scan.size")
	AttrScanFindings = attribute.Key("memscope.scan.findings")
	AttrScanLayout   = attribute.Key("memscope.scan.layout")
)

var (
	globalConfig *Config
	configOnce   sync.Once
)

// ShutdownFunc flushes and stops the TracerProvider.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(_ context.Context) error {
	return nil
}

// Init installs the global TracerProvider. Without OTEL_ENABLED=true it
// does nothing and returns a no-op shutdown.
func Init(ctx context.Context) (ShutdownFunc, error) {
	cfg := loadConfig()
	if !cfg.Enabled {
		return noopShutdown, nil
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(createSampler(cfg)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Tracer returns the memscope tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// Enabled returns whether OpenTelemetry tracing is enabled.
func Enabled() bool {
	return loadConfig().Enabled
}

// GetConfig returns the current telemetry configuration.
func GetConfig() *Config {
	return loadConfig()
}

func loadConfig() *Config {
	configOnce.Do(func() {
		globalConfig = LoadFromEnv()
	})
	return globalConfig
}
