// Package observability wires OpenTelemetry tracing and metrics and the
// structured logger used by the differ and its command line driver.
package observability

import (
	"log/slog"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	defaultServiceName     = "astdiff"
	defaultShutdownTimeout = 5 * time.Second
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the version of the running binary.
	ServiceVersion string

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables OTLP export. Headers come from
	// OTEL_EXPORTER_OTLP_HEADERS.
	OTLPEndpoint string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// SpanExporter receives spans synchronously instead of the OTLP
	// exporter. Embedding programs and tests use it to collect the spans
	// of a run in process.
	SpanExporter sdktrace.SpanExporter

	// DebugTrace samples every span and logs the span attributes the
	// filter drops.
	DebugTrace bool

	// SampleRatio is the trace sampling ratio when DebugTrace is false.
	// Zero defers to OTEL_TRACES_SAMPLER, which defaults to sampling every
	// root span.
	SampleRatio float64

	// RedactPaths replaces file paths in exported spans with digests.
	RedactPaths bool

	// Prometheus collects metrics into a local registry that can be written
	// out with Providers.WriteTextfile.
	Prometheus bool

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// ShutdownTimeout bounds the flush on shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:     defaultServiceName,
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}
