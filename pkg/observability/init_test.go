package observability_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Sumatoshi-tech/astdiff/pkg/observability"
)

func TestInit_NoopWhenNoEndpoint(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)
	assert.Nil(t, providers.Registry)

	ctx, span := providers.Tracer.Start(context.Background(), "diff")
	span.End()
	assert.NotNil(t, ctx)

	require.NoError(t, providers.Shutdown(context.Background()))
	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_WriteTextfileWithoutRegistry(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	err = providers.WriteTextfile(filepath.Join(t.TempDir(), "astdiff.prom"))
	require.ErrorIs(t, err, observability.ErrNoRegistry)
}

func TestInit_PrometheusTextfile(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Prometheus = true

	providers, err := observability.Init(cfg)
	require.NoError(t, err)
	require.NotNil(t, providers.Registry)

	metrics, err := observability.NewDiffMetrics(providers.Meter)
	require.NoError(t, err)

	metrics.RecordRun(context.Background(), observability.DiffStats{
		FilePairs: 2,
		Mappings:  40,
		Actions:   map[string]int{"update-node": 3},
	})

	path := filepath.Join(t.TempDir(), "astdiff.prom")
	require.NoError(t, providers.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "astdiff_file_pairs")
	assert.Contains(t, string(data), "update-node")

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_SpanExporterGetsResource(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()

	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = "v1.2.3"
	cfg.SpanExporter = exporter

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	_, span := providers.Tracer.Start(context.Background(), "astdiff.diff")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	version, ok := spans[0].Resource.Set().Value(semconv.ServiceVersionKey)
	require.True(t, ok)
	assert.Equal(t, "v1.2.3", version.AsString())

	require.NoError(t, providers.Shutdown(context.Background()))
}

// sampled reports whether a root span started through Init is exported.
func sampled(t *testing.T, cfg observability.Config) bool {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	cfg.SpanExporter = exporter

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	_, span := providers.Tracer.Start(context.Background(), "astdiff.diff")
	span.End()

	n := len(exporter.GetSpans())
	require.NoError(t, providers.Shutdown(context.Background()))

	return n > 0
}

func TestSampler_FromEnv(t *testing.T) {
	tests := []struct {
		name    string
		sampler string
		arg     string
		want    bool
	}{
		{"always_on", "always_on", "", true},
		{"always_off", "always_off", "", false},
		{"ratio_one", "traceidratio", "1.0", true},
		{"parent_off", "parentbased_always_off", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_TRACES_SAMPLER", tt.sampler)
			t.Setenv("OTEL_TRACES_SAMPLER_ARG", tt.arg)

			assert.Equal(t, tt.want, sampled(t, observability.DefaultConfig()))
		})
	}
}

func TestSampler_ConfigOverridesEnv(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLER", "always_off")

	t.Run("debug_trace", func(t *testing.T) {
		cfg := observability.DefaultConfig()
		cfg.DebugTrace = true

		assert.True(t, sampled(t, cfg))
	})

	t.Run("sample_ratio", func(t *testing.T) {
		cfg := observability.DefaultConfig()
		cfg.SampleRatio = 1

		assert.True(t, sampled(t, cfg))
	})
}
