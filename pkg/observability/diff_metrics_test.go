package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/astdiff/pkg/observability"
)

func TestDiffMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var dm *observability.DiffMetrics

	assert.NotPanics(t, func() {
		dm.RecordRun(context.Background(), observability.DiffStats{FilePairs: 1})
		dm.RecordError(context.Background(), "optimize")
	})
}

func TestDiffMetrics_Noop(t *testing.T) {
	t.Parallel()

	dm, err := observability.NewDiffMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		dm.RecordRun(context.Background(), observability.DiffStats{
			FilePairs: 3,
			Actions:   map[string]int{"move-tree": 1},
			Phases:    map[string]time.Duration{"optimize": time.Millisecond},
		})
	})
}

func TestDiffMetrics_RecordRun(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	dm, err := observability.NewDiffMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	dm.RecordRun(ctx, observability.DiffStats{
		FilePairs: 2,
		MoveDiffs: 1,
		Mappings:  17,
		Actions:   map[string]int{"insert-node": 2, "move-tree": 1},
		Phases:    map[string]time.Duration{"match": 20 * time.Millisecond},
	})
	dm.RecordError(ctx, "edit-scripts")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	histograms := map[string]uint64{}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					histograms[m.Name] += dp.Count
				}
			}
		}
	}

	assert.Equal(t, int64(1), sums["astdiff.runs.total"])
	assert.Equal(t, int64(1), sums["astdiff.errors.total"])
	assert.Equal(t, int64(3), sums["astdiff.file_pairs.total"])
	assert.Equal(t, int64(17), sums["astdiff.mappings.total"])
	assert.Equal(t, int64(3), sums["astdiff.actions.total"])
	assert.Equal(t, uint64(1), histograms["astdiff.phase.duration.seconds"])
}
