package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal      = "astdiff.runs.total"
	metricErrorsTotal    = "astdiff.errors.total"
	metricFilePairsTotal = "astdiff.file_pairs.total"
	metricMappingsTotal  = "astdiff.mappings.total"
	metricActionsTotal   = "astdiff.actions.total"
	metricPhaseDuration  = "astdiff.phase.duration.seconds"

	attrPhase  = "phase"
	attrAction = "action"
)

// durationBucketBoundaries covers 1ms to 5 minutes: a phase ranges from a
// few trees to whole-project sweeps.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300}

// DiffMetrics holds the instruments of the differ.
type DiffMetrics struct {
	runs          metric.Int64Counter
	errors        metric.Int64Counter
	filePairs     metric.Int64Counter
	mappings      metric.Int64Counter
	actions       metric.Int64Counter
	phaseDuration metric.Float64Histogram
}

// DiffStats summarizes one project diff.
type DiffStats struct {
	FilePairs int
	MoveDiffs int
	Mappings  int
	// Actions counts actions per kind name.
	Actions map[string]int
	// Phases holds the wall time of each phase.
	Phases map[string]time.Duration
}

// NewDiffMetrics creates the instruments on mt.
func NewDiffMetrics(mt metric.Meter) (*DiffMetrics, error) {
	runs, err := mt.Int64Counter(metricRunsTotal,
		metric.WithDescription("Project diffs computed"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunsTotal, err)
	}

	errs, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Project diffs aborted by an error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	pairs, err := mt.Int64Counter(metricFilePairsTotal,
		metric.WithDescription("Paired file diffs produced"),
		metric.WithUnit("{pair}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilePairsTotal, err)
	}

	mappings, err := mt.Int64Counter(metricMappingsTotal,
		metric.WithDescription("Node mappings in finished stores"),
		metric.WithUnit("{mapping}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMappingsTotal, err)
	}

	actions, err := mt.Int64Counter(metricActionsTotal,
		metric.WithDescription("Edit actions by kind"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricActionsTotal, err)
	}

	phase, err := mt.Float64Histogram(metricPhaseDuration,
		metric.WithDescription("Duration of each differ phase in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPhaseDuration, err)
	}

	return &DiffMetrics{
		runs:          runs,
		errors:        errs,
		filePairs:     pairs,
		mappings:      mappings,
		actions:       actions,
		phaseDuration: phase,
	}, nil
}

// RecordRun records a completed project diff. Safe on a nil receiver.
func (dm *DiffMetrics) RecordRun(ctx context.Context, stats DiffStats) {
	if dm == nil {
		return
	}

	dm.runs.Add(ctx, 1)
	dm.filePairs.Add(ctx, int64(stats.FilePairs+stats.MoveDiffs))
	dm.mappings.Add(ctx, int64(stats.Mappings))

	for kind, n := range stats.Actions {
		dm.actions.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrAction, kind)))
	}

	for phase, d := range stats.Phases {
		dm.phaseDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String(attrPhase, phase)))
	}
}

// RecordError records an aborted run. Safe on a nil receiver.
func (dm *DiffMetrics) RecordError(ctx context.Context, phase string) {
	if dm == nil {
		return
	}

	dm.errors.Add(ctx, 1, metric.WithAttributes(attribute.String(attrPhase, phase)))
}
