// Package astdiff computes node-level differences between two versions of a
// code base, anchored on a declaration-level model diff. For every pair of
// corresponding files it produces a node mapping and an edit script; moves of
// declarations between files become separate move diffs.
package astdiff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/astdiff/pkg/actions"
	"github.com/Sumatoshi-tech/astdiff/pkg/matchers"
	"github.com/Sumatoshi-tech/astdiff/pkg/model"
	"github.com/Sumatoshi-tech/astdiff/pkg/observability"
)

// ErrNilDiff is returned when Diff is called without a model diff.
var ErrNilDiff = errors.New("nil model diff")

// Phase names, as they appear in logs, spans and metrics.
const (
	PhaseInit        = "init"
	PhaseMatch       = "match"
	PhaseOptimize    = "optimize"
	PhaseSweep       = "sweep"
	PhaseEditScripts = "edit-scripts"
	PhaseMoves       = "moves"
)

const spanPrefix = "astdiff."

// Options tunes the matching.
type Options struct {
	// MinSubtreeHeight is the smallest subtree the final sweep maps.
	MinSubtreeHeight int
	// Similarity is the minimum dice coefficient for container matches.
	Similarity float64
	// Workers bounds the parallel edit-script computation; zero leaves it
	// unbounded, one goroutine per file diff.
	Workers int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		MinSubtreeHeight: matchers.DefaultMinSubtreeHeight,
		Similarity:       matchers.DefaultSimilarity,
	}
}

// Deps holds injectable dependencies of the differ.
// Zero-value fields use silent defaults.
type Deps struct {
	// Logger receives phase boundaries and lookup misses. Nil discards. It
	// is wrapped in an observability.ScopeHandler, so records carry the
	// phase and file pair they were logged under.
	Logger *slog.Logger

	// Tracer opens one span per phase. Nil disables tracing.
	Tracer trace.Tracer

	// Metrics records run statistics. Nil disables metrics.
	Metrics *observability.DiffMetrics
}

// Differ turns a model diff into a ProjectDiff. A Differ holds no per-run
// state and may be reused.
type Differ struct {
	opts    Options
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.DiffMetrics
}

// NewDiffer creates a differ.
func NewDiffer(opts Options, deps Deps) *Differ {
	if opts.Similarity <= 0 {
		opts.Similarity = matchers.DefaultSimilarity
	}

	if opts.MinSubtreeHeight <= 0 {
		opts.MinSubtreeHeight = matchers.DefaultMinSubtreeHeight
	}

	d := &Differ{
		opts:    opts,
		logger:  deps.Logger,
		tracer:  deps.Tracer,
		metrics: deps.Metrics,
	}

	if d.logger == nil {
		d.logger = observability.Discard()
	}

	d.logger = observability.Scoped(d.logger)

	if d.tracer == nil {
		d.tracer = noop.NewTracerProvider().Tracer("astdiff")
	}

	return d
}

// run is the state of one Diff call.
type run struct {
	model  *model.Diff
	refs   []*model.Refactoring
	out    *ProjectDiff
	phases map[string]time.Duration
}

// Diff computes the project diff of md. The phases run in order and each one
// completes for every file before the next begins. Refactoring detection
// errors, timeouts included, abort the run and no ProjectDiff is returned.
func (d *Differ) Diff(ctx context.Context, md *model.Diff) (*ProjectDiff, error) {
	if md == nil {
		return nil, ErrNilDiff
	}

	ctx, span := d.tracer.Start(ctx, spanPrefix+"diff")
	defer span.End()

	r := &run{
		model:  md,
		out:    newProjectDiff(md.Before, md.After),
		phases: make(map[string]time.Duration),
	}

	steps := []struct {
		name string
		fn   func(context.Context, *run) error
	}{
		{PhaseInit, d.detect},
		{PhaseMatch, d.matchAll},
		{PhaseOptimize, d.optimize},
		{PhaseSweep, d.sweep},
		{PhaseEditScripts, d.editScripts},
		{PhaseMoves, d.detectMoves},
	}

	for _, step := range steps {
		if err := d.phase(ctx, r, step.name, step.fn); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			return nil, err
		}
	}

	stats := d.stats(r)
	d.metrics.RecordRun(ctx, stats)
	span.SetAttributes(
		attribute.Int(observability.KeyFilePairs, stats.FilePairs),
		attribute.Int(observability.KeyMoveDiffs, stats.MoveDiffs),
		attribute.Int(observability.KeyMappings, stats.Mappings),
	)

	return r.out, nil
}

func (d *Differ) phase(ctx context.Context, r *run, name string, fn func(context.Context, *run) error) error {
	if err := ctx.Err(); err != nil {
		d.metrics.RecordError(ctx, name)

		return fmt.Errorf("%s: %w", name, err)
	}

	ctx = observability.WithPhase(ctx, name)

	ctx, span := d.tracer.Start(ctx, spanPrefix+name, trace.WithAttributes(observability.PhaseAttr(name)))
	defer span.End()

	start := time.Now()
	d.logger.DebugContext(ctx, "phase started")

	err := fn(ctx, r)
	r.phases[name] = time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.metrics.RecordError(ctx, name)

		return fmt.Errorf("%s: %w", name, err)
	}

	d.logger.InfoContext(ctx, "phase done", "elapsed", r.phases[name])

	return nil
}

// detect asks the model for its refactorings.
func (d *Differ) detect(ctx context.Context, r *run) error {
	if r.model.Detector == nil {
		return nil
	}

	refs, err := r.model.Detector.Refactorings(ctx)
	if err != nil {
		return fmt.Errorf("detect refactorings: %w", err)
	}

	r.refs = refs
	r.out.refactorings = refs

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int(observability.KeyRefactorings, len(refs)))

	return nil
}

// optimize resolves the deferred decisions of every file diff.
func (d *Differ) optimize(ctx context.Context, r *run) error {
	leaf := matchers.LeafMatcher{Similarity: d.opts.Similarity}

	for _, fd := range r.out.diffs {
		fctx := observability.WithFilePair(ctx, fd.SrcPath, fd.DstPath)
		fd.scratch.Resolve(fctx, fd.Store, fd.SrcPath, fd.DstPath, leaf, d.logger)
	}

	return nil
}

// sweep maps identical subtrees no pass reached.
func (d *Differ) sweep(_ context.Context, r *run) error {
	m := matchers.MissingIdenticalSubtree{MinHeight: d.opts.MinSubtreeHeight}

	for _, fd := range r.out.diffs {
		m.Match(fd.Src.Root(), fd.Dst.Root(), fd.Store)
	}

	return nil
}

// editScripts computes the script of every file diff in parallel. Each
// goroutine reads only its own diff and writes only its own slot.
func (d *Differ) editScripts(ctx context.Context, r *run) error {
	diffs := r.out.diffs
	scripts := make([]*actions.Script, len(diffs))

	g, gctx := errgroup.WithContext(ctx)
	if d.opts.Workers > 0 {
		g.SetLimit(d.opts.Workers)
	}

	for i, fd := range diffs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("%s: %w", fd.SrcPath, err)
			}

			_, span := d.tracer.Start(gctx, spanPrefix+"edit-script", trace.WithAttributes(
				observability.FilePairAttrs(fd.SrcPath, fd.DstPath)...))
			scripts[i] = actions.Builder{}.Build(fd.Store)
			span.SetAttributes(
				attribute.Int(observability.KeyMappings, fd.Store.Len()),
				attribute.Int(observability.KeyActions, scripts[i].Len()),
			)
			span.End()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i, fd := range diffs {
		fd.Script = scripts[i]
	}

	return nil
}

func (d *Differ) stats(r *run) observability.DiffStats {
	counts := r.out.ActionCounts()
	byName := make(map[string]int, len(counts))

	for k, n := range counts {
		byName[k.String()] = n
	}

	return observability.DiffStats{
		FilePairs: len(r.out.diffs),
		MoveDiffs: len(r.out.moves),
		Mappings:  r.out.Mappings(),
		Actions:   byName,
		Phases:    r.phases,
	}
}
