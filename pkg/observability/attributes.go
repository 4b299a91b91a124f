package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// Span attribute keys emitted by the differ. Nothing else is exported.
const (
	KeyPhase        = "astdiff.phase"
	KeySrcFile      = "astdiff.file.src"
	KeyDstFile      = "astdiff.file.dst"
	KeyFilePairs    = "astdiff.file_pairs"
	KeyMoveDiffs    = "astdiff.move_diffs"
	KeyMappings     = "astdiff.mappings"
	KeyActions      = "astdiff.actions"
	KeyRefactorings = "astdiff.refactorings"
)

var exportedKeys = map[attribute.Key]bool{
	KeyPhase:        true,
	KeySrcFile:      true,
	KeyDstFile:      true,
	KeyFilePairs:    true,
	KeyMoveDiffs:    true,
	KeyMappings:     true,
	KeyActions:      true,
	KeyRefactorings: true,
}

// pathKeys hold file paths.
var pathKeys = map[attribute.Key]bool{
	KeySrcFile: true,
	KeyDstFile: true,
}

// PhaseAttr names the running phase.
func PhaseAttr(phase string) attribute.KeyValue {
	return attribute.String(KeyPhase, phase)
}

// FilePairAttrs name a compared file pair.
func FilePairAttrs(src, dst string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(KeySrcFile, src),
		attribute.String(KeyDstFile, dst),
	}
}

type scopeKey struct{}

// scope is the part of a run a context belongs to.
type scope struct {
	phase string
	src   string
	dst   string
}

// WithPhase tags ctx with the running phase. Records logged under it through
// a ScopeHandler carry the phase.
func WithPhase(ctx context.Context, phase string) context.Context {
	s := scopeOf(ctx)
	s.phase = phase

	return context.WithValue(ctx, scopeKey{}, s)
}

// WithFilePair tags ctx with the file pair being compared.
func WithFilePair(ctx context.Context, src, dst string) context.Context {
	s := scopeOf(ctx)
	s.src, s.dst = src, dst

	return context.WithValue(ctx, scopeKey{}, s)
}

func scopeOf(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)

	return s
}
