package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Log attribute keys added by ScopeHandler.
const (
	LogTraceID = "trace_id"
	LogSpanID  = "span_id"
	LogPhase   = "phase"
	LogSrc     = "src"
	LogDst     = "dst"
)

// ScopeHandler is an [slog.Handler] stamping each record with the trace and
// span IDs of the active span, and with the phase and file pair stored in
// the context by WithPhase and WithFilePair.
type ScopeHandler struct {
	inner slog.Handler
}

// NewScopeHandler wraps inner.
func NewScopeHandler(inner slog.Handler) *ScopeHandler {
	return &ScopeHandler{inner: inner}
}

// Scoped returns logger with a ScopeHandler in front of its handler, or
// logger itself when it already has one.
func Scoped(logger *slog.Logger) *slog.Logger {
	if _, ok := logger.Handler().(*ScopeHandler); ok {
		return logger
	}

	return slog.New(NewScopeHandler(logger.Handler()))
}

// Enabled implements slog.Handler.
func (h *ScopeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ScopeHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(LogTraceID, sc.TraceID().String()),
			slog.String(LogSpanID, sc.SpanID().String()),
		)
	}

	s := scopeOf(ctx)

	if s.phase != "" {
		record.AddAttrs(slog.String(LogPhase, s.phase))
	}

	if s.src != "" || s.dst != "" {
		record.AddAttrs(slog.String(LogSrc, s.src), slog.String(LogDst, s.dst))
	}

	if err := h.inner.Handle(ctx, record); err != nil {
		return fmt.Errorf("scope handler: %w", err)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *ScopeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ScopeHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *ScopeHandler) WithGroup(name string) slog.Handler {
	return &ScopeHandler{inner: h.inner.WithGroup(name)}
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
