package observability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanFilter is a SpanProcessor exporting only the attributes the differ
// emits. With path redaction on, file path attributes are replaced by their
// RedactPath digest.
type SpanFilter struct {
	delegate sdktrace.SpanProcessor
	redact   bool
	logger   *slog.Logger
}

// NewSpanFilter wraps delegate. When logger is non-nil the dropped keys of
// each span are logged at debug level.
func NewSpanFilter(delegate sdktrace.SpanProcessor, redactPaths bool, logger *slog.Logger) *SpanFilter {
	return &SpanFilter{delegate: delegate, redact: redactPaths, logger: logger}
}

// RedactPath returns the digest standing in for path in exported spans.
// Equal paths give equal digests, so spans of one file pair still correlate.
func RedactPath(path string) string {
	return fmt.Sprintf("xxh3:%016x", xxh3.HashString(path))
}

// OnStart implements sdktrace.SpanProcessor.
func (f *SpanFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

// OnEnd implements sdktrace.SpanProcessor. Ended spans are read-only, so the
// delegate receives a filtered view.
func (f *SpanFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s, attrs: f.filter(s.Name(), s.Attributes())})
}

// Shutdown implements sdktrace.SpanProcessor.
func (f *SpanFilter) Shutdown(ctx context.Context) error {
	if err := f.delegate.Shutdown(ctx); err != nil {
		return fmt.Errorf("span filter shutdown: %w", err)
	}

	return nil
}

// ForceFlush implements sdktrace.SpanProcessor.
func (f *SpanFilter) ForceFlush(ctx context.Context) error {
	if err := f.delegate.ForceFlush(ctx); err != nil {
		return fmt.Errorf("span filter flush: %w", err)
	}

	return nil
}

func (f *SpanFilter) filter(span string, in []attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(in))

	var dropped []string

	for _, kv := range in {
		switch {
		case !exportedKeys[kv.Key]:
			dropped = append(dropped, string(kv.Key))
		case f.redact && pathKeys[kv.Key]:
			out = append(out, attribute.String(string(kv.Key), RedactPath(kv.Value.AsString())))
		default:
			out = append(out, kv)
		}
	}

	if len(dropped) > 0 && f.logger != nil {
		f.logger.Debug("span attributes dropped", "span", span, "keys", dropped)
	}

	return out
}

type filteredSpan struct {
	sdktrace.ReadOnlySpan

	attrs []attribute.KeyValue
}

// Attributes returns the exported attributes only.
func (s *filteredSpan) Attributes() []attribute.KeyValue {
	return s.attrs
}
