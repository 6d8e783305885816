// Package trace provides lightweight span instrumentation for behavior
// operations. The backend is injectable: without one, NopTracer makes every
// span a free no-op, so callers never branch on tracing availability.
package trace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Span represents a single traced unit of work.
type Span struct {
	ID         string
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	Attributes map[string]any

	mu sync.Mutex
}

// SetAttribute sets a key-value attribute on the span.
func (s *Span) SetAttribute(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Attributes == nil {
		s.Attributes = make(map[string]any)
	}
	s.Attributes[key] = value
}

// Duration returns the elapsed time of the span. If the span has not ended
// yet, the duration is measured against the current time.
func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := s.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.StartTime)
}

func (s *Span) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EndTime = time.Now()
}

// Tracer creates and finishes spans around behavior operations.
type Tracer interface {
	// StartSpan opens a named span and returns a context carrying it.
	StartSpan(ctx context.Context, name string) (context.Context, *Span)
	// EndSpan finishes the span and hands it to the backend.
	EndSpan(span *Span)
}

type ctxKey struct{}

// FromContext returns the span carried by ctx, or nil.
func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(ctxKey{}).(*Span)
	return span
}

// NopTracer discards all spans. It is the default backend.
type NopTracer struct{}

func NewNopTracer() *NopTracer {
	return &NopTracer{}
}

func (*NopTracer) StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	return ctx, &Span{Name: name}
}

func (*NopTracer) EndSpan(_ *Span) {}

// SlogTracer logs finished spans through slog at debug level.
type SlogTracer struct {
	logger *slog.Logger
}

// NewSlogTracer creates a tracer backed by the given logger. A nil logger
// falls back to slog.Default().
func NewSlogTracer(logger *slog.Logger) *SlogTracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogTracer{logger: logger}
}

func (t *SlogTracer) StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	span := &Span{
		ID:        uuid.NewString(),
		Name:      name,
		StartTime: time.Now(),
	}
	return context.WithValue(ctx, ctxKey{}, span), span
}

func (t *SlogTracer) EndSpan(span *Span) {
	if span == nil {
		return
	}
	span.end()
	attrs := []any{
		slog.String("span_id", span.ID),
		slog.String("name", span.Name),
		slog.Duration("duration", span.Duration()),
	}
	span.mu.Lock()
	for k, v := range span.Attributes {
		attrs = append(attrs, slog.Any(k, v))
	}
	span.mu.Unlock()
	t.logger.Debug("span completed", attrs...)
}
