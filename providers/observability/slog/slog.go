// Package slog implements observability.Provider on top of the standard
// library log/slog logger. Spans are logged as start/end event pairs with
// durations; there is no external collector.
package slog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/flowdeck/flowdeck/providers/observability"
)

// Observer implements observability.Provider using Go's standard library slog
type Observer struct {
	logger *slog.Logger
}

// New creates a new slog-based observer. A nil logger falls back to
// slog.Default().
func New(logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{logger: logger}
}

// Ensure Observer implements observability.Provider
var _ observability.Provider = (*Observer)(nil)

// --- TRACING ---

func (observer *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &slogSpan{
		name:      name,
		startTime: time.Now(),
		logger:    observer.logger,
		attrs:     attrs,
	}

	logAttrs := []slog.Attr{
		slog.String("span", name),
		slog.String("event", "span.start"),
	}
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	observer.logger.LogAttrs(ctx, slog.LevelDebug, "Span started", logAttrs...)

	return observability.ContextWithSpan(ctx, span), span
}

type slogSpan struct {
	name      string
	startTime time.Time
	logger    *slog.Logger
	attrs     []observability.Attribute
	mu        sync.Mutex
}

func (span *slogSpan) End() {
	span.mu.Lock()
	defer span.mu.Unlock()

	duration := time.Since(span.startTime)
	logAttrs := []slog.Attr{
		slog.String("span", span.name),
		slog.String("event", "span.end"),
		slog.Duration("duration", duration),
	}
	for _, attr := range span.attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	// Info level so span completion is visible at the default level.
	span.logger.LogAttrs(context.Background(), slog.LevelInfo, "Span ended", logAttrs...)
}

func (span *slogSpan) SetAttributes(attrs ...observability.Attribute) {
	span.mu.Lock()
	defer span.mu.Unlock()
	span.attrs = append(span.attrs, attrs...)
}

func (span *slogSpan) RecordError(err error) {
	if err == nil {
		return
	}
	span.mu.Lock()
	defer span.mu.Unlock()

	span.attrs = append(span.attrs, observability.Error(err))

	span.logger.LogAttrs(context.Background(), slog.LevelError, "Span error",
		slog.String("span", span.name),
		slog.String("event", "error"),
		slog.String("error", err.Error()),
	)
}

func (span *slogSpan) AddEvent(name string, attrs ...observability.Attribute) {
	span.mu.Lock()
	defer span.mu.Unlock()

	logAttrs := []slog.Attr{
		slog.String("span", span.name),
		slog.String("event", name),
	}
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	span.logger.LogAttrs(context.Background(), slog.LevelDebug, "Span event", logAttrs...)
}

// --- LOGGING ---

func (observer *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	observer.log(ctx, slog.LevelDebug, msg, attrs...)
}

func (observer *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	observer.log(ctx, slog.LevelInfo, msg, attrs...)
}

func (observer *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	observer.log(ctx, slog.LevelWarn, msg, attrs...)
}

func (observer *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	observer.log(ctx, slog.LevelError, msg, attrs...)
}

func (observer *Observer) log(ctx context.Context, level slog.Level, msg string, attrs ...observability.Attribute) {
	logAttrs := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	observer.logger.LogAttrs(ctx, level, msg, logAttrs...)
}
