package logger

import (
	"context"
	"log/slog"
	"runtime"
)

// sourceFromLevelHandler decorates records at or above minLevel with the
// caller's source location. The wrapped handler must run with
// AddSource: false, otherwise the attribute is duplicated.
type sourceFromLevelHandler struct {
	handler  slog.Handler
	minLevel slog.Level
}

func newSourceFromLevelHandler(handler slog.Handler, minLevel slog.Level) slog.Handler {
	return &sourceFromLevelHandler{
		handler:  handler,
		minLevel: minLevel,
	}
}

func (h *sourceFromLevelHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.minLevel {
		// Skip Callers, Handle, and the slog frame that called us.
		var pcs [1]uintptr
		runtime.Callers(3, pcs[:])
		frames := runtime.CallersFrames(pcs[:])
		frame, _ := frames.Next()

		r.AddAttrs(slog.Attr{
			Key: slog.SourceKey,
			Value: slog.AnyValue(&slog.Source{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			}),
		})
	}
	return h.handler.Handle(ctx, r)
}

func (h *sourceFromLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sourceFromLevelHandler{handler: h.handler.WithAttrs(attrs), minLevel: h.minLevel}
}

func (h *sourceFromLevelHandler) WithGroup(name string) slog.Handler {
	return &sourceFromLevelHandler{handler: h.handler.WithGroup(name), minLevel: h.minLevel}
}

func (h *sourceFromLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}
