package logging

import (
	"context"
	"log/slog"
)

// WithSessionID returns a logger whose records all carry session_id.
func WithSessionID(logger *slog.Logger, sessionID string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	if sessionID == "" {
		return logger
	}
	return slog.New(sessionStamp{next: logger.Handler(), id: slog.String(FieldSessionID, sessionID)})
}

// sessionStamp adds the session attribute to each record as it is handled.
type sessionStamp struct {
	next slog.Handler
	id   slog.Attr
}

func (h sessionStamp) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h sessionStamp) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(h.id)
	return h.next.Handle(ctx, record)
}

func (h sessionStamp) WithAttrs(attrs []slog.Attr) slog.Handler {
	return sessionStamp{next: h.next.WithAttrs(attrs), id: h.id}
}

func (h sessionStamp) WithGroup(name string) slog.Handler {
	return sessionStamp{next: h.next.WithGroup(name), id: h.id}
}
