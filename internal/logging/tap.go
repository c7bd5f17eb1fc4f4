package logging

import (
	"context"
	"log/slog"
	"slices"
	"strings"
)

// tapHandler copies each record into a RingBuffer and passes it on, so
// the buffer fills the same way for console and JSON output.
type tapHandler struct {
	next  slog.Handler
	ring  *RingBuffer
	attrs []slog.Attr
}

func newTap(next slog.Handler, ring *RingBuffer) *tapHandler {
	return &tapHandler{next: next, ring: ring}
}

func (h *tapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *tapHandler) Handle(ctx context.Context, r slog.Record) error {
	h.ring.Add(captureRecord(r, h.attrs))
	return h.next.Handle(ctx, r)
}

func (h *tapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &tapHandler{
		next:  h.next.WithAttrs(attrs),
		ring:  h.ring,
		attrs: append(slices.Clip(h.attrs), attrs...),
	}
}

func (h *tapHandler) WithGroup(name string) slog.Handler {
	return &tapHandler{next: h.next.WithGroup(name), ring: h.ring, attrs: h.attrs}
}

func captureRecord(r slog.Record, bound []slog.Attr) AppLogEntry {
	e := AppLogEntry{
		Timestamp: r.Time,
		Level:     levelName(r.Level),
		Source:    "system",
		Message:   r.Message,
	}
	add := func(a slog.Attr) bool {
		if a.Key == componentKey {
			e.Source = strings.ToLower(a.Value.String())
			return true
		}
		if e.Extra == nil {
			e.Extra = make(map[string]string)
		}
		e.Extra[a.Key] = a.Value.String()
		return true
	}
	for _, a := range bound {
		add(a)
	}
	r.Attrs(add)
	return e
}

// levelName maps a slog level onto the four names the viewer colors.
func levelName(level slog.Level) string {
	switch {
	case level <= slog.LevelDebug:
		return "debug"
	case level <= slog.LevelInfo:
		return "info"
	case level <= slog.LevelWarn:
		return "warn"
	default:
		return "error"
	}
}
