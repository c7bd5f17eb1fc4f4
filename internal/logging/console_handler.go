package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const componentKey = "component"

// ConsoleHandler writes one human-readable line per record:
//
//	2006-01-02T15:04:05Z swarmctl[1234]: [warn] router: discarded frame reason="agents not a list"
//
// The component attribute is promoted into the header.
type ConsoleHandler struct {
	opts   slog.HandlerOptions
	name   string
	pid    int
	mu     *sync.Mutex
	out    io.Writer
	attrs  []slog.Attr
	prefix string // pre-bound component
}

// NewConsoleHandler creates a ConsoleHandler tagged with the process name.
func NewConsoleHandler(out io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	return newConsoleHandler(out, opts, "swarmctl")
}

func newConsoleHandler(out io.Writer, opts *slog.HandlerOptions, name string) *ConsoleHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	if name == "" {
		name = "swarmctl"
	}
	return &ConsoleHandler{
		opts: *opts,
		name: strings.ToLower(name),
		pid:  os.Getpid(),
		mu:   &sync.Mutex{},
		out:  out,
	}
}

// Enabled reports whether the handler is enabled for this level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}
	return level >= threshold
}

// Handle formats and writes the record.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	t := r.Time
	if t.IsZero() {
		t = time.Now()
	}

	component := h.prefix
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == componentKey {
			component = strings.ToLower(a.Value.String())
			return false
		}
		return true
	})

	buf := make([]byte, 0, 256)
	buf = t.AppendFormat(buf, time.RFC3339)
	buf = append(buf, ' ')
	buf = append(buf, h.name...)
	buf = append(buf, '[')
	buf = strconv.AppendInt(buf, int64(h.pid), 10)
	buf = append(buf, "]: ["...)
	buf = append(buf, levelName(r.Level)...)
	buf = append(buf, "] "...)
	if component != "" {
		buf = append(buf, component...)
		buf = append(buf, ": "...)
	}
	buf = append(buf, r.Message...)

	for _, a := range h.attrs {
		buf = appendAttr(buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != componentKey {
			buf = appendAttr(buf, a)
		}
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

func appendAttr(buf []byte, a slog.Attr) []byte {
	buf = append(buf, ' ')
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	val := a.Value.Resolve().String()
	if val == "" || strings.ContainsAny(val, " \t\n\"=") {
		return strconv.AppendQuote(buf, val)
	}
	return append(buf, val...)
}

// WithAttrs returns a handler with attrs bound. A bound component becomes
// the line's header tag.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = slices.Clip(h.attrs)
	for _, a := range attrs {
		if a.Key == componentKey {
			h2.prefix = strings.ToLower(a.Value.String())
			continue
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

// WithGroup is a no-op; output is flat.
func (h *ConsoleHandler) WithGroup(string) slog.Handler {
	return h
}
