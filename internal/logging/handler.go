package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Handler is the text slog.Handler for terminal output. Records render as
//
//	3:04PM INFO  message key=value
//
// with the time and key segments colorized when the writer is a color TTY.
type Handler struct {
	out   io.Writer
	mu    *sync.Mutex
	level slog.Leveler

	attrs  []slog.Attr
	prefix string // accumulated group path, "a.b."

	color   bool
	dim     *color.Color
	keyTint *color.Color
	palette struct {
		debug, info, warn, err *color.Color
	}
}

// NewHandler builds a Handler writing to out. A nil opts means Info level.
func NewHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	h := &Handler{
		out: out,
		mu:  &sync.Mutex{},
	}
	if opts != nil {
		h.level = opts.Level
	}
	if SupportsColor(out) {
		h.color = true
		h.dim = color.New(color.FgHiBlack)
		h.keyTint = color.New(color.FgCyan)
		h.palette.debug = color.New(color.FgMagenta)
		h.palette.info = color.New(color.FgGreen)
		h.palette.warn = color.New(color.FgYellow)
		h.palette.err = color.New(color.FgRed, color.Bold)
	}
	return h
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.level != nil {
		min = h.level.Level()
	}
	return level >= min
}

// Handle renders the record as a single line.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	if !r.Time.IsZero() {
		b.WriteString(h.paint(h.dim, r.Time.Format(time.Kitchen)))
		b.WriteByte(' ')
	}

	fmt.Fprintf(&b, "%-5s %s", h.paint(h.levelColor(r.Level), r.Level.String()), r.Message)

	for _, a := range h.attrs {
		h.writeAttr(&b, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&b, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *Handler) writeAttr(b *strings.Builder, a slog.Attr) {
	fmt.Fprintf(b, " %s=%v", h.paint(h.keyTint, h.prefix+a.Key), a.Value.Any())
}

func (h *Handler) levelColor(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return h.palette.err
	case level >= slog.LevelWarn:
		return h.palette.warn
	case level >= slog.LevelInfo:
		return h.palette.info
	default:
		return h.palette.debug
	}
}

func (h *Handler) paint(c *color.Color, s string) string {
	if !h.color || c == nil {
		return s
	}
	return c.Sprint(s)
}

// WithAttrs implements slog.Handler. The copy shares the writer and mutex
// so derived loggers still serialize their output.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

// WithGroup implements slog.Handler; groups become dotted key prefixes.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}
