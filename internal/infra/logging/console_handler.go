package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const (
	ansiReset     = "\033[0m"
	ansiRed       = "\033[31m"
	ansiGreen     = "\033[32m"
	ansiYellow    = "\033[33m"
	ansiCyan      = "\033[36m"
	ansiGray      = "\033[90m"
	ansiUnderline = "\033[4m"
)

//nolint:gochecknoglobals
var levelColors = map[slog.Level]string{
	slog.LevelDebug: ansiCyan,
	slog.LevelInfo:  ansiGreen,
	slog.LevelWarn:  ansiYellow,
	slog.LevelError: ansiRed,
}

// ConsoleHandler is a slog.Handler producing one human-readable line per record,
// followed by the calling function and source location.
type ConsoleHandler struct {
	// Output receives the formatted records
	Output io.Writer
	// Level is the minimum level of records that are written
	Level slog.Leveler
	// Color enables ANSI escape sequences
	Color bool

	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

var _ slog.Handler = (*ConsoleHandler)(nil)

func (h *ConsoleHandler) paint(code, s string) string {
	if !h.Color {
		return s
	}

	return code + s + ansiReset
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	sb.WriteString(h.paint(ansiGray, r.Time.Format("15:04:05.000000")))
	sb.WriteString(" ")
	sb.WriteString(h.paint(levelColors[r.Level], "["+r.Level.String()+"]"))
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	if len(attrs) > 0 {
		var prefix string
		if len(h.groups) > 0 {
			prefix = strings.Join(h.groups, ".") + "."
		}

		sb.WriteString(" " + h.paint(ansiGray, "|"))
		h.writeAttrs(&sb, prefix, attrs)
	}

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()

		sb.WriteString("\n-> ")
		sb.WriteString(h.paint(ansiGray, filepath.Base(frame.Function)+"()"))
		sb.WriteString(" in ")
		sb.WriteString(h.paint(ansiUnderline, frame.File+":"+strconv.Itoa(frame.Line)))
	}

	sb.WriteString("\n")

	if h.mu != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
	}

	_, err := io.WriteString(h.Output, sb.String())

	//nolint:wrapcheck
	return err
}

func (h *ConsoleHandler) writeAttrs(sb *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			h.writeAttrs(sb, prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		sb.WriteString(" " + prefix + attr.Key + "=")
		sb.WriteString(h.paint(ansiGray, attr.Value.String()))
	}
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	mu := h.mu
	if mu == nil {
		mu = new(sync.Mutex)
	}

	return &ConsoleHandler{
		Output: h.Output,
		Level:  h.Level,
		Color:  h.Color,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
		mu:     mu,
	}
}

// WithAttrs implements slog.Handler.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	c := h.clone()
	c.attrs = append(c.attrs, attrs...)

	return c
}

// WithGroup implements slog.Handler.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	c := h.clone()
	c.groups = append(c.groups, name)

	return c
}

// Enabled implements slog.Handler.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.Level == nil || h.Level.Level() <= level
}
