package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const prettyTimeLayout = "15:04:05.000"

// prettyHandler renders one line per record with a coloured level badge.
// Colour is only emitted when w is a terminal.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	styles prettyStyles
	attrs  []slog.Attr
	groups []string
}

type prettyStyles struct {
	time   lipgloss.Style
	key    lipgloss.Style
	value  lipgloss.Style
	levels map[slog.Level]lipgloss.Style
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	r := lipgloss.NewRenderer(w)
	badge := r.NewStyle().Bold(true).Width(5)
	return &prettyHandler{
		opts: *opts,
		mu:   &sync.Mutex{},
		w:    w,
		styles: prettyStyles{
			time:  r.NewStyle().Foreground(lipgloss.Color("8")),
			key:   r.NewStyle().Foreground(lipgloss.Color("8")),
			value: r.NewStyle().Foreground(lipgloss.Color("6")),
			levels: map[slog.Level]lipgloss.Style{
				slog.LevelDebug: badge.Foreground(lipgloss.Color("4")),
				slog.LevelInfo:  badge.Foreground(lipgloss.Color("2")),
				slog.LevelWarn:  badge.Foreground(lipgloss.Color("3")),
				slog.LevelError: badge.Foreground(lipgloss.Color("1")),
			},
		},
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if !r.Time.IsZero() {
		buf.WriteString(h.styles.time.Render(r.Time.Format(prettyTimeLayout)))
		buf.WriteByte(' ')
	}
	buf.WriteString(h.levelStyle(r.Level).Render(levelLabel(r.Level)))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		h.writeAttr(buf, "", a)
	}
	prefix := h.groupPrefix()
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(buf, prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	prefix := h.groupPrefix()
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + a.Key
		}
		c.attrs = append(c.attrs, a)
	}
	return c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.groups = append(c.groups, name)
	return c
}

func (h *prettyHandler) clone() *prettyHandler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	c.groups = append([]string(nil), h.groups...)
	return &c
}

func (h *prettyHandler) groupPrefix() string {
	var p string
	for _, g := range h.groups {
		p += g + "."
	}
	return p
}

func (h *prettyHandler) levelStyle(level slog.Level) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return h.styles.levels[slog.LevelError]
	case level >= slog.LevelWarn:
		return h.styles.levels[slog.LevelWarn]
	case level >= slog.LevelInfo:
		return h.styles.levels[slog.LevelInfo]
	default:
		return h.styles.levels[slog.LevelDebug]
	}
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.writeAttr(buf, prefix, ga)
		}
		return
	}
	buf.WriteByte(' ')
	buf.WriteString(h.styles.key.Render(prefix + a.Key + "="))
	buf.WriteString(h.styles.value.Render(formatValue(a.Value)))
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || needsQuote(s) {
			return strconv.Quote(s)
		}
		return s
	case slog.KindDuration:
		return v.Duration().Round(time.Microsecond).String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return fmt.Sprint(v.Any())
	}
}

func needsQuote(s string) bool {
	for _, r := range s {
		if r <= ' ' || r == '"' || r == '=' {
			return true
		}
	}
	return false
}
