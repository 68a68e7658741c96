package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// shortJobIDLen keeps console headers readable; full IDs remain in the fields.
const shortJobIDLen = 8

// consoleHandler renders one header line per record followed by an indented
// field list. Info and above show a curated, humanized subset of fields;
// debug records dump every field verbatim.
type consoleHandler struct {
	out        *lockedWriter
	level      slog.Leveler
	withSource bool
	preset     []slog.Attr
	groups     []string
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) write(p []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.w.Write(p)
	return err
}

func newConsoleHandler(w io.Writer, level slog.Leveler, withSource bool) slog.Handler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: level, withSource: withSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}
	fields := collect(h.groups, h.preset, record)

	var component, jobID, stage string
	body := fields[:0:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = plainString(f.value)
			continue
		case FieldJobID:
			jobID = plainString(f.value)
		case FieldStage:
			stage = plainString(f.value)
		}
		body = append(body, f)
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.Grow(256)
	b.WriteString(formatTimestamp(ts))
	b.WriteByte(' ')
	b.WriteString(levelLabel(record.Level))
	if component != "" {
		b.WriteString(" [" + component + "]")
	}
	if subject := FormatSubject(jobID, stage); subject != "" {
		b.WriteString(" " + subject)
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(" – " + msg)
	if h.withSource {
		if src := record.Source(); src != nil && src.File != "" {
			b.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	b.WriteByte('\n')

	if record.Level < slog.LevelInfo {
		for _, f := range body {
			b.WriteString("    " + f.key + ": " + formatValue(f.value) + "\n")
		}
	} else {
		shown, hidden := selectInfoFields(body, infoAttrLimit)
		for _, f := range shown {
			b.WriteString("    - " + f.label + ": " + f.value + "\n")
		}
		if hidden == 1 {
			b.WriteString("    + 1 more field hidden\n")
		} else if hidden > 1 {
			b.WriteString("    + " + strconv.Itoa(hidden) + " more fields hidden\n")
		}
	}
	return h.out.write([]byte(b.String()))
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.preset = append(append([]slog.Attr{}, h.preset...), attrs...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

// FormatSubject builds the "Job <short id> (<stage>)" subject shown in console
// headers.
func FormatSubject(jobID, stage string) string {
	jobID = strings.TrimSpace(jobID)
	stage = strings.TrimSpace(stage)
	if len(jobID) > shortJobIDLen {
		jobID = jobID[:shortJobIDLen]
	}
	switch {
	case jobID != "" && stage != "":
		return "Job " + jobID + " (" + stage + ")"
	case jobID != "":
		return "Job " + jobID
	}
	return stage
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
