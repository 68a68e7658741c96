package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// kv is one flattened attribute; group members are joined with dots.
type kv struct {
	key   string
	value slog.Value
}

// collect flattens handler-level and record-level attributes in order. When a
// key repeats the later value replaces the earlier one in place.
func collect(groups []string, preset []slog.Attr, record slog.Record) []kv {
	out := make([]kv, 0, len(preset)+record.NumAttrs())
	index := make(map[string]int, cap(out))
	add := func(key string, v slog.Value) {
		if key == "" {
			return
		}
		if i, ok := index[key]; ok {
			out[i].value = v
			return
		}
		index[key] = len(out)
		out = append(out, kv{key: key, value: v})
	}
	for _, a := range preset {
		flatten(groups, a, add)
	}
	record.Attrs(func(a slog.Attr) bool {
		flatten(groups, a, add)
		return true
	})
	return out
}

func flatten(prefix []string, a slog.Attr, add func(string, slog.Value)) {
	if a.Equal(slog.Attr{}) {
		return
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		next := prefix
		if a.Key != "" {
			next = append(append(make([]string, 0, len(prefix)+1), prefix...), a.Key)
		}
		for _, member := range v.Group() {
			flatten(next, member, add)
		}
		return
	}
	key := a.Key
	if len(prefix) > 0 {
		key = strings.Join(append(append([]string{}, prefix...), key), ".")
		key = strings.TrimSuffix(key, ".")
	}
	add(key, v)
}

// plainString renders v without quoting, for header fields such as component.
func plainString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		return anyString(v.Any())
	}
	return formatValue(v)
}

// formatValue renders v for the field list, quoting strings that contain
// spaces, quotes or '='.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		return quoteIfNeeded(anyString(v.Any()))
	}
	return quoteIfNeeded(v.String())
}

func anyString(value any) string {
	if err, ok := value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(value)
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(consoleTimeLayout)
}
