package logging

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	infoAttrLimit    = 8
	infoValueLimit   = 120
	errorValueLimit  = 200
	unrankedPriority = 1 << 16
)

type infoField struct {
	label string
	value string
}

// infoPriority orders the fields an operator reads first. Unlisted keys keep
// their logging order after the ranked ones.
var infoPriority = rank(
	FieldEventType, FieldErrorHint, FieldImpact, "error",
	"tool", "exit_code", "stderr_tail", "status",
	"frames", "resolution", "fps", "filename", "size_bytes",
	"stage_duration", "duration", "language", "platform", "removed",
)

var infoLabels = map[string]string{
	FieldEventType:   "Event",
	FieldErrorHint:   "Hint",
	"stderr_tail":    "Stderr",
	"size_bytes":     "Size",
	"stage_duration": "Duration",
	"fps":            "FPS",
	"url":            "URL",
}

func rank(keys ...string) map[string]int {
	m := make(map[string]int, len(keys))
	for i, k := range keys {
		m[k] = i
	}
	return m
}

// selectInfoFields picks at most limit humanized fields for an info line and
// counts the rest as hidden. Identity keys already in the header are skipped
// silently; debug-only keys and oversized values count as hidden.
func selectInfoFields(attrs []kv, limit int) ([]infoField, int) {
	candidates := make([]kv, 0, len(attrs))
	for _, a := range attrs {
		switch a.key {
		case "", FieldJobID, FieldStage, FieldComponent:
			continue
		}
		candidates = append(candidates, a)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return priority(candidates[i].key) < priority(candidates[j].key)
	})

	shown := make([]infoField, 0, min(limit, len(candidates)))
	hidden := 0
	for _, a := range candidates {
		if debugOnly(a.key) {
			hidden++
			continue
		}
		value := humanValue(a.key, a.value)
		if tooLong(a.key, value) || (limit > 0 && len(shown) >= limit) {
			hidden++
			continue
		}
		shown = append(shown, infoField{label: label(a.key), value: value})
	}
	return shown, hidden
}

func priority(key string) int {
	if p, ok := infoPriority[key]; ok {
		return p
	}
	return unrankedPriority
}

func humanValue(key string, v slog.Value) string {
	v = v.Resolve()
	if strings.HasSuffix(key, "_bytes") || key == "size" {
		switch v.Kind() {
		case slog.KindInt64:
			if n := v.Int64(); n >= 0 {
				return humanize.IBytes(uint64(n))
			}
		case slog.KindUint64:
			return humanize.IBytes(v.Uint64())
		}
	}
	switch v.Kind() {
	case slog.KindDuration:
		return roundDuration(v.Duration()).String()
	case slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	value := formatValue(v)
	if key == "error" {
		value = strings.TrimSpace(value)
		if len(value) > errorValueLimit {
			value = value[:errorValueLimit] + "…"
		}
	}
	return value
}

func roundDuration(d time.Duration) time.Duration {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond)
	case d < time.Minute:
		return d.Round(100 * time.Millisecond)
	}
	return d.Round(time.Second)
}

func debugOnly(key string) bool {
	switch key {
	case FieldCorrelationID, "args", "argv", "remote_addr", "user_agent":
		return true
	}
	return strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}

func tooLong(key, value string) bool {
	if key == "error" || key == "stderr_tail" {
		return false
	}
	return len(value) > infoValueLimit
}

// label turns snake_case or dotted keys into title-cased words.
func label(key string) string {
	if l, ok := infoLabels[key]; ok {
		return l
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
