package language

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"
)

// Auto asks the transcriber to detect the spoken language itself.
const Auto = "auto"

// ErrUnsupported reports a language outside the supported set.
var ErrUnsupported = errors.New("unsupported language")

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"id", "ind", "", "Indonesian", []string{"indonesian", "bahasa"}},
	{"en", "eng", "", "English", []string{"english"}},
	{"ms", "msa", "may", "Malay", []string{"malay"}},
	{"jv", "jav", "", "Javanese", []string{"javanese"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"th", "tha", "", "Thai", []string{"thai"}},
	{"vi", "vie", "", "Vietnamese", []string{"vietnamese"}},
	{"tr", "tur", "", "Turkish", []string{"turkish"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	if base := parseBase(code); base != "" {
		if e, ok := byCode2[base]; ok {
			return e
		}
	}
	return nil
}

// parseBase extracts the primary language subtag from a BCP 47 tag such as
// en-US or pt_BR.
func parseBase(code string) string {
	if !strings.ContainsAny(code, "-_") {
		return ""
	}
	tag, err := xlang.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == xlang.No {
		return ""
	}
	return base.String()
}

// ToISO2 converts any recognized language code, word or tag to ISO 639-1.
// Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// Resolve maps a caller-supplied hint to the code passed to the transcriber.
// Empty input and "auto" resolve to Auto.
func Resolve(code string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if trimmed == "" || trimmed == Auto {
		return Auto, nil
	}
	if e := lookup(trimmed); e != nil {
		return e.code2, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, strings.TrimSpace(code))
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	switch {
	case trimmed == "":
		return "Unknown"
	case strings.EqualFold(trimmed, Auto):
		return "Auto-detect"
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	return strings.ToUpper(trimmed)
}

// Option is one selectable language.
type Option struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Supported lists Auto followed by every supported language in display order.
func Supported() []Option {
	out := make([]Option, 0, len(languages)+1)
	out = append(out, Option{Code: Auto, Name: DisplayName(Auto)})
	for _, e := range languages {
		out = append(out, Option{Code: e.code2, Name: e.display})
	}
	return out
}

// Label renders a detected language for display, e.g. "Indonesian (id)".
// Codes outside the supported set are title-cased as reported.
func Label(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if e := lookup(trimmed); e != nil {
		return fmt.Sprintf("%s (%s)", e.display, e.code2)
	}
	return cases.Title(xlang.Und).String(trimmed)
}
