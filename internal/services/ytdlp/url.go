package ytdlp

import (
	"net/url"
	"regexp"
	"strings"

	"mediakit/internal/services"
)

// ValidateURL accepts absolute http(s) URLs with a host.
func ValidateURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, services.Validationf("a URL is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, services.Validationf("URL is not valid")
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return nil, services.Validationf("only http and https URLs are supported")
	}
	if parsed.Hostname() == "" {
		return nil, services.Validationf("URL must include a host")
	}
	return parsed, nil
}

var platforms = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"tiktok", regexp.MustCompile(`(?i)tiktok\.com`)},
	{"youtube", regexp.MustCompile(`(?i)youtube\.com|youtu\.be`)},
	{"instagram", regexp.MustCompile(`(?i)instagram\.com`)},
	{"twitter", regexp.MustCompile(`(?i)twitter\.com|(^|[/.])x\.com`)},
	{"facebook", regexp.MustCompile(`(?i)facebook\.com|fb\.watch`)},
}

// DetectPlatform names the site a URL belongs to, or "other".
func DetectPlatform(raw string) string {
	for _, p := range platforms {
		if p.pattern.MatchString(raw) {
			return p.name
		}
	}
	return "other"
}
