package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redacted replaces masked values.
const Redacted = "***"

// Redactor masks credentials in log attributes.
type Redactor struct {
	keys     []string
	patterns []redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a redactor with the built-in key list and patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		keys: []string{"api_key", "apikey", "appid", "secret", "token", "password", "access_key"},
		patterns: []redactPattern{
			// Query parameters carrying OpenWeatherMap keys.
			{regexp.MustCompile(`(?i)(appid|api_key|apikey)=[^&\s"]+`), "${1}=" + Redacted},
			// AWS access key IDs.
			{regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`), "${1}" + Redacted},
			{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`), "Bearer " + Redacted},
		},
	}
}

// RedactString masks credential patterns inside value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr function.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if r.isSensitiveKey(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	switch a.Value.Kind() {
	case slog.KindString:
		if s := a.Value.String(); s != "" {
			return slog.String(a.Key, r.RedactString(s))
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

func (r *Redactor) isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range r.keys {
		if key == k || strings.HasSuffix(key, "_"+k) {
			return true
		}
	}
	return false
}
