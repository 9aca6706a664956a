package logger

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// Keys whose values may carry comment text or credentials.
var sensitiveKeys = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"authorization": true,
	"body":          true,
	"comment":       true,
	"core":          true,
	"password":      true,
	"q":             true,
	"secret":        true,
	"token":         true,
	"translation":   true,
}

var sensitiveKeySubstrings = []string{
	"key",
	"token",
	"secret",
	"password",
	"authorization",
	"bearer",
	"prompt",
	"body",
	"text",
	"comment",
	"translat",
}

// Keys containing a sensitive substring that are known to hold only counters
// or identifiers.
var safeKeys = map[string]bool{
	"comments":         true,
	"failed_comments":  true,
	"total_comments":   true,
	"comment_index":    true,
	"translated":       true,
	"key_source":       true,
	"key_service":      true,
	"translation_mode": true,
}

var sensitiveValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{10,}\b`),
	regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]+=*`),
	regexp.MustCompile(`(?i)"?\bapi[_-]?key"?\s*[:=]\s*\S+`),
	regexp.MustCompile(`(?i)[?&]key=[^&\s]+`),
}

// RedactAttr is a slog ReplaceAttr hook that hides credentials and comment
// text before a record reaches any handler.
func RedactAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		return a
	}
	if isSensitive(a) {
		return slog.String(a.Key, redacted)
	}
	return a
}

func isSensitive(a slog.Attr) bool {
	key := strings.ToLower(a.Key)
	if safeKeys[key] {
		return false
	}
	if sensitiveKeys[key] {
		return true
	}
	for _, sub := range sensitiveKeySubstrings {
		if strings.Contains(key, sub) {
			return true
		}
	}

	value := attrString(a.Value)
	if value == "" {
		return false
	}
	for _, re := range sensitiveValuePatterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

func attrString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok && err != nil {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return ""
	}
}
