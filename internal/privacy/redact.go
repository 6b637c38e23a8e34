// Package privacy scrubs sensitive content from extracted text before it is
// chunked, embedded, or sent to external model endpoints.
package privacy

import (
	"regexp"
	"strings"
)

const redactedPlaceholder = "[REDACTED]"

var (
	// privateTagRegex matches <private>...</private> blocks users can place
	// in their own documents to keep sections out of the index.
	privateTagRegex = regexp.MustCompile(`(?s)<private>.*?</private>`)

	// secretPatterns match credential shapes commonly found in notes, shell
	// histories, and config files.
	secretPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(api[_-]?key|secret|token|password|passwd)\s*[:=]\s*\S+`),
		regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`),
		regexp.MustCompile(`\bsk-[A-Za-z0-9]{20,}\b`),
		regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`),
		regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
		regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----(?s).*?-----END [A-Z ]*PRIVATE KEY-----`),
	}
)

// StripPrivateTags removes all <private>...</private> content.
func StripPrivateTags(text string) string {
	return privateTagRegex.ReplaceAllString(text, "")
}

// RedactSecrets replaces credential-shaped substrings with a placeholder.
func RedactSecrets(text string) string {
	for _, re := range secretPatterns {
		text = re.ReplaceAllString(text, redactedPlaceholder)
	}
	return text
}

// IsEntirelyPrivate reports whether the text has no content outside
// <private> tags.
func IsEntirelyPrivate(text string) bool {
	return strings.TrimSpace(StripPrivateTags(text)) == ""
}

// Clean removes private sections and redacts secrets. This runs on every
// piece of file content before it is stored or embedded.
func Clean(text string) string {
	text = StripPrivateTags(text)
	text = RedactSecrets(text)
	return strings.TrimSpace(text)
}
