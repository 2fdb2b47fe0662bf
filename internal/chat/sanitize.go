package chat

import (
	"regexp"
	"strings"
	"unicode"
)

// Common prompt-injection phrasings stripped before storage. Detection is
// deliberately shallow: the transcript is relayed to an external reasoning
// CLI, and this only removes the lowest-effort steering attempts.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(?:all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(?:all\s+)?(?:prior|previous)\s+(?:instructions|context)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+in\s+developer\s+mode`),
	regexp.MustCompile(`(?i)<\s*/?\s*system\s*>`),
}

// Sanitize strips control characters (newlines and tabs excepted) and known
// injection phrasings from message content. It returns the cleaned content
// and whether anything was altered.
func Sanitize(content string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, content)

	for _, pattern := range injectionPatterns {
		cleaned = pattern.ReplaceAllString(cleaned, "[removed]")
	}
	return cleaned, cleaned != content
}
