package guardrails

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Patterns that indicate an attempt to steer the model away from its
// instructions. Checked against the raw query before sanitization.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+.*(previous|above|all).*instructions?`),
	regexp.MustCompile(`(?i)you\s+are\s+now`),
	regexp.MustCompile(`(?i)new\s+instructions?`),
	regexp.MustCompile(`(?i)system\s*:\s*you`),
	regexp.MustCompile(`(?i)<\s*script\s*>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)exec\s*\(`),
	regexp.MustCompile(`(?i)forget\s+(everything|all)`),
	regexp.MustCompile(`(?i)disregard\s+(previous|above)`),
	regexp.MustCompile(`(?i)override\s+your`),
	regexp.MustCompile(`(?i)new\s+role`),
	regexp.MustCompile(`(?i)act\s+as\s+if`),
}

var (
	htmlTagPattern     = regexp.MustCompile(`<[^>]+>`)
	controlCharPattern = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)
	injectionCharSet   = "{}[]\\"
)

// InputValidator checks and sanitizes the raw user query at the
// pipeline entrance.
type InputValidator struct {
	limits Limits
	logger *zerolog.Logger
}

func NewInputValidator(limits Limits, logger *zerolog.Logger) *InputValidator {
	return &InputValidator{limits: limits.withDefaults(), logger: logger}
}

// Validate rejects out-of-bounds or suspicious queries and returns
// the sanitized query for downstream use.
func (v *InputValidator) Validate(query string) (string, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "", violation("input", "query must be a non-empty string")
	}

	if len(trimmed) < v.limits.MinQueryLen {
		return "", violation("input", "query too short (min %d chars)", v.limits.MinQueryLen)
	}
	if len(trimmed) > v.limits.MaxQueryLen {
		return "", violation("input", "query too long (max %d chars)", v.limits.MaxQueryLen)
	}

	for _, pattern := range injectionPatterns {
		if pattern.MatchString(trimmed) {
			v.logger.Warn().Str("pattern", pattern.String()).Msg("injection attempt detected")
			return "", violation("input", "query contains suspicious patterns and was blocked for security")
		}
	}

	sanitized := sanitizeQuery(trimmed)
	if sanitized == "" {
		return "", violation("input", "query empty after sanitization")
	}

	return sanitized, nil
}

func sanitizeQuery(query string) string {
	query = htmlTagPattern.ReplaceAllString(query, "")
	query = controlCharPattern.ReplaceAllString(query, "")

	query = strings.Map(func(r rune) rune {
		if strings.ContainsRune(injectionCharSet, r) {
			return -1
		}
		return r
	}, query)

	// Collapse whitespace runs to single spaces.
	query = strings.Join(strings.Fields(query), " ")

	return strings.TrimSpace(query)
}
