package guardrails

import (
	"regexp"

	"github.com/rs/zerolog"
)

var scriptBlockPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)

// ContextValidator checks the assembled retrieval context before it
// reaches the answer generator.
type ContextValidator struct {
	limits Limits
	logger *zerolog.Logger
}

func NewContextValidator(limits Limits, logger *zerolog.Logger) *ContextValidator {
	return &ContextValidator{limits: limits.withDefaults(), logger: logger}
}

// Validate rejects empty or oversized context and returns a sanitized
// copy with markup stripped. Context below the minimum length only
// logs a warning: short context is suspicious but still answerable,
// while oversized context would blow the prompt budget.
func (v *ContextValidator) Validate(context string) (string, error) {
	if context == "" {
		return "", violation("context", "context is empty")
	}

	if len(context) > v.limits.MaxContextLen {
		return "", violation("context", "context too long (max %d chars)", v.limits.MaxContextLen)
	}
	if len(context) < v.limits.MinContextLen {
		v.logger.Warn().Int("length", len(context)).Msg("context very short")
	}

	sanitized := scriptBlockPattern.ReplaceAllString(context, "")
	sanitized = htmlTagPattern.ReplaceAllString(sanitized, "")

	return sanitized, nil
}
