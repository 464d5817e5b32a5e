package generate

import (
	"strings"

	"github.com/regdoc/answer-agent/internal/models"
)

// HallucinationDetector decides whether a generated answer reached
// outside the supplied context. Implementations may range from
// keyword matching to a model-based classifier; the pipeline only
// depends on this interface.
type HallucinationDetector interface {
	Detect(answer models.AnswerContent) (bool, string)
}

// Hedge phrases the model emits when it had to reach outside the
// context or found nothing in it.
var defaultHedgePhrases = []string{
	"general knowledge",
	"common knowledge",
	"does not provide any information",
	"context does not contain",
	"outside the provided context",
	"not mentioned in the context",
	"based on my training",
}

// KeywordDetector is the default detector: a case-insensitive
// substring scan of the summary and verification fields against a
// fixed hedge-phrase list.
type KeywordDetector struct {
	phrases []string
}

func NewKeywordDetector(phrases []string) *KeywordDetector {
	if len(phrases) == 0 {
		phrases = defaultHedgePhrases
	}
	return &KeywordDetector{phrases: phrases}
}

func (d *KeywordDetector) Detect(answer models.AnswerContent) (bool, string) {
	fields := make([]string, 0, len(answer.Verification)+1)
	fields = append(fields, answer.Summary)
	fields = append(fields, answer.Verification...)

	for _, field := range fields {
		lower := strings.ToLower(field)
		for _, phrase := range d.phrases {
			if strings.Contains(lower, phrase) {
				return true, phrase
			}
		}
	}
	return false, ""
}
