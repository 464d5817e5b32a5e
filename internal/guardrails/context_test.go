package guardrails

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newContextValidator() *ContextValidator {
	logger := zerolog.Nop()
	return NewContextValidator(DefaultLimits(), &logger)
}

func TestContextValidator_EmptyIsFatal(t *testing.T) {
	v := newContextValidator()

	if _, err := v.Validate(""); err == nil {
		t.Error("Expected violation for empty context")
	}
}

func TestContextValidator_OversizeIsFatal(t *testing.T) {
	v := newContextValidator()

	if _, err := v.Validate(strings.Repeat("a", 50001)); err == nil {
		t.Error("Expected violation for oversized context")
	}
}

func TestContextValidator_ShortIsNonFatal(t *testing.T) {
	v := newContextValidator()

	// Below the minimum only warns; the request continues.
	got, err := v.Validate("short context")
	if err != nil {
		t.Fatalf("Expected short context to pass, got %v", err)
	}
	if got != "short context" {
		t.Errorf("Expected context unchanged, got %q", got)
	}
}

func TestContextValidator_StripsMarkup(t *testing.T) {
	v := newContextValidator()

	got, err := v.Validate("[Page 4]\nExit doors <b>must</b> open outward.<script>steal()</script>")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if strings.Contains(got, "<") || strings.Contains(got, "steal") {
		t.Errorf("Expected markup stripped, got %q", got)
	}
	if !strings.Contains(got, "Exit doors must open outward.") {
		t.Errorf("Expected plain text preserved, got %q", got)
	}
}
