package guardrails

import (
	"fmt"
)

// Violation is raised when an input, context, or output policy check
// fails. It is always user-surfaceable and never retried.
type Violation struct {
	Boundary string // "input", "context", or "output"
	Reason   string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("guardrail violation (%s): %s", v.Boundary, v.Reason)
}

func violation(boundary, format string, args ...any) *Violation {
	return &Violation{Boundary: boundary, Reason: fmt.Sprintf(format, args...)}
}

// Limits holds the guardrail thresholds. Zero values are replaced by
// the defaults below.
type Limits struct {
	MinQueryLen   int `yaml:"min_query_len"`
	MaxQueryLen   int `yaml:"max_query_len"`
	MinContextLen int `yaml:"min_context_len"`
	MaxContextLen int `yaml:"max_context_len"`
	MaxSteps      int `yaml:"max_steps"`
	MaxLinks      int `yaml:"max_links"`
	MaxMedia      int `yaml:"max_media"`
	MaxSummaryLen int `yaml:"max_summary_len"`
}

func DefaultLimits() Limits {
	return Limits{
		MinQueryLen:   5,
		MaxQueryLen:   500,
		MinContextLen: 50,
		MaxContextLen: 50000,
		MaxSteps:      10,
		MaxLinks:      10,
		MaxMedia:      5,
		MaxSummaryLen: 2000,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MinQueryLen == 0 {
		l.MinQueryLen = d.MinQueryLen
	}
	if l.MaxQueryLen == 0 {
		l.MaxQueryLen = d.MaxQueryLen
	}
	if l.MinContextLen == 0 {
		l.MinContextLen = d.MinContextLen
	}
	if l.MaxContextLen == 0 {
		l.MaxContextLen = d.MaxContextLen
	}
	if l.MaxSteps == 0 {
		l.MaxSteps = d.MaxSteps
	}
	if l.MaxLinks == 0 {
		l.MaxLinks = d.MaxLinks
	}
	if l.MaxMedia == 0 {
		l.MaxMedia = d.MaxMedia
	}
	if l.MaxSummaryLen == 0 {
		l.MaxSummaryLen = d.MaxSummaryLen
	}
	return l
}
