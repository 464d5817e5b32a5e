package guardrails

import (
	"strings"

	"github.com/regdoc/answer-agent/internal/models"
)

const (
	mediaPathPrefix    = "/media/"
	diagramLabelPrefix = "Diagram "
	minTitleLen        = 5
	minSummaryLen      = 10
)

// OutputValidator checks the structure and reference closure of a
// generated answer before it leaves the pipeline.
type OutputValidator struct {
	limits Limits
}

func NewOutputValidator(limits Limits) *OutputValidator {
	return &OutputValidator{limits: limits.withDefaults()}
}

// Validate verifies the answer structure and its references. In
// lenient mode a media entry that looks like a diagram label passes
// even when absent from the allowed set; strict mode requires every
// link and media entry to match the allowed sets exactly. The mode is
// supplied by the caller, never inferred.
func (v *OutputValidator) Validate(resp models.AnswerResponse, allowedPages, allowedMedia []string, strict bool) error {
	if err := v.checkStructure(resp); err != nil {
		return err
	}
	return v.checkReferences(resp, allowedPages, allowedMedia, strict)
}

func (v *OutputValidator) checkStructure(resp models.AnswerResponse) error {
	if resp.Mode == "" {
		return violation("output", "missing required field: mode")
	}
	if resp.Links == nil {
		return violation("output", "missing required field: links")
	}
	if resp.Media.Images == nil {
		return violation("output", "missing required field: media.images")
	}

	title := strings.TrimSpace(resp.Answer.Title)
	if len(title) < minTitleLen {
		return violation("output", "title too short or empty")
	}

	summary := strings.TrimSpace(resp.Answer.Summary)
	if len(summary) < minSummaryLen {
		return violation("output", "summary too short or empty")
	}
	if len(summary) > v.limits.MaxSummaryLen {
		return violation("output", "summary too long (max %d chars)", v.limits.MaxSummaryLen)
	}

	if resp.Answer.Steps == nil {
		return violation("output", "missing required answer field: steps")
	}
	if resp.Answer.Verification == nil {
		return violation("output", "missing required answer field: verification")
	}
	if len(resp.Answer.Steps) > v.limits.MaxSteps {
		return violation("output", "too many steps (max %d)", v.limits.MaxSteps)
	}

	return nil
}

func (v *OutputValidator) checkReferences(resp models.AnswerResponse, allowedPages, allowedMedia []string, strict bool) error {
	if len(resp.Links) > v.limits.MaxLinks {
		return violation("output", "too many links (max %d)", v.limits.MaxLinks)
	}

	pages := toSet(allowedPages)
	for _, link := range resp.Links {
		if !strings.HasPrefix(link, mediaPathPrefix) {
			return violation("output", "invalid link format: %s", link)
		}
		if strict && !pages[link] {
			return violation("output", "invalid page reference: %s", link)
		}
	}

	if len(resp.Media.Images) > v.limits.MaxMedia {
		return violation("output", "too many media files (max %d)", v.limits.MaxMedia)
	}

	media := toSet(allowedMedia)
	for _, img := range resp.Media.Images {
		isDiagramLabel := strings.HasPrefix(img, diagramLabelPrefix)
		if !strings.HasPrefix(img, mediaPathPrefix) && !isDiagramLabel {
			return violation("output", "invalid media format: %s", img)
		}
		if strict && !media[img] {
			return violation("output", "invalid media reference: %s", img)
		}
	}

	return nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
