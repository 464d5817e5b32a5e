package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/regdoc/answer-agent/internal/llm"
	"github.com/regdoc/answer-agent/internal/models"
)

// ErrGeneration marks a failed answer generation: retries exhausted,
// response unparsable after the extraction fallback, or a final
// structure that fails schema validation.
var ErrGeneration = errors.New("generation error")

// Generator produces the structured answer from the query and the
// assembled context, with citations restricted to the allowed sets.
type Generator struct {
	client    llm.Client
	detector  HallucinationDetector
	maxTokens int
	logger    *zerolog.Logger
}

func New(client llm.Client, detector HallucinationDetector, logger *zerolog.Logger) *Generator {
	if detector == nil {
		detector = NewKeywordDetector(nil)
	}
	return &Generator{
		client:    client,
		detector:  detector,
		maxTokens: 2048,
		logger:    logger,
	}
}

// Generate calls the provider at temperature 0 with bounded retry,
// parses the structured answer, collapses hallucinated answers to the
// canonical no-information answer, filters citations down to the
// allowed sets, and validates the final shape.
func (g *Generator) Generate(ctx context.Context, query, contextText string, allowedPages, allowedMedia []string) (models.AnswerResponse, error) {
	if strings.TrimSpace(query) == "" {
		return models.AnswerResponse{}, fmt.Errorf("query is empty")
	}
	if strings.TrimSpace(contextText) == "" {
		return models.AnswerResponse{}, fmt.Errorf("context is empty")
	}

	resp, err := g.client.InvokeModelWithRetry(ctx, llm.Request{
		System:      answerSystemPrompt,
		Prompt:      buildUserPrompt(query, contextText, allowedPages, allowedMedia),
		MaxTokens:   g.maxTokens,
		Temperature: 0.0,
	})
	if err != nil {
		return models.AnswerResponse{}, fmt.Errorf("%w: provider call failed: %v", ErrGeneration, err)
	}

	var answer models.AnswerResponse
	if err := llm.DecodeJSON(resp.Content, &answer); err != nil {
		g.logger.Error().Str("content", resp.Content).Msg("failed to parse generator JSON")
		return models.AnswerResponse{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	if hit, phrase := g.detector.Detect(answer.Answer); hit {
		g.logger.Info().Str("phrase", phrase).Msg("hedge phrase detected, returning canonical answer")
		return models.NoInformationAnswer(), nil
	}

	answer.Links = intersect(answer.Links, allowedPages, g.logger, "link")
	answer.Media.Images = intersect(answer.Media.Images, allowedMedia, g.logger, "media")

	if err := validateSchema(answer); err != nil {
		return models.AnswerResponse{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	return answer, nil
}

// intersect drops entries absent from the allowed set. Dropping is
// silent and non-fatal: a hallucinated citation must never fail the
// request, only disappear from it.
func intersect(entries, allowed []string, logger *zerolog.Logger, kind string) []string {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}

	kept := make([]string, 0, len(entries))
	for _, e := range entries {
		if set[e] {
			kept = append(kept, e)
		} else {
			logger.Warn().Str(kind, e).Msg("dropping reference outside retrieved set")
		}
	}
	return kept
}

func validateSchema(resp models.AnswerResponse) error {
	if resp.Mode != models.ModeAnswer {
		return fmt.Errorf("unexpected mode %q", resp.Mode)
	}

	title := strings.TrimSpace(resp.Answer.Title)
	if len(title) < 5 {
		return fmt.Errorf("title too short")
	}

	summary := strings.TrimSpace(resp.Answer.Summary)
	if len(summary) < 10 || len(summary) > 2000 {
		return fmt.Errorf("summary length %d outside [10, 2000]", len(summary))
	}

	if len(resp.Answer.Steps) > 10 {
		return fmt.Errorf("too many steps: %d", len(resp.Answer.Steps))
	}

	return nil
}
