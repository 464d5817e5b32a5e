package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/regdoc/answer-agent/internal/cache"
	"github.com/regdoc/answer-agent/internal/generate"
	"github.com/regdoc/answer-agent/internal/guardrails"
	"github.com/regdoc/answer-agent/internal/index"
	"github.com/regdoc/answer-agent/internal/models"
	"github.com/regdoc/answer-agent/internal/rerank"
	"github.com/regdoc/answer-agent/internal/retriever"
)

type Options struct {
	TopK       int
	CandidateK int
	Strict     bool
}

func DefaultOptions() Options {
	return Options{TopK: 5, CandidateK: 30}
}

// Pipeline sequences one request end to end: sanitize, retrieve,
// rerank, assemble context, validate context, generate, validate
// output. Stages run strictly sequentially and the pipeline holds no
// cross-request state, so concurrent requests are fully independent.
type Pipeline struct {
	input     *guardrails.InputValidator
	ctxCheck  *guardrails.ContextValidator
	output    *guardrails.OutputValidator
	retriever *retriever.Hybrid
	reranker  *rerank.Reranker
	generator *generate.Generator
	answers   cache.AnswerCache
	opts      Options
	logger    *zerolog.Logger
}

func New(
	input *guardrails.InputValidator,
	ctxCheck *guardrails.ContextValidator,
	output *guardrails.OutputValidator,
	hybrid *retriever.Hybrid,
	reranker *rerank.Reranker,
	generator *generate.Generator,
	answers cache.AnswerCache,
	opts Options,
	logger *zerolog.Logger,
) *Pipeline {
	if opts.TopK == 0 {
		opts.TopK = DefaultOptions().TopK
	}
	if opts.CandidateK == 0 {
		opts.CandidateK = DefaultOptions().CandidateK
	}
	return &Pipeline{
		input:     input,
		ctxCheck:  ctxCheck,
		output:    output,
		retriever: hybrid,
		reranker:  reranker,
		generator: generator,
		answers:   answers,
		opts:      opts,
		logger:    logger,
	}
}

// Answer runs the full pipeline for one question. A query whose
// retrieved context shares no terms with it is a terminal outcome,
// not an error: the canonical no-information answer is returned with
// status success.
func (p *Pipeline) Answer(ctx context.Context, question string) (models.AnswerResponse, error) {
	start := time.Now()

	sanitized, err := p.input.Validate(question)
	if err != nil {
		return models.AnswerResponse{}, err
	}

	if p.answers != nil {
		if cached, ok := p.answers.Get(ctx, sanitized); ok {
			p.logger.Info().Str("query", logPrefix(sanitized)).Msg("answer cache hit")
			return *cached, nil
		}
	}

	candidates, err := p.retriever.Retrieve(ctx, sanitized, p.opts.CandidateK)
	if err != nil {
		p.logger.Error().Err(err).Str("query", logPrefix(sanitized)).Str("stage", "retrieve").Msg("pipeline failed")
		return models.AnswerResponse{}, err
	}

	if err := ctx.Err(); err != nil {
		return models.AnswerResponse{}, fmt.Errorf("request aborted after retrieval: %w", err)
	}

	scores, err := p.reranker.Score(ctx, sanitized, candidates)
	if err != nil {
		p.logger.Error().Err(err).Str("query", logPrefix(sanitized)).Str("stage", "rerank").Msg("pipeline failed")
		return models.AnswerResponse{}, err
	}

	selected := selectTopK(candidates, scores, p.opts.TopK)
	assembled := assembleContext(selected)

	if err := ctx.Err(); err != nil {
		return models.AnswerResponse{}, fmt.Errorf("request aborted after reranking: %w", err)
	}

	if !contextIsRelevant(sanitized, assembled.Text) {
		p.logger.Info().Str("query", logPrefix(sanitized)).Msg("no query/context overlap, returning canonical answer")
		answer := models.NoInformationAnswer()
		answer.LatencyMs = time.Since(start).Milliseconds()
		return answer, nil
	}

	contextText, err := p.ctxCheck.Validate(assembled.Text)
	if err != nil {
		p.logger.Error().Err(err).Str("query", logPrefix(sanitized)).Str("stage", "context").Msg("pipeline failed")
		return models.AnswerResponse{}, err
	}

	answer, err := p.generator.Generate(ctx, sanitized, contextText, assembled.AllowedPages, assembled.AllowedMedia)
	if err != nil {
		p.logger.Error().Err(err).Str("query", logPrefix(sanitized)).Str("stage", "generate").Msg("pipeline failed")
		return models.AnswerResponse{}, err
	}

	if err := p.output.Validate(answer, assembled.AllowedPages, assembled.AllowedMedia, p.opts.Strict); err != nil {
		p.logger.Error().Err(err).Str("query", logPrefix(sanitized)).Str("stage", "output").Msg("pipeline failed")
		return models.AnswerResponse{}, err
	}

	answer.LatencyMs = time.Since(start).Milliseconds()

	if p.answers != nil {
		p.answers.Set(ctx, sanitized, answer)
	}

	p.logger.Info().
		Str("query", logPrefix(sanitized)).
		Int("candidates", len(candidates)).
		Int("selected", len(selected)).
		Int64("latency_ms", answer.LatencyMs).
		Msg("answer generated")

	return answer, nil
}

// selectTopK maps the reranker's ordering back onto chunks, keeping
// at most k.
func selectTopK(candidates []models.CandidateResult, scores []models.RerankScore, k int) []models.Chunk {
	if len(scores) > k {
		scores = scores[:k]
	}

	selected := make([]models.Chunk, 0, len(scores))
	for _, s := range scores {
		selected = append(selected, candidates[s.Index].Chunk)
	}
	return selected
}

// contextIsRelevant requires at least one shared term between query
// and context. Zero overlap means retrieval surfaced nothing usable
// and generation would only be invited to hallucinate.
func contextIsRelevant(query, contextText string) bool {
	queryTokens := index.Tokenize(query)
	contextTokens := make(map[string]bool)
	for _, t := range index.Tokenize(contextText) {
		contextTokens[t] = true
	}

	for _, t := range queryTokens {
		if contextTokens[t] {
			return true
		}
	}
	return false
}

func logPrefix(query string) string {
	if len(query) > 64 {
		return query[:64]
	}
	return query
}
