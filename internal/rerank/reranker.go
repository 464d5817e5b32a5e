package rerank

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/regdoc/answer-agent/internal/llm"
	"github.com/regdoc/answer-agent/internal/models"
)

// ErrRerank marks an unusable reranker response: unparsable JSON or
// scores referencing candidates that were never sent. The batched
// call already failed once, so it is not retried.
var ErrRerank = errors.New("rerank error")

const systemPrompt = `You are a relevance scoring model for Retrieval-Augmented Generation.

Return ONLY valid JSON.
No explanations. No extra text.

JSON Schema:

{
  "results": [
    {"id": number, "score": number between 0 and 1},
    ...
  ]
}

Rules:
- Score reflects how well the passage answers the query.
- Higher = more relevant.
- Score ONLY based on semantic relevance.
- Do not change passage IDs.
- Do not include text from passages.`

// Reranker scores a candidate set against the query with a single
// batched text-generation call. One call for the whole set keeps
// request fan-out flat and avoids rate-limit amplification.
type Reranker struct {
	client     llm.Client
	charBudget int
	maxTokens  int
	logger     *zerolog.Logger
}

func New(client llm.Client, charBudget int, logger *zerolog.Logger) *Reranker {
	if charBudget <= 0 {
		charBudget = 1000
	}
	return &Reranker{
		client:     client,
		charBudget: charBudget,
		maxTokens:  1024,
		logger:     logger,
	}
}

// Score returns one RerankScore per candidate, sorted descending by
// score with ties preserving the original candidate order. Ids the
// model omitted get score 0 so the output covers exactly the input
// indices; ids outside the input range or repeated ids invalidate the
// whole response.
func (r *Reranker) Score(ctx context.Context, query string, candidates []models.CandidateResult) ([]models.RerankScore, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates to score", ErrRerank)
	}

	prompt := r.buildPrompt(query, candidates)

	resp, err := r.client.InvokeModel(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   r.maxTokens,
		Temperature: 0.0,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reranker call failed: %v", ErrRerank, err)
	}

	var result models.RerankResult
	if err := llm.DecodeJSON(resp.Content, &result); err != nil {
		r.logger.Error().Str("content", resp.Content).Msg("failed to parse reranker JSON")
		return nil, fmt.Errorf("%w: %v", ErrRerank, err)
	}

	scores := make([]float64, len(candidates))
	seen := make([]bool, len(candidates))
	for _, item := range result.Results {
		if item.Index < 0 || item.Index >= len(candidates) {
			return nil, fmt.Errorf("%w: score id %d outside candidate range [0, %d)", ErrRerank, item.Index, len(candidates))
		}
		if seen[item.Index] {
			return nil, fmt.Errorf("%w: duplicate score id %d", ErrRerank, item.Index)
		}
		if item.Score < 0 || item.Score > 1 {
			return nil, fmt.Errorf("%w: score %f for id %d outside [0, 1]", ErrRerank, item.Score, item.Index)
		}
		seen[item.Index] = true
		scores[item.Index] = item.Score
	}

	ordered := make([]models.RerankScore, len(candidates))
	for i := range candidates {
		if !seen[i] {
			r.logger.Warn().Int("id", i).Msg("reranker omitted candidate, scoring 0")
		}
		ordered[i] = models.RerankScore{Index: i, Score: scores[i]}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	return ordered, nil
}

func (r *Reranker) buildPrompt(query string, candidates []models.CandidateResult) string {
	var blocks []string
	for i, c := range candidates {
		text := c.Chunk.Text
		if len(text) > r.charBudget {
			text = text[:r.charBudget]
		}
		blocks = append(blocks, fmt.Sprintf("## Passage %d\n%s", i, text))
	}

	return fmt.Sprintf(`Query:
%s

Passages:
%s

Return JSON only.`, query, strings.Join(blocks, "\n\n"))
}
