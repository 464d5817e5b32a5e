package retriever

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/regdoc/answer-agent/internal/embedding"
	"github.com/regdoc/answer-agent/internal/index"
	"github.com/regdoc/answer-agent/internal/models"
	"github.com/regdoc/answer-agent/internal/store"
)

// ErrRetrieval marks retrieval failures: both indexes empty, an empty
// query, or unavailable retrieval infrastructure. Surfaced as a
// service failure and never retried automatically.
var ErrRetrieval = errors.New("retrieval error")

// rrfK dampens the weight of lower ranks in reciprocal-rank fusion.
const rrfK = 60.0

type Weights struct {
	Semantic float64
	Lexical  float64
}

func DefaultWeights() Weights {
	return Weights{Semantic: 0.6, Lexical: 0.4}
}

// Hybrid fuses semantic and lexical index hits into one ranking.
// Semantic distance and BM25 score live on incomparable scales, so
// fusion works on rank positions: each hit contributes
// weight / (rrfK + rank) and a chunk found by both indexes sums both
// contributions. Duplicates collapse to one candidate keeping the
// combined score.
type Hybrid struct {
	semantic *index.SemanticIndex
	lexical  *index.LexicalIndex
	embedder embedding.Embedder
	chunks   *store.ChunkStore
	weights  Weights
	logger   *zerolog.Logger
}

func NewHybrid(
	semantic *index.SemanticIndex,
	lexical *index.LexicalIndex,
	embedder embedding.Embedder,
	chunks *store.ChunkStore,
	weights Weights,
	logger *zerolog.Logger,
) *Hybrid {
	return &Hybrid{
		semantic: semantic,
		lexical:  lexical,
		embedder: embedder,
		chunks:   chunks,
		weights:  weights,
		logger:   logger,
	}
}

// Retrieve returns up to candidateK candidates ordered best-first.
func (h *Hybrid) Retrieve(ctx context.Context, query string, candidateK int) ([]models.CandidateResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrRetrieval)
	}

	semanticHits, err := h.semanticSearch(ctx, query, candidateK)
	if err != nil {
		h.logger.Warn().Err(err).Msg("semantic search failed, falling back to lexical only")
		semanticHits = nil
	}

	lexicalHits := h.lexical.Search(query, candidateK)

	if len(semanticHits) == 0 && len(lexicalHits) == 0 {
		return nil, fmt.Errorf("%w: no candidates from either index", ErrRetrieval)
	}

	fused := make(map[int]float64)
	for rank, hit := range semanticHits {
		fused[hit.Index] += h.weights.Semantic / (rrfK + float64(rank+1))
	}
	for rank, hit := range lexicalHits {
		fused[hit.Index] += h.weights.Lexical / (rrfK + float64(rank+1))
	}

	type scoredIndex struct {
		index int
		score float64
	}

	scored := make([]scoredIndex, 0, len(fused))
	for idx, score := range fused {
		scored = append(scored, scoredIndex{index: idx, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].index < scored[j].index
	})

	if len(scored) > candidateK {
		scored = scored[:candidateK]
	}

	candidates := make([]models.CandidateResult, 0, len(scored))
	for rank, s := range scored {
		chunk, err := h.chunks.Get(s.index)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
		}
		candidates = append(candidates, models.CandidateResult{
			Chunk: chunk,
			Score: s.score,
			Rank:  rank + 1,
		})
	}

	h.logger.Debug().
		Int("semantic_hits", len(semanticHits)).
		Int("lexical_hits", len(lexicalHits)).
		Int("fused", len(candidates)).
		Msg("hybrid retrieval complete")

	return candidates, nil
}

func (h *Hybrid) semanticSearch(ctx context.Context, query string, k int) ([]index.Hit, error) {
	vectors, err := h.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("unable to embed query: %w", err)
	}

	hits, err := h.semantic.Search(vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("semantic index search failed: %w", err)
	}
	return hits, nil
}
