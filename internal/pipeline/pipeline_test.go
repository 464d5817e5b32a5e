package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/regdoc/answer-agent/internal/cache"
	"github.com/regdoc/answer-agent/internal/generate"
	"github.com/regdoc/answer-agent/internal/guardrails"
	"github.com/regdoc/answer-agent/internal/index"
	"github.com/regdoc/answer-agent/internal/llm"
	"github.com/regdoc/answer-agent/internal/models"
	"github.com/regdoc/answer-agent/internal/rerank"
	"github.com/regdoc/answer-agent/internal/retriever"
	"github.com/regdoc/answer-agent/internal/store"
)

type scriptedClient struct {
	ResponseToReturn string
	CallCount        int
}

func (c *scriptedClient) InvokeModel(ctx context.Context, request llm.Request) (*llm.Response, error) {
	c.CallCount++
	return &llm.Response{Content: c.ResponseToReturn, StopReason: "end_turn"}, nil
}

func (c *scriptedClient) InvokeModelWithRetry(ctx context.Context, request llm.Request) (*llm.Response, error) {
	return c.InvokeModel(ctx, request)
}

type stubEmbedder struct{ vector []float32 }

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

type memoryCache struct {
	entries map[string]models.AnswerResponse
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]models.AnswerResponse)}
}

func (m *memoryCache) Get(ctx context.Context, query string) (*models.AnswerResponse, bool) {
	answer, ok := m.entries[query]
	if !ok {
		return nil, false
	}
	return &answer, true
}

func (m *memoryCache) Set(ctx context.Context, query string, answer models.AnswerResponse) {
	m.entries[query] = answer
}

const rerankResponse = `{"results": [{"id": 0, "score": 0.9}, {"id": 1, "score": 0.3}]}`

const generateResponse = `{
  "mode": "answer",
  "answer": {
    "title": "Maximum Travel Distance",
    "summary": "The maximum travel distance to an exit is 18 metres where escape is possible in one direction only.",
    "steps": ["Identify the purpose group", "Read the distance limit"],
    "verification": ["Table 3 on page 12 lists the limits"]
  },
  "links": ["/media/page_12.png", "/media/page_999.png"],
  "media": {"images": ["Diagram 2.1"]}
}`

func newTestPipeline(t *testing.T, generator *scriptedClient, answers *memoryCache) *Pipeline {
	t.Helper()

	chunks := []models.Chunk{
		{
			ID: "p12_c0", Page: 12,
			Text:       "The maximum travel distance to an exit depends on the purpose group, see Diagram 2.1.",
			Media:      []string{"/media/page_12.png"},
			DiagramIDs: []string{"Diagram 2.1"},
		},
		{
			ID: "p13_c0", Page: 13,
			Text:  "Fire doors must achieve a thirty minute resistance rating.",
			Media: []string{"/media/page_13.png"},
		},
		{
			ID: "p14_c0", Page: 14,
			Text:  "Protected stairways require a minimum clear width throughout the escape route.",
			Media: []string{"/media/page_14.png"},
		},
	}

	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	semantic, err := index.NewSemanticIndex(vectors)
	if err != nil {
		t.Fatalf("NewSemanticIndex failed: %v", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	lexical := index.NewLexicalIndex(texts)

	logger := zerolog.Nop()
	limits := guardrails.DefaultLimits()

	hybrid := retriever.NewHybrid(semantic, lexical, &stubEmbedder{vector: []float32{1, 0, 0}},
		store.NewChunkStore(chunks), retriever.DefaultWeights(), &logger)
	reranker := rerank.New(&scriptedClient{ResponseToReturn: rerankResponse}, 1000, &logger)
	gen := generate.New(generator, nil, &logger)

	var answerCache cache.AnswerCache
	if answers != nil {
		answerCache = answers
	}

	return New(
		guardrails.NewInputValidator(limits, &logger),
		guardrails.NewContextValidator(limits, &logger),
		guardrails.NewOutputValidator(limits),
		hybrid,
		reranker,
		gen,
		answerCache,
		Options{TopK: 5, CandidateK: 30},
		&logger,
	)
}

func TestPipeline_AnswersGroundedQuestion(t *testing.T) {
	generator := &scriptedClient{ResponseToReturn: generateResponse}
	p := newTestPipeline(t, generator, nil)

	answer, err := p.Answer(context.Background(), "What is the maximum travel distance to an exit?")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if answer.Answer.Title != "Maximum Travel Distance" {
		t.Errorf("Unexpected title %q", answer.Answer.Title)
	}

	// The stray page the model cited is outside the selected chunks
	// and must be gone from the final answer.
	for _, link := range answer.Links {
		if link == "/media/page_999.png" {
			t.Error("Ungrounded link survived the pipeline")
		}
	}
	if len(answer.Links) != 1 || answer.Links[0] != "/media/page_12.png" {
		t.Errorf("Unexpected links %v", answer.Links)
	}
	if len(answer.Media.Images) != 1 || answer.Media.Images[0] != "Diagram 2.1" {
		t.Errorf("Unexpected media %v", answer.Media.Images)
	}
	if answer.LatencyMs < 0 {
		t.Errorf("Expected non-negative latency, got %d", answer.LatencyMs)
	}
}

func TestPipeline_NoOverlapReturnsCanonicalAnswer(t *testing.T) {
	generator := &scriptedClient{ResponseToReturn: generateResponse}
	p := newTestPipeline(t, generator, nil)

	answer, err := p.Answer(context.Background(), "best banana bread recipe please")
	if err != nil {
		t.Fatalf("Expected terminal success, got %v", err)
	}

	if answer.Answer.Title != models.NoInformationTitle {
		t.Errorf("Expected canonical no-information answer, got title %q", answer.Answer.Title)
	}
	if len(answer.Links) != 0 || len(answer.Media.Images) != 0 {
		t.Error("Expected canonical answer without references")
	}
	if generator.CallCount != 0 {
		t.Errorf("Expected generation skipped, provider called %d times", generator.CallCount)
	}
}

func TestPipeline_InputViolation(t *testing.T) {
	p := newTestPipeline(t, &scriptedClient{ResponseToReturn: generateResponse}, nil)

	_, err := p.Answer(context.Background(), "hi")
	if err == nil {
		t.Fatal("Expected violation for short query")
	}

	var v *guardrails.Violation
	if !errors.As(err, &v) {
		t.Fatalf("Expected *guardrails.Violation, got %T", err)
	}
	if v.Boundary != "input" {
		t.Errorf("Expected input boundary, got %q", v.Boundary)
	}
}

func TestPipeline_DeterministicAcrossCalls(t *testing.T) {
	generator := &scriptedClient{ResponseToReturn: generateResponse}
	p := newTestPipeline(t, generator, nil)

	first, err := p.Answer(context.Background(), "What is the maximum travel distance to an exit?")
	if err != nil {
		t.Fatalf("First call failed: %v", err)
	}
	second, err := p.Answer(context.Background(), "What is the maximum travel distance to an exit?")
	if err != nil {
		t.Fatalf("Second call failed: %v", err)
	}

	if !reflect.DeepEqual(first.Answer, second.Answer) {
		t.Error("Expected identical answers across calls")
	}
	if !reflect.DeepEqual(first.Links, second.Links) {
		t.Error("Expected identical links across calls")
	}
}

func TestPipeline_CachesAnswers(t *testing.T) {
	generator := &scriptedClient{ResponseToReturn: generateResponse}
	answers := newMemoryCache()
	p := newTestPipeline(t, generator, answers)

	if _, err := p.Answer(context.Background(), "What is the maximum travel distance to an exit?"); err != nil {
		t.Fatalf("First call failed: %v", err)
	}
	if generator.CallCount != 1 {
		t.Fatalf("Expected one provider call, got %d", generator.CallCount)
	}

	if _, err := p.Answer(context.Background(), "What is the maximum travel distance to an exit?"); err != nil {
		t.Fatalf("Second call failed: %v", err)
	}
	if generator.CallCount != 1 {
		t.Errorf("Expected cache hit to skip generation, provider called %d times", generator.CallCount)
	}
}

func TestPipeline_CancelledContext(t *testing.T) {
	p := newTestPipeline(t, &scriptedClient{ResponseToReturn: generateResponse}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Answer(ctx, "What is the maximum travel distance to an exit?"); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestAssembleContext(t *testing.T) {
	assembled := assembleContext([]models.Chunk{
		{Page: 12, Text: "Travel distances.", Media: []string{"/media/page_12.png"}, DiagramIDs: []string{"Diagram 2.1"}},
		{Page: 13, Text: "Fire doors.", Media: []string{"/media/page_13.png"}},
	})

	want := "[Page 12]\nTravel distances.\n\n---\n\n[Page 13]\nFire doors."
	if assembled.Text != want {
		t.Errorf("Unexpected context text %q", assembled.Text)
	}
	if len(assembled.AllowedPages) != 2 {
		t.Errorf("Unexpected allowed pages %v", assembled.AllowedPages)
	}
	if len(assembled.AllowedMedia) != 1 || assembled.AllowedMedia[0] != "Diagram 2.1" {
		t.Errorf("Unexpected allowed media %v", assembled.AllowedMedia)
	}
}

func TestSelectTopK(t *testing.T) {
	candidates := []models.CandidateResult{
		{Chunk: models.Chunk{ID: "a"}},
		{Chunk: models.Chunk{ID: "b"}},
		{Chunk: models.Chunk{ID: "c"}},
	}
	scores := []models.RerankScore{
		{Index: 2, Score: 0.9},
		{Index: 0, Score: 0.5},
		{Index: 1, Score: 0.1},
	}

	selected := selectTopK(candidates, scores, 2)
	if len(selected) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(selected))
	}
	if selected[0].ID != "c" || selected[1].ID != "a" {
		t.Errorf("Unexpected selection order: %q, %q", selected[0].ID, selected[1].ID)
	}
}

func TestContextIsRelevant(t *testing.T) {
	if !contextIsRelevant("maximum travel distance", "[Page 12]\nThe travel distance limits are listed.") {
		t.Error("Expected overlap to be detected")
	}
	if contextIsRelevant("banana bread recipe", "[Page 12]\nThe travel distance limits are listed.") {
		t.Error("Expected no overlap")
	}
}
