package models

// Chunk is a unit of retrievable text extracted from the source
// document during the offline build. Chunks are immutable once built
// and owned by the chunk store for the process lifetime.
type Chunk struct {
	ID         string   `json:"id"`
	Page       int      `json:"page"`
	Text       string   `json:"text"`
	TokenCount int      `json:"token_count"`
	DiagramIDs []string `json:"diagram_ids"`
	Media      []string `json:"media"`
	IsTable    bool     `json:"is_table"`
}

// CandidateResult is a chunk proposed by retrieval, prior to
// reranking. Created per query and discarded after ranking.
type CandidateResult struct {
	Chunk Chunk
	Score float64
	Rank  int
}

// RerankScore is one reranker verdict. Index refers to the position
// of the candidate in the list that was sent to the reranker.
type RerankScore struct {
	Index int     `json:"id"`
	Score float64 `json:"score"`
}

// RerankResult is the strict JSON envelope the reranker must return.
type RerankResult struct {
	Results []RerankScore `json:"results"`
}

type AnswerContent struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Steps        []string `json:"steps"`
	Verification []string `json:"verification"`
}

type Media struct {
	Images []string `json:"images"`
}

// AnswerResponse is the structured answer returned to the caller.
// Links and media image paths are always a subset of the reference
// sets derived from the chunks selected for the request.
type AnswerResponse struct {
	Mode      string        `json:"mode"`
	Answer    AnswerContent `json:"answer"`
	Links     []string      `json:"links"`
	Media     Media         `json:"media"`
	LatencyMs int64         `json:"latency_ms"`
}

const (
	ModeAnswer = "answer"

	NoInformationTitle   = "No Information Found"
	NoInformationSummary = "No relevant information was found in the documentation."
)

// NoInformationAnswer is the canonical answer used both when
// retrieved context has no overlap with the query and when the
// hallucination detector rejects a generated answer.
func NoInformationAnswer() AnswerResponse {
	return AnswerResponse{
		Mode: ModeAnswer,
		Answer: AnswerContent{
			Title:        NoInformationTitle,
			Summary:      NoInformationSummary,
			Steps:        []string{},
			Verification: []string{},
		},
		Links: []string{},
		Media: Media{Images: []string{}},
	}
}
