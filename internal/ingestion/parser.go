package ingestion

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/regdoc/answer-agent/internal/models"
)

var diagramPattern = regexp.MustCompile(`(?i)Diagram\s+\d+\.\d+`)

// Parser turns an extracted corpus file into chunk records. Pages are
// separated by form feeds (the convention PDF text extractors emit);
// each page maps to one page image under /media/.
type Parser struct {
	chunker *Chunker
}

func NewParser(chunkSize, overlap int) *Parser {
	return &Parser{chunker: NewChunker(chunkSize, overlap)}
}

// ParseFile reads the corpus and emits chunks with page numbers,
// page-image media paths, and the diagram ids mentioned in each
// chunk's text.
func (p *Parser) ParseFile(path string) ([]models.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read corpus: %w", err)
	}

	pages := strings.Split(string(data), "\f")
	var chunks []models.Chunk

	for pageIdx, pageText := range pages {
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}

		pageNum := pageIdx + 1
		mediaPath := fmt.Sprintf("/media/page_%d.png", pageNum)

		for _, tc := range p.chunker.ChunkText(pageText) {
			chunks = append(chunks, models.Chunk{
				ID:         fmt.Sprintf("p%d_c%d", pageNum, tc.Index),
				Page:       pageNum,
				Text:       tc.Content,
				TokenCount: estimateTokens(tc.Content),
				DiagramIDs: findDiagramIDs(tc.Content),
				Media:      []string{mediaPath},
				IsTable:    looksLikeTable(tc.Content),
			})
		}
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("corpus produced no chunks")
	}

	return chunks, nil
}

func findDiagramIDs(text string) []string {
	found := diagramPattern.FindAllString(text, -1)
	set := make(map[string]bool, len(found))
	for _, f := range found {
		set[normalizeDiagramID(f)] = true
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func normalizeDiagramID(id string) string {
	fields := strings.Fields(id)
	if len(fields) != 2 {
		return id
	}
	return "Diagram " + fields[1]
}

// estimateTokens approximates the tokenizer at ~4 chars per token.
func estimateTokens(text string) int {
	return len(text) / 4
}

func looksLikeTable(text string) bool {
	pipeLines := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.Count(line, "|") >= 2 {
			pipeLines++
		}
	}
	return pipeLines >= 2
}
