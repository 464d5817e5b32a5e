package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/regdoc/answer-agent/internal/models"
)

const chunkDelimiter = "\n\n---\n\n"

// assembledContext is the generator's working set for one request:
// the concatenated context text plus the two allowed-reference sets.
// Both sets are derived strictly from the selected chunks - growing
// them from the full corpus would defeat the grounding guarantee.
type assembledContext struct {
	Text         string
	AllowedPages []string
	AllowedMedia []string
}

// assembleContext concatenates the selected chunk texts in reranked
// order, each prefixed with a page marker, and collects the page
// media paths and diagram ids the generated answer may cite.
func assembleContext(selected []models.Chunk) assembledContext {
	blocks := make([]string, 0, len(selected))
	pageSet := make(map[string]bool)
	mediaSet := make(map[string]bool)

	for _, chunk := range selected {
		blocks = append(blocks, fmt.Sprintf("[Page %d]\n%s", chunk.Page, chunk.Text))
		for _, m := range chunk.Media {
			pageSet[m] = true
		}
		for _, d := range chunk.DiagramIDs {
			mediaSet[d] = true
		}
	}

	return assembledContext{
		Text:         strings.Join(blocks, chunkDelimiter),
		AllowedPages: sortedKeys(pageSet),
		AllowedMedia: sortedKeys(mediaSet),
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
