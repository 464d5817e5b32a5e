package ingestion

type Chunker struct {
	ChunkSize    int
	ChunkOverlap int
}

type TextChunk struct {
	Index   int
	Start   int
	End     int
	Content string
}

func NewChunker(chunkSize, overlap int) *Chunker {
	return &Chunker{
		ChunkSize:    chunkSize,
		ChunkOverlap: overlap,
	}
}

// ChunkText slides a fixed-size window with overlap across the text.
func (c *Chunker) ChunkText(text string) []TextChunk {
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return []TextChunk{}
	}

	results := []TextChunk{}
	n := len(text)
	i := 0
	chunkIndex := 0

	for i < n {
		end := i + c.ChunkSize
		if end > n {
			end = n
		}

		results = append(results, TextChunk{
			Index:   chunkIndex,
			Content: text[i:end],
			Start:   i,
			End:     end,
		})

		i = i + c.ChunkSize - c.ChunkOverlap
		chunkIndex++
	}

	return results
}
