package store

import (
	"fmt"

	"github.com/regdoc/answer-agent/internal/models"
)

// ChunkStore is the read-only in-memory chunk collection. It is
// built once from a snapshot at startup and never mutated afterwards,
// so concurrent readers need no locking.
type ChunkStore struct {
	chunks []models.Chunk
}

func NewChunkStore(chunks []models.Chunk) *ChunkStore {
	return &ChunkStore{chunks: chunks}
}

func (s *ChunkStore) Len() int {
	return len(s.chunks)
}

func (s *ChunkStore) Get(i int) (models.Chunk, error) {
	if i < 0 || i >= len(s.chunks) {
		return models.Chunk{}, fmt.Errorf("chunk index %d out of range [0, %d)", i, len(s.chunks))
	}
	return s.chunks[i], nil
}

func (s *ChunkStore) All() []models.Chunk {
	return s.chunks
}
