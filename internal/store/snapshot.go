package store

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/regdoc/answer-agent/internal/models"
)

const (
	chunksFile  = "chunks.json"
	vectorsFile = "vectors.gob"
)

// Snapshot is the persisted index pair: chunk records plus one
// embedding vector per chunk, keyed positionally. Both artifacts are
// written together by the offline build and loaded together at
// startup; one without the other is a configuration error.
type Snapshot struct {
	Chunks  []models.Chunk
	Vectors [][]float32
}

func Save(dir string, snapshot *Snapshot) error {
	if len(snapshot.Chunks) != len(snapshot.Vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d chunks, %d vectors",
			len(snapshot.Chunks), len(snapshot.Vectors))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create snapshot dir: %w", err)
	}

	chunkData, err := json.Marshal(snapshot.Chunks)
	if err != nil {
		return fmt.Errorf("unable to serialize chunks: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, chunksFile), chunkData, 0o644); err != nil {
		return fmt.Errorf("unable to write chunk metadata: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, vectorsFile))
	if err != nil {
		return fmt.Errorf("unable to create vectors file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(snapshot.Vectors); err != nil {
		return fmt.Errorf("unable to encode vectors: %w", err)
	}

	return nil
}

func Load(dir string) (*Snapshot, error) {
	chunksPath := filepath.Join(dir, chunksFile)
	vectorsPath := filepath.Join(dir, vectorsFile)

	chunksExists := fileExists(chunksPath)
	vectorsExists := fileExists(vectorsPath)
	if !chunksExists || !vectorsExists {
		return nil, fmt.Errorf("incomplete snapshot in %s: chunks=%v vectors=%v (both artifacts must be built together)",
			dir, chunksExists, vectorsExists)
	}

	chunkData, err := os.ReadFile(chunksPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read chunk metadata: %w", err)
	}

	var chunks []models.Chunk
	if err := json.Unmarshal(chunkData, &chunks); err != nil {
		return nil, fmt.Errorf("unable to parse chunk metadata: %w", err)
	}

	f, err := os.Open(vectorsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open vectors file: %w", err)
	}
	defer f.Close()

	var vectors [][]float32
	if err := gob.NewDecoder(f).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("unable to decode vectors: %w", err)
	}

	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("corrupt snapshot: %d chunks but %d vectors", len(chunks), len(vectors))
	}

	return &Snapshot{Chunks: chunks, Vectors: vectors}, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
