package ingestion

import (
	"strings"
	"testing"
)

func TestChunkText_WindowAndOverlap(t *testing.T) {
	c := NewChunker(10, 3)
	text := strings.Repeat("a", 25)

	chunks := c.ChunkText(text)
	if len(chunks) == 0 {
		t.Fatal("Expected chunks")
	}

	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("Chunk %d has index %d", i, chunk.Index)
		}
		if len(chunk.Content) > 10 {
			t.Errorf("Chunk %d exceeds window size: %d", i, len(chunk.Content))
		}
		if chunk.Content != text[chunk.Start:chunk.End] {
			t.Errorf("Chunk %d content does not match its offsets", i)
		}
	}

	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start != chunks[i-1].Start+7 {
			t.Errorf("Expected stride of 7, chunk %d starts at %d", i, chunks[i].Start)
		}
	}

	last := chunks[len(chunks)-1]
	if last.End != len(text) {
		t.Errorf("Expected final chunk to reach end of text, got %d", last.End)
	}
}

func TestChunkText_ShortText(t *testing.T) {
	c := NewChunker(100, 20)

	chunks := c.ChunkText("short")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "short" {
		t.Errorf("Unexpected content %q", chunks[0].Content)
	}
}

func TestChunkText_InvalidParameters(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
	}

	for _, tc := range cases {
		c := NewChunker(tc.size, tc.overlap)
		if got := c.ChunkText("some text"); len(got) != 0 {
			t.Errorf("%s: expected no chunks, got %d", tc.name, len(got))
		}
	}
}
