package ingestion

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestParseFile_PagesAndMedia(t *testing.T) {
	corpus := "Travel distance limits are given in Table 3.\fFire doors must resist fire for thirty minutes."
	p := NewParser(1000, 150)

	chunks, err := p.ParseFile(writeCorpus(t, corpus))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}

	if chunks[0].ID != "p1_c0" || chunks[0].Page != 1 {
		t.Errorf("Unexpected first chunk identity: %q page %d", chunks[0].ID, chunks[0].Page)
	}
	if chunks[1].ID != "p2_c0" || chunks[1].Page != 2 {
		t.Errorf("Unexpected second chunk identity: %q page %d", chunks[1].ID, chunks[1].Page)
	}

	if len(chunks[0].Media) != 1 || chunks[0].Media[0] != "/media/page_1.png" {
		t.Errorf("Unexpected media %v", chunks[0].Media)
	}
	if chunks[1].Media[0] != "/media/page_2.png" {
		t.Errorf("Unexpected media %v", chunks[1].Media)
	}
}

func TestParseFile_SkipsBlankPages(t *testing.T) {
	corpus := "First page content.\f   \fThird page content."
	p := NewParser(1000, 150)

	chunks, err := p.ParseFile(writeCorpus(t, corpus))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	// The blank page keeps its slot in the numbering.
	if chunks[1].Page != 3 {
		t.Errorf("Expected page 3, got %d", chunks[1].Page)
	}
}

func TestParseFile_FindsDiagramIDs(t *testing.T) {
	corpus := "Escape routes are shown in diagram 2.1 and DIAGRAM 2.1, with widths in Diagram 3.4."
	p := NewParser(1000, 150)

	chunks, err := p.ParseFile(writeCorpus(t, corpus))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	ids := chunks[0].DiagramIDs
	if len(ids) != 2 {
		t.Fatalf("Expected 2 normalized diagram ids, got %v", ids)
	}
	if ids[0] != "Diagram 2.1" || ids[1] != "Diagram 3.4" {
		t.Errorf("Unexpected diagram ids %v", ids)
	}
}

func TestParseFile_DetectsTables(t *testing.T) {
	corpus := "Purpose group | Limit | Notes\nShop | 18 m | One direction\nOffice | 45 m | Two directions"
	p := NewParser(1000, 150)

	chunks, err := p.ParseFile(writeCorpus(t, corpus))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if !chunks[0].IsTable {
		t.Error("Expected table chunk to be flagged")
	}

	plain, err := p.ParseFile(writeCorpus(t, "Just a sentence about exits."))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if plain[0].IsTable {
		t.Error("Expected plain text chunk not to be flagged as table")
	}
}

func TestParseFile_EmptyCorpus(t *testing.T) {
	p := NewParser(1000, 150)

	if _, err := p.ParseFile(writeCorpus(t, "\f\f")); err == nil {
		t.Error("Expected error for corpus with no content")
	}

	if _, err := p.ParseFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestParseFile_TokenEstimate(t *testing.T) {
	p := NewParser(1000, 150)

	chunks, err := p.ParseFile(writeCorpus(t, "abcdefgh"))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if chunks[0].TokenCount != 2 {
		t.Errorf("Expected token estimate 2, got %d", chunks[0].TokenCount)
	}
}
