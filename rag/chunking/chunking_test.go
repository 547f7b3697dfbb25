package chunking

import (
	"context"
	"strings"
	"testing"

	"github.com/sweetpotato0/docqa/rag/document"
)

func TestLongDocumentSplitsIntoBoundedChunks(t *testing.T) {
	ch := NewRecursiveChunker(WithChunkSize(1000), WithOverlap(200))

	doc := document.Document{
		Source:  "long.md",
		Content: strings.Repeat("a", 2000),
	}

	chunks, err := ch.Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) <= 1 {
		t.Fatalf("expected multiple chunks for 2000-char document, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if got := len([]rune(chunk.Text)); got > 1000 {
			t.Fatalf("chunk %d exceeds chunk size: %d runes", i, got)
		}
	}
}

func TestShortDocumentYieldsSingleChunk(t *testing.T) {
	ch := NewRecursiveChunker(WithChunkSize(1000), WithOverlap(200))

	chunks, err := ch.Chunk(context.Background(), document.Document{
		Source:  "short.md",
		Content: "短い文書です。",
	})
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected exactly one chunk, got %d", len(chunks))
	}
}

func TestMetadataPreservedAcrossChunks(t *testing.T) {
	ch := NewRecursiveChunker(WithChunkSize(500), WithOverlap(100))

	doc := document.Document{
		Source:  "manual.pdf",
		Page:    "7",
		Content: strings.Repeat("テスト文書。", 500),
	}

	chunks, err := ch.Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected the document to split, got %d chunks", len(chunks))
	}
	for _, chunk := range chunks {
		if chunk.Source != "manual.pdf" {
			t.Fatalf("chunk lost source metadata: %q", chunk.Source)
		}
		if chunk.Page != "7" {
			t.Fatalf("chunk lost page metadata: %q", chunk.Page)
		}
	}
}

func TestSeparatorPreferenceKeepsParagraphsWhole(t *testing.T) {
	para1 := strings.Repeat("x", 300)
	para2 := strings.Repeat("y", 300)
	ch := NewRecursiveChunker(WithChunkSize(400), WithOverlap(0))

	chunks, err := ch.Chunk(context.Background(), document.Document{
		Source:  "paras.txt",
		Content: para1 + "\n\n" + para2,
	})
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected paragraph-aligned split into 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != para1 || chunks[1].Text != para2 {
		t.Fatalf("expected paragraphs kept whole, got lengths %d and %d",
			len(chunks[0].Text), len(chunks[1].Text))
	}
}

func TestOverlapCarriesBoundaryText(t *testing.T) {
	ch := NewRecursiveChunker(WithChunkSize(100), WithOverlap(20))

	content := strings.Repeat("b", 250)
	chunks, err := ch.Chunk(context.Background(), document.Document{
		Source:  "overlap.txt",
		Content: content,
	})
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	// With a 20-rune overlap the chunks must jointly cover more runes than
	// the document holds.
	covered := 0
	for _, chunk := range chunks {
		covered += len([]rune(chunk.Text))
	}
	if covered <= 250 {
		t.Fatalf("expected overlapping coverage beyond 250 runes, got %d", covered)
	}
}

func TestOrdinalsAreSequential(t *testing.T) {
	ch := NewRecursiveChunker(WithChunkSize(100), WithOverlap(10))
	chunks, err := ch.Chunk(context.Background(), document.Document{
		Source:  "ord.txt",
		Content: strings.Repeat("c", 350),
	})
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	for i, chunk := range chunks {
		if chunk.Ordinal != i {
			t.Fatalf("chunk %d has ordinal %d", i, chunk.Ordinal)
		}
	}
}
