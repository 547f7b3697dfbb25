package retriever

import (
	"context"
	"strings"
	"testing"

	"github.com/sweetpotato0/docqa/contrib/vector/inmemory"
	"github.com/sweetpotato0/docqa/rag/chunking"
	"github.com/sweetpotato0/docqa/rag/document"
)

// keywordEmbedder maps text onto a fixed vocabulary axis per keyword, so
// similarity search behaves deterministically without a model.
type keywordEmbedder struct {
	vocab []string
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(e.vocab))
	lower := strings.ToLower(text)
	for i, word := range e.vocab {
		if strings.Contains(lower, word) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *keywordEmbedder) Dimension() int { return len(e.vocab) }

func newTestRetriever() *Retriever {
	emb := &keywordEmbedder{vocab: []string{"async", "deploy", "database", "auth"}}
	chunker := chunking.NewRecursiveChunker(
		chunking.WithChunkSize(200),
		chunking.WithOverlap(20),
	)
	return New(inmemory.New(), emb, chunker)
}

func TestIndexThenSearchRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newTestRetriever()

	added, err := r.IndexDocuments(ctx,
		document.Document{Source: "async.md", Content: "Handlers are async and run on the event loop."},
		document.Document{Source: "deploy.md", Content: "Use containers to deploy the service."},
	)
	if err != nil {
		t.Fatalf("IndexDocuments failed: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 chunks indexed, got %d", added)
	}

	hits, err := r.Search(ctx, "how does async work", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Source != "async.md" {
		t.Errorf("expected async.md to rank first, got %q", hits[0].Source)
	}
	if hits[0].Text == "" || hits[0].ID == "" {
		t.Errorf("expected chunk text and ID to survive the round trip, got %+v", hits[0])
	}
}

func TestIndexSplitsLongDocuments(t *testing.T) {
	ctx := context.Background()
	r := newTestRetriever()

	long := strings.Repeat("The database keeps rows in pages. ", 30)
	added, err := r.IndexDocuments(ctx, document.Document{Source: "db.md", Content: long})
	if err != nil {
		t.Fatalf("IndexDocuments failed: %v", err)
	}
	if added < 2 {
		t.Fatalf("expected a long document to produce multiple chunks, got %d", added)
	}

	count, err := r.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != added {
		t.Errorf("expected store count %d to match chunks added %d", count, added)
	}
}

func TestSearchPreservesPageProvenance(t *testing.T) {
	ctx := context.Background()
	r := newTestRetriever()

	_, err := r.IndexDocuments(ctx, document.Document{
		Source:  "manual.pdf",
		Page:    "7",
		Content: "Configure auth tokens in the settings page.",
	})
	if err != nil {
		t.Fatalf("IndexDocuments failed: %v", err)
	}

	hits, err := r.Search(ctx, "auth configuration", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Page != "7" {
		t.Fatalf("expected page provenance to survive, got %+v", hits)
	}
}

func TestClearEmptiesIndex(t *testing.T) {
	ctx := context.Background()
	r := newTestRetriever()

	if _, err := r.IndexDocuments(ctx, document.Document{Source: "a.md", Content: "deploy notes"}); err != nil {
		t.Fatalf("IndexDocuments failed: %v", err)
	}
	if err := r.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	count, err := r.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty index after Clear, got %d", count)
	}
}
