package inmemory

import (
	"context"
	"errors"
	"testing"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/vector"
)

func TestStore(t *testing.T) {
	store := New()
	ctx := context.Background()

	t.Run("add batch and search", func(t *testing.T) {
		store.Clear(ctx)

		err := store.AddEmbeddings(ctx, []*vector.Embedding{
			{ID: "emb1", Text: "apple", Source: "fruit.md", Vector: []float32{1.0, 0.0, 0.0}},
			{ID: "emb2", Text: "banana", Source: "fruit.md", Vector: []float32{0.0, 1.0, 0.0}},
			{ID: "emb3", Text: "orange", Source: "fruit.md", Vector: []float32{0.0, 0.0, 1.0}},
		})
		if err != nil {
			t.Fatalf("AddEmbeddings failed: %v", err)
		}

		results, err := store.Search(ctx, []float32{1.0, 0.0, 0.0}, 2)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(results))
		}
		if results[0].ID != "emb1" {
			t.Errorf("Expected first result to be emb1, got %s", results[0].ID)
		}
		if results[0].Text != "apple" || results[0].Source != "fruit.md" {
			t.Errorf("Expected chunk metadata to round-trip, got %+v", results[0])
		}
	})

	t.Run("invalid batch rejects all entries", func(t *testing.T) {
		store.Clear(ctx)

		err := store.AddEmbeddings(ctx, []*vector.Embedding{
			{ID: "ok", Text: "valid", Vector: []float32{0.1, 0.2, 0.3}},
			{ID: "", Text: "missing id", Vector: []float32{0.4, 0.5, 0.6}},
		})
		if err == nil {
			t.Fatal("Expected batch with empty ID to be rejected")
		}

		count, err := store.Count(ctx)
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if count != 0 {
			t.Errorf("Expected no partial writes, got %d embeddings", count)
		}
	})

	t.Run("delete embedding", func(t *testing.T) {
		store.Clear(ctx)

		store.AddEmbeddings(ctx, []*vector.Embedding{
			{ID: "del1", Text: "to delete", Vector: []float32{0.5, 0.5, 0.5}},
		})

		if err := store.DeleteEmbedding(ctx, "del1"); err != nil {
			t.Errorf("DeleteEmbedding failed: %v", err)
		}
		if err := store.DeleteEmbedding(ctx, "del1"); !errors.Is(err, docqaerrors.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for missing embedding, got %v", err)
		}
	})

	t.Run("count embeddings", func(t *testing.T) {
		store.Clear(ctx)

		count, err := store.Count(ctx)
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if count != 0 {
			t.Errorf("Expected count 0, got %d", count)
		}

		store.AddEmbeddings(ctx, []*vector.Embedding{
			{ID: "cnt1", Text: "count me", Vector: []float32{0.1, 0.2, 0.3}},
		})

		count, err = store.Count(ctx)
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected count 1, got %d", count)
		}
	})

	t.Run("search skips mismatched dimensions", func(t *testing.T) {
		store.Clear(ctx)

		store.AddEmbeddings(ctx, []*vector.Embedding{
			{ID: "dim3", Text: "three", Vector: []float32{1.0, 0.0, 0.0}},
			{ID: "dim2", Text: "two", Vector: []float32{1.0, 0.0}},
		})

		results, err := store.Search(ctx, []float32{1.0, 0.0, 0.0}, 10)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(results) != 1 || results[0].ID != "dim3" {
			t.Errorf("Expected only the 3-dimensional embedding, got %v", results)
		}
	})
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1.0, 0.0, 0.0}
	b := []float32{1.0, 0.0, 0.0}
	c := []float32{0.0, 1.0, 0.0}

	if sim := vector.CosineSimilarity(a, b); sim < 0.999 {
		t.Errorf("Expected similarity near 1.0 for identical vectors, got %f", sim)
	}
	if sim := vector.CosineSimilarity(a, c); sim > 0.001 {
		t.Errorf("Expected similarity near 0.0 for orthogonal vectors, got %f", sim)
	}
}
