package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/vector"
)

// Store implements vector.VectorStore using in-memory storage. It is the
// default backend for tests and single-node deployments without persistence.
type Store struct {
	embeddings map[string]*vector.Embedding
	mu         sync.RWMutex
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		embeddings: make(map[string]*vector.Embedding),
	}
}

// AddEmbeddings adds a batch of embeddings under one lock. The batch is
// validated up front so a bad entry rejects the whole batch before any write.
func (s *Store) AddEmbeddings(ctx context.Context, embeddings []*vector.Embedding) error {
	for i, emb := range embeddings {
		if emb == nil {
			return fmt.Errorf("embedding %d is nil", i)
		}
		if emb.ID == "" {
			return fmt.Errorf("embedding %d has empty ID", i)
		}
		if len(emb.Vector) == 0 {
			return fmt.Errorf("embedding %q has empty vector", emb.ID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, emb := range embeddings {
		s.embeddings[emb.ID] = emb
	}
	return nil
}

// Search finds the topK embeddings most similar to the query vector by cosine
// similarity, best first. Stored vectors of a different dimension are skipped.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int) ([]*vector.Embedding, error) {
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if topK <= 0 {
		topK = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		embedding  *vector.Embedding
		similarity float32
	}
	results := make([]scored, 0, len(s.embeddings))
	for _, emb := range s.embeddings {
		if len(emb.Vector) != len(queryVector) {
			continue
		}
		results = append(results, scored{
			embedding:  emb,
			similarity: vector.CosineSimilarity(queryVector, emb.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].similarity > results[j].similarity
	})

	limit := topK
	if limit > len(results) {
		limit = len(results)
	}
	out := make([]*vector.Embedding, limit)
	for i := 0; i < limit; i++ {
		out[i] = results[i].embedding
	}
	return out, nil
}

// DeleteEmbedding removes an embedding by ID.
func (s *Store) DeleteEmbedding(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.embeddings[id]; !exists {
		return fmt.Errorf("embedding %s: %w", id, docqaerrors.ErrNotFound)
	}
	delete(s.embeddings, id)
	return nil
}

// Clear removes all embeddings.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.embeddings = make(map[string]*vector.Embedding)
	return nil
}

// Count returns the number of embeddings.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.embeddings), nil
}

var _ vector.VectorStore = (*Store)(nil)
