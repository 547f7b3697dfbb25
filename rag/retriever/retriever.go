package retriever

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sweetpotato0/docqa/pkg/logging"
	"github.com/sweetpotato0/docqa/rag/chunking"
	"github.com/sweetpotato0/docqa/rag/document"
	"github.com/sweetpotato0/docqa/vector"
)

// Options configures the retriever.
type Options struct {
	// NormalizeEmbeddings enforces L2-normalisation before storage and
	// before search, so cosine ranking is stable across embedding backends.
	NormalizeEmbeddings bool
}

// Option customizes the retriever.
type Option func(*Options)

// WithNormalizeEmbeddings toggles L2-normalisation of vectors.
func WithNormalizeEmbeddings(enabled bool) Option {
	return func(o *Options) {
		o.NormalizeEmbeddings = enabled
	}
}

// Retriever coordinates chunking, embedding, and similarity search over a
// vector store. Chunk text and provenance travel inside the stored
// embeddings, so search results can be reconstructed from any store backend
// without process-local state.
type Retriever struct {
	store     vector.VectorStore
	embedder  vector.Embedder
	chunker   chunking.Chunker
	normalize bool
	logger    *slog.Logger
}

// New creates a retriever.
func New(store vector.VectorStore, emb vector.Embedder, chunker chunking.Chunker, opts ...Option) *Retriever {
	cfg := &Options{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Retriever{
		store:     store,
		embedder:  emb,
		chunker:   chunker,
		normalize: cfg.NormalizeEmbeddings,
		logger:    logging.WithComponent("retriever"),
	}
}

// IndexDocuments ingests documents: chunk, embed, and store. All chunks of
// one document are added in a single atomic batch, so a document never
// becomes partially searchable. Returns the number of chunks added.
func (r *Retriever) IndexDocuments(ctx context.Context, docs ...document.Document) (int, error) {
	if r.store == nil || r.embedder == nil || r.chunker == nil {
		return 0, fmt.Errorf("retriever not fully configured")
	}

	added := 0
	for _, doc := range docs {
		chunks, err := r.chunker.Chunk(ctx, doc)
		if err != nil {
			return added, fmt.Errorf("chunk document %s: %w", doc.Source, err)
		}
		if len(chunks) == 0 {
			continue
		}

		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}
		vectors, err := r.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return added, fmt.Errorf("embed document %s: %w", doc.Source, err)
		}
		if len(vectors) != len(chunks) {
			return added, fmt.Errorf("embed document %s: expected %d vectors, got %d", doc.Source, len(chunks), len(vectors))
		}

		embeddings := make([]*vector.Embedding, len(chunks))
		for i, chunk := range chunks {
			vec := vectors[i]
			if r.normalize {
				vec = vector.Normalize(vec)
			}
			embeddings[i] = &vector.Embedding{
				ID:     chunk.ID,
				Vector: vec,
				Text:   chunk.Text,
				Source: chunk.Source,
				Page:   chunk.Page,
			}
		}
		if err := r.store.AddEmbeddings(ctx, embeddings); err != nil {
			return added, fmt.Errorf("store document %s: %w", doc.Source, err)
		}
		added += len(embeddings)
		r.logger.Debug("document indexed", "source", doc.Source, "page", doc.Page, "chunks", len(embeddings))
	}
	return added, nil
}

// Search embeds the query and returns the k nearest chunks in the store's
// ranking order.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]document.Chunk, error) {
	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if r.normalize {
		queryVec = vector.Normalize(queryVec)
	}

	hits, err := r.store.Search(ctx, queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	chunks := make([]document.Chunk, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, document.Chunk{
			ID:     hit.ID,
			Text:   hit.Text,
			Source: hit.Source,
			Page:   hit.Page,
		})
	}
	return chunks, nil
}

// Count returns the number of chunks indexed.
func (r *Retriever) Count(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}
	return r.store.Count(ctx)
}

// Clear drops all indexed chunks.
func (r *Retriever) Clear(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	return r.store.Clear(ctx)
}
