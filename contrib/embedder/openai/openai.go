// Package openai provides a vector.Embedder backed by the OpenAI embeddings
// API. A custom base URL points it at any compatible endpoint.
package openai

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/sweetpotato0/docqa/vector"
)

// DefaultDimension matches text-embedding-3-small.
const DefaultDimension = 1536

// Embedder implements vector.Embedder using the OpenAI embeddings API.
type Embedder struct {
	client    openaisdk.Client
	model     openaisdk.EmbeddingModel
	dimension int
}

// New creates an Embedder. An empty model defaults to text-embedding-3-small
// and a non-positive dimension defaults to that model's output size.
func New(apiKey, baseURL string, model openaisdk.EmbeddingModel, dimension int) *Embedder {
	if model == "" {
		model = openaisdk.EmbeddingModelTextEmbedding3Small
	}
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Embedder{
		client:    openaisdk.NewClient(opts...),
		model:     model,
		dimension: dimension,
	}
}

// Dimension returns the embedding width every call produces.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed converts one text to a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned for text")
	}
	return vectors[0], nil
}

// EmbedBatch converts multiple texts in one API call, preserving input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: e.model,
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for i, emb := range resp.Data {
		// The API reports float64; truncate or zero-pad to the fixed width so
		// every store row has the same dimension.
		vec := make([]float32, e.dimension)
		for j := 0; j < len(emb.Embedding) && j < e.dimension; j++ {
			vec[j] = float32(emb.Embedding[j])
		}
		out[i] = vec
	}
	return out, nil
}

var _ vector.Embedder = (*Embedder)(nil)
