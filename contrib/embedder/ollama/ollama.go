// Package ollama provides a vector.Embedder backed by a local Ollama server's
// /api/embed endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/vector"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "bge-m3"

	// DefaultDimension matches bge-m3.
	DefaultDimension = 1024
)

// Embedder implements vector.Embedder against /api/embed.
type Embedder struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
}

// New creates an Embedder. Empty arguments fall back to the local server
// defaults.
func New(baseURL, model string, dimension int) *Embedder {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{
		baseURL:   baseURL,
		model:     model,
		dimension: dimension,
		client:    &http.Client{Timeout: time.Minute},
	}
}

// Dimension returns the embedding width every call produces.
func (e *Embedder) Dimension() int {
	return e.dimension
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
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

	reqBody, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w: %w", docqaerrors.ErrBackendUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embed status %d: %s: %w",
			httpResp.StatusCode, string(respBody), docqaerrors.ErrBackendUnavailable)
	}

	var resp embedResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal embed response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama error: %s: %w", resp.Error, docqaerrors.ErrBackendUnavailable)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	return resp.Embeddings, nil
}

var _ vector.Embedder = (*Embedder)(nil)
