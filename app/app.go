// Package app assembles the pipeline components from configuration. Both
// binaries (server and ingest) build the same stack through here so a config
// file means the same thing everywhere.
package app

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go/v3"

	"github.com/sweetpotato0/docqa/cache"
	"github.com/sweetpotato0/docqa/config"
	embedderollama "github.com/sweetpotato0/docqa/contrib/embedder/ollama"
	embedderopenai "github.com/sweetpotato0/docqa/contrib/embedder/openai"
	"github.com/sweetpotato0/docqa/contrib/provider/claude"
	"github.com/sweetpotato0/docqa/contrib/provider/gemini"
	"github.com/sweetpotato0/docqa/contrib/provider/ollama"
	"github.com/sweetpotato0/docqa/contrib/provider/openai"
	"github.com/sweetpotato0/docqa/contrib/tokenizer/tiktoken"
	"github.com/sweetpotato0/docqa/contrib/vector/inmemory"
	vectormongo "github.com/sweetpotato0/docqa/contrib/vector/mongo"
	vectorpg "github.com/sweetpotato0/docqa/contrib/vector/pg"
	"github.com/sweetpotato0/docqa/llm"
	"github.com/sweetpotato0/docqa/rag/chunking"
	"github.com/sweetpotato0/docqa/rag/retriever"
	"github.com/sweetpotato0/docqa/vector"
)

// Closer releases resources held by built components.
type Closer func()

// BuildLLM constructs the configured LLM provider.
func BuildLLM(ctx context.Context, cfg *config.ProviderConfig) (llm.Client, Closer, error) {
	switch cfg.Type {
	case "ollama":
		p := ollama.New(&ollama.Config{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		})
		return p, func() {}, nil
	case "openai":
		p := openai.New(&openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		})
		return p, func() {}, nil
	case "claude":
		p := claude.New(&claude.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   4096,
			Temperature: cfg.Temperature,
		})
		return p, func() {}, nil
	case "gemini":
		p, err := gemini.New(ctx, &gemini.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: float32(cfg.Temperature),
		})
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}

// BuildEmbedder constructs the configured embedder.
func BuildEmbedder(cfg *config.EmbedderConfig) (vector.Embedder, error) {
	switch cfg.Type {
	case "ollama":
		return embedderollama.New(cfg.BaseURL, cfg.Model, cfg.Dimension), nil
	case "openai":
		return embedderopenai.New(cfg.APIKey, cfg.BaseURL,
			openaisdk.EmbeddingModel(cfg.Model), cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Type)
	}
}

// BuildStore constructs the configured vector store backend.
func BuildStore(ctx context.Context, cfg *config.StoreConfig, dimension int) (vector.VectorStore, Closer, error) {
	switch cfg.Type {
	case "memory":
		return inmemory.New(), func() {}, nil
	case "pgvector":
		store, err := vectorpg.New(&vectorpg.Config{
			Host:      cfg.PGHost,
			Port:      cfg.PGPort,
			User:      cfg.PGUser,
			Password:  cfg.PGPassword,
			DBName:    cfg.PGDatabase,
			SSLMode:   cfg.PGSSLMode,
			Dimension: dimension,
			TableName: cfg.PGTable,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "mongo":
		store, err := vectormongo.New(ctx, &vectormongo.Config{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

// BuildChunker constructs the document splitter, optionally measuring length
// in tiktoken tokens instead of runes.
func BuildChunker(cfg *config.ChunkingConfig) (chunking.Chunker, error) {
	opts := []chunking.Option{
		chunking.WithChunkSize(cfg.ChunkSize),
		chunking.WithOverlap(cfg.ChunkOverlap),
	}
	if cfg.TokenLength {
		tok, err := tiktoken.New("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("init tokenizer: %w", err)
		}
		opts = append(opts, chunking.WithLengthFunc(tok.LengthFunc()))
	}
	return chunking.NewRecursiveChunker(opts...), nil
}

// BuildRetriever wires store, embedder and chunker into the retriever.
func BuildRetriever(cfg *config.Config, store vector.VectorStore, emb vector.Embedder) (*retriever.Retriever, error) {
	chunker, err := BuildChunker(&cfg.Chunking)
	if err != nil {
		return nil, err
	}
	return retriever.New(store, emb, chunker), nil
}

// BuildCache constructs the answer cache when enabled, nil otherwise.
func BuildCache(cfg *config.CacheConfig) *cache.AnswerCache {
	if !cfg.Enabled {
		return nil
	}
	return cache.New(&cache.Config{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		TTL:      cfg.TTL,
	})
}
