// Package config loads the application configuration from an optional YAML
// file, an optional .env file, and DOCQA_* environment variables, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ProviderConfig selects and configures the LLM provider.
type ProviderConfig struct {
	Type        string  `yaml:"type"` // ollama, openai, claude, gemini
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// EmbedderConfig selects and configures the embedder.
type EmbedderConfig struct {
	Type      string `yaml:"type"` // ollama, openai
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Type string `yaml:"type"` // memory, pgvector, mongo

	PGHost     string `yaml:"pg_host"`
	PGPort     int    `yaml:"pg_port"`
	PGUser     string `yaml:"pg_user"`
	PGPassword string `yaml:"pg_password"`
	PGDatabase string `yaml:"pg_database"`
	PGSSLMode  string `yaml:"pg_sslmode"`
	PGTable    string `yaml:"pg_table"`

	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
}

// CacheConfig configures the optional Redis answer cache.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// ChunkingConfig configures the document splitter.
type ChunkingConfig struct {
	ChunkSize    int  `yaml:"chunk_size"`
	ChunkOverlap int  `yaml:"chunk_overlap"`
	TokenLength  bool `yaml:"token_length"` // measure by tiktoken tokens instead of runes
}

// AgentConfig configures the retrieval loop.
type AgentConfig struct {
	TopKPerQuery int `yaml:"top_k_per_query"`
}

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Provider ProviderConfig `yaml:"provider"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Store    StoreConfig    `yaml:"store"`
	Cache    CacheConfig    `yaml:"cache"`
	Chunking ChunkingConfig `yaml:"chunking"`
	Agent    AgentConfig    `yaml:"agent"`
}

// Default returns the configuration used when no file or env overrides exist:
// a local Ollama provider with an in-memory store.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 5 * time.Minute,
		},
		Provider: ProviderConfig{
			Type:        "ollama",
			BaseURL:     "http://localhost:11434",
			Model:       "llama3.1",
			Temperature: 0.7,
		},
		Embedder: EmbedderConfig{
			Type:      "ollama",
			BaseURL:   "http://localhost:11434",
			Model:     "bge-m3",
			Dimension: 1024,
		},
		Store: StoreConfig{
			Type:      "memory",
			PGSSLMode: "disable",
			PGTable:   "chunks",
		},
		Cache: CacheConfig{
			Addr: "localhost:6379",
			TTL:  time.Hour,
		},
		Chunking: ChunkingConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Agent: AgentConfig{
			TopKPerQuery: 3,
		},
	}
}

// Load builds the configuration. A missing YAML file is not an error; a
// present but malformed one is. Environment variables win over the file.
func Load(path string) (*Config, error) {
	// .env is a convenience for local development; ignore when absent.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "DOCQA_ADDR")
	setDuration(&cfg.Server.RequestTimeout, "DOCQA_REQUEST_TIMEOUT")

	setString(&cfg.Provider.Type, "DOCQA_PROVIDER")
	setString(&cfg.Provider.APIKey, "DOCQA_PROVIDER_API_KEY")
	setString(&cfg.Provider.BaseURL, "DOCQA_PROVIDER_BASE_URL")
	setString(&cfg.Provider.Model, "DOCQA_PROVIDER_MODEL")

	setString(&cfg.Embedder.Type, "DOCQA_EMBEDDER")
	setString(&cfg.Embedder.APIKey, "DOCQA_EMBEDDER_API_KEY")
	setString(&cfg.Embedder.BaseURL, "DOCQA_EMBEDDER_BASE_URL")
	setString(&cfg.Embedder.Model, "DOCQA_EMBEDDER_MODEL")
	setInt(&cfg.Embedder.Dimension, "DOCQA_EMBEDDER_DIMENSION")

	setString(&cfg.Store.Type, "DOCQA_STORE")
	setString(&cfg.Store.PGHost, "DOCQA_PG_HOST")
	setInt(&cfg.Store.PGPort, "DOCQA_PG_PORT")
	setString(&cfg.Store.PGUser, "DOCQA_PG_USER")
	setString(&cfg.Store.PGPassword, "DOCQA_PG_PASSWORD")
	setString(&cfg.Store.PGDatabase, "DOCQA_PG_DATABASE")
	setString(&cfg.Store.MongoURI, "DOCQA_MONGO_URI")
	setString(&cfg.Store.MongoDatabase, "DOCQA_MONGO_DATABASE")
	setString(&cfg.Store.MongoCollection, "DOCQA_MONGO_COLLECTION")

	setBool(&cfg.Cache.Enabled, "DOCQA_CACHE_ENABLED")
	setString(&cfg.Cache.Addr, "DOCQA_CACHE_ADDR")
	setString(&cfg.Cache.Password, "DOCQA_CACHE_PASSWORD")
	setInt(&cfg.Cache.DB, "DOCQA_CACHE_DB")
	setDuration(&cfg.Cache.TTL, "DOCQA_CACHE_TTL")

	setInt(&cfg.Chunking.ChunkSize, "DOCQA_CHUNK_SIZE")
	setInt(&cfg.Chunking.ChunkOverlap, "DOCQA_CHUNK_OVERLAP")
	setBool(&cfg.Chunking.TokenLength, "DOCQA_CHUNK_TOKEN_LENGTH")

	setInt(&cfg.Agent.TopKPerQuery, "DOCQA_TOP_K_PER_QUERY")
}

// Validate checks field-level constraints and cross-field requirements such
// as API keys for remote providers.
func (c *Config) Validate() error {
	v := NewValidator()

	v.RequireNonEmpty("server.addr", c.Server.Addr)
	v.ValidateOneOf("provider.type", c.Provider.Type, "ollama", "openai", "claude", "gemini")
	v.ValidateOneOf("embedder.type", c.Embedder.Type, "ollama", "openai")
	v.ValidateOneOf("store.type", c.Store.Type, "memory", "pgvector", "mongo")
	v.RequirePositive("embedder.dimension", c.Embedder.Dimension)
	v.RequirePositive("chunking.chunk_size", c.Chunking.ChunkSize)
	v.ValidateRange("chunking.chunk_overlap", c.Chunking.ChunkOverlap, 0, c.Chunking.ChunkSize)
	v.ValidateRange("agent.top_k_per_query", c.Agent.TopKPerQuery, 1, 20)

	if c.Provider.Type != "ollama" {
		v.RequireNonEmpty("provider.api_key", c.Provider.APIKey)
	}
	if c.Embedder.Type != "ollama" {
		v.RequireNonEmpty("embedder.api_key", c.Embedder.APIKey)
	}
	if c.Store.Type == "pgvector" {
		v.RequireNonEmpty("store.pg_host", c.Store.PGHost)
		v.ValidatePort("store.pg_port", c.Store.PGPort)
		v.RequireNonEmpty("store.pg_user", c.Store.PGUser)
		v.RequireNonEmpty("store.pg_database", c.Store.PGDatabase)
	}
	if c.Store.Type == "mongo" {
		v.RequireNonEmpty("store.mongo_uri", c.Store.MongoURI)
		v.RequireNonEmpty("store.mongo_database", c.Store.MongoDatabase)
		v.RequireNonEmpty("store.mongo_collection", c.Store.MongoCollection)
	}
	if c.Cache.Enabled {
		v.RequireNonEmpty("cache.addr", c.Cache.Addr)
	}

	return v.Error()
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
