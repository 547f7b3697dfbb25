package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file should use defaults, got %v", err)
	}
	if cfg.Provider.Type != "ollama" {
		t.Errorf("Expected default provider ollama, got %q", cfg.Provider.Type)
	}
	if cfg.Store.Type != "memory" {
		t.Errorf("Expected default store memory, got %q", cfg.Store.Type)
	}
	if cfg.Chunking.ChunkSize != 1000 || cfg.Chunking.ChunkOverlap != 200 {
		t.Errorf("Expected default chunking 1000/200, got %d/%d",
			cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":9090"
  request_timeout: 30s
provider:
  type: openai
  api_key: test-key
  model: gpt-4o
embedder:
  type: openai
  api_key: test-key
  dimension: 1536
agent:
  top_k_per_query: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Expected addr :9090, got %q", cfg.Server.Addr)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Provider.Model != "gpt-4o" {
		t.Errorf("Expected model gpt-4o, got %q", cfg.Provider.Model)
	}
	if cfg.Agent.TopKPerQuery != 5 {
		t.Errorf("Expected top_k 5, got %d", cfg.Agent.TopKPerQuery)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOCQA_ADDR", ":7070")
	t.Setenv("DOCQA_CHUNK_SIZE", "500")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("Expected env override :7070, got %q", cfg.Server.Addr)
	}
	if cfg.Chunking.ChunkSize != 500 {
		t.Errorf("Expected env override chunk size 500, got %d", cfg.Chunking.ChunkSize)
	}
}

func TestValidateRejectsRemoteProviderWithoutKey(t *testing.T) {
	cfg := Default()
	cfg.Provider.Type = "openai"
	cfg.Provider.APIKey = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected validation failure for remote provider without API key")
	}
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	cfg := Default()
	cfg.Store.Type = "cassandra"

	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected validation failure for unknown store type")
	}
}

func TestValidateRejectsOverlapLargerThanChunk(t *testing.T) {
	cfg := Default()
	cfg.Chunking.ChunkSize = 100
	cfg.Chunking.ChunkOverlap = 200

	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected validation failure when overlap exceeds chunk size")
	}
}
