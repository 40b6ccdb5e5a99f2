package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("PINECONE_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Index.Name != "icyco-index" || cfg.Index.Dimension != 384 || cfg.Index.Metric != "cosine" {
		t.Errorf("unexpected index defaults: %+v", cfg.Index)
	}
	if cfg.Index.Cloud != "aws" || cfg.Index.Region != "us-east-1" {
		t.Errorf("unexpected cloud defaults: %s/%s", cfg.Index.Cloud, cfg.Index.Region)
	}
	if cfg.Index.PollInterval != time.Second {
		t.Errorf("poll interval = %v, want 1s", cfg.Index.PollInterval)
	}
	if cfg.RAG.ChunkSize != 400 || cfg.RAG.ChunkOverlap != 50 || cfg.RAG.TopK != 3 {
		t.Errorf("unexpected rag defaults: %+v", cfg.RAG)
	}
	if cfg.LLM.Provider != "googleai" || cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("unexpected llm defaults: %+v", cfg.LLM)
	}
	if cfg.ResourcesDir != "resources" {
		t.Errorf("resources dir = %q", cfg.ResourcesDir)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
index:
  name: shop
  provider: chromem
  poll_interval: 250ms
rag:
  top_k: 5
llm:
  provider: genai
  key: from-file
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_API_KEY", "from-env")
	t.Setenv("PINECONE_API_KEY", "pc-key")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Index.Name != "shop" || cfg.Index.Provider != ProviderChromem {
		t.Errorf("index = %+v", cfg.Index)
	}
	if cfg.Index.PollInterval != 250*time.Millisecond {
		t.Errorf("poll interval = %v", cfg.Index.PollInterval)
	}
	if cfg.RAG.TopK != 5 {
		t.Errorf("top_k = %d", cfg.RAG.TopK)
	}
	if cfg.LLM.Key != "from-env" {
		t.Errorf("llm key = %q, want env override", cfg.LLM.Key)
	}
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("llm model = %q", cfg.LLM.Model)
	}
	if cfg.Pinecone.APIKey != "pc-key" {
		t.Errorf("pinecone key = %q", cfg.Pinecone.APIKey)
	}
}

func TestLoadConfigKeepsExplicitZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
rag:
  chunk_overlap: 0
  history_turns: 0
llm:
  temperature: 0
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RAG.ChunkOverlap != 0 || cfg.RAG.HistoryTurns != 0 {
		t.Errorf("overlap = %d, history_turns = %d, want both 0", cfg.RAG.ChunkOverlap, cfg.RAG.HistoryTurns)
	}
	if cfg.LLM.Temperature == nil || *cfg.LLM.Temperature != 0 {
		t.Errorf("temperature = %v, want explicit 0", cfg.LLM.Temperature)
	}
	if cfg.RAG.ChunkSize != 400 || cfg.RAG.TopK != 3 {
		t.Errorf("other rag defaults lost: %+v", cfg.RAG)
	}
}

func TestLoadConfigAbsentKeysKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
rag:
  top_k: 4
embed_llm:
  provider: openai
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RAG.ChunkOverlap != 50 || cfg.RAG.HistoryTurns != 5 {
		t.Errorf("overlap = %d, history_turns = %d, want 50 and 5", cfg.RAG.ChunkOverlap, cfg.RAG.HistoryTurns)
	}
	if cfg.LLM.Temperature != nil {
		t.Errorf("temperature = %v, want unset", *cfg.LLM.Temperature)
	}
	if cfg.EmbedLLM.Model != "" {
		t.Errorf("embed model = %q, the ollama default must not leak to openai", cfg.EmbedLLM.Model)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"overlap equals size", func(c *Config) { c.RAG.ChunkOverlap = c.RAG.ChunkSize }, false},
		{"unknown provider", func(c *Config) { c.Index.Provider = "faiss" }, false},
		{"unknown splitter", func(c *Config) { c.RAG.Splitter = "sentence" }, false},
		{"zero top k", func(c *Config) { c.RAG.TopK = 0 }, false},
		{"negative dimension", func(c *Config) { c.Index.Dimension = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
}
