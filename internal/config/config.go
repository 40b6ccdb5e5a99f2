package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderPinecone = "pinecone"
	ProviderChromem  = "chromem"
	ProviderPgvector = "pgvector"

	SplitterWindow    = "window"
	SplitterRecursive = "recursive"
)

type Config struct {
	ResourcesDir string         `yaml:"resources_dir"`
	Documents    []string       `yaml:"documents"`
	Index        IndexConfig    `yaml:"index"`
	Pinecone     PineconeConfig `yaml:"pinecone"`
	Chromem      ChromemConfig  `yaml:"chromem"`
	Database     DatabaseConfig `yaml:"database"`
	EmbedLLM     LLMConfig      `yaml:"embed_llm"`
	LLM          LLMConfig      `yaml:"llm"`
	RAG          RAGConfig      `yaml:"rag"`
}

// IndexConfig describes the vector index the documents are stored in.
type IndexConfig struct {
	Name         string        `yaml:"name"`
	Provider     string        `yaml:"provider"`
	Dimension    int           `yaml:"dimension"`
	Metric       string        `yaml:"metric"`
	Cloud        string        `yaml:"cloud"`
	Region       string        `yaml:"region"`
	PollInterval time.Duration `yaml:"poll_interval"`
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
}

type PineconeConfig struct {
	APIKey    string `yaml:"api_key"`
	Namespace string `yaml:"namespace"`
}

type ChromemConfig struct {
	Path          string `yaml:"path"`
	InMemory      bool   `yaml:"in_memory"`
	Compress      bool   `yaml:"compress"`
	EncryptionKey string `yaml:"encryption_key"`
	ExportPath    string `yaml:"export_path"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Driver   string `yaml:"driver"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type LLMConfig struct {
	Provider    string   `yaml:"provider"`
	BaseURL     string   `yaml:"base_url"`
	Key         string   `yaml:"key"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"` // nil leaves the provider default
	BatchSize   int      `yaml:"batch_size"`
}

type RAGConfig struct {
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	Splitter     string `yaml:"splitter"`
	TopK         int    `yaml:"top_k"`
	HistoryTurns int    `yaml:"history_turns"`
}

// LoadConfig reads the yaml file at path. A missing file is not an error,
// defaults and environment overrides are returned instead.
func LoadConfig(path string) (*Config, error) {
	cfg := presets()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyDefaults(cfg)
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	cfg := presets()
	applyDefaults(cfg)
	return cfg
}

// presets holds the defaults whose zero value is a valid setting. They are
// set before the file is decoded so only an absent key keeps them.
func presets() *Config {
	return &Config{RAG: RAGConfig{ChunkOverlap: 50, HistoryTurns: 5}}
}

func applyDefaults(cfg *Config) {
	if cfg.ResourcesDir == "" {
		cfg.ResourcesDir = "resources"
	}
	if len(cfg.Documents) == 0 {
		cfg.Documents = []string{"icyco.pdf"}
	}

	idx := &cfg.Index
	if idx.Name == "" {
		idx.Name = "icyco-index"
	}
	if idx.Provider == "" {
		idx.Provider = ProviderPinecone
	}
	if idx.Dimension == 0 {
		idx.Dimension = 384
	}
	if idx.Metric == "" {
		idx.Metric = "cosine"
	}
	if idx.Cloud == "" {
		idx.Cloud = "aws"
	}
	if idx.Region == "" {
		idx.Region = "us-east-1"
	}
	if idx.PollInterval == 0 {
		idx.PollInterval = time.Second
	}
	if idx.ReadyTimeout == 0 {
		idx.ReadyTimeout = 5 * time.Minute
	}

	if cfg.Chromem.Path == "" {
		cfg.Chromem.Path = "./chromemdb"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pg"
	}

	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "ollama"
	}
	if cfg.EmbedLLM.Model == "" && cfg.EmbedLLM.Provider == "ollama" {
		cfg.EmbedLLM.Model = "all-minilm"
	}
	if cfg.EmbedLLM.BatchSize == 0 {
		cfg.EmbedLLM.BatchSize = 32
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "googleai"
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "googleai", "genai":
			cfg.LLM.Model = "gemini-2.0-flash"
		}
	}

	rag := &cfg.RAG
	if rag.ChunkSize == 0 {
		rag.ChunkSize = 400
	}
	if rag.Splitter == "" {
		rag.Splitter = SplitterWindow
	}
	if rag.TopK == 0 {
		rag.TopK = 3
	}
}

// env values win over the file so keys never have to be committed
func applyEnv(cfg *Config) {
	if v := os.Getenv("PINECONE_API_KEY"); v != "" {
		cfg.Pinecone.APIKey = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		if isGoogle(cfg.LLM.Provider) {
			cfg.LLM.Key = v
		}
		if isGoogle(cfg.EmbedLLM.Provider) {
			cfg.EmbedLLM.Key = v
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		if cfg.LLM.Provider == "ollama" {
			cfg.LLM.BaseURL = v
		}
		if cfg.EmbedLLM.Provider == "ollama" {
			cfg.EmbedLLM.BaseURL = v
		}
	}
}

func isGoogle(provider string) bool {
	return provider == "googleai" || provider == "genai"
}

func (c *Config) Validate() error {
	switch c.Index.Provider {
	case ProviderPinecone, ProviderChromem, ProviderPgvector:
	default:
		return fmt.Errorf("unknown index provider: %q", c.Index.Provider)
	}
	if c.Index.Dimension <= 0 {
		return fmt.Errorf("index dimension must be positive, got %d", c.Index.Dimension)
	}
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be in [0, %d)", c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	switch c.RAG.Splitter {
	case SplitterWindow, SplitterRecursive:
	default:
		return fmt.Errorf("unknown splitter: %q", c.RAG.Splitter)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.RAG.TopK)
	}
	if c.RAG.HistoryTurns < 0 {
		return fmt.Errorf("history_turns must not be negative, got %d", c.RAG.HistoryTurns)
	}
	return nil
}
