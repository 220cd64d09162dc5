package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ChunkingConfig configures how documents are split before embedding.
// Overlap is a pointer so an explicit zero survives defaulting.
type ChunkingConfig struct {
	Size    int  `yaml:"size"`
	Overlap *int `yaml:"overlap"`
}

// RetrievalConfig configures how chunks are retrieved per query.
type RetrievalConfig struct {
	TopK         int    `yaml:"top_k"`
	ResponseMode string `yaml:"response_mode"`
}

// GeminiConfig configures the generation and embedding backend.
// Temperature is a pointer so an explicit zero survives defaulting.
type GeminiConfig struct {
	APIKeyEnv       string   `yaml:"api_key_env"`
	GenerationModel string   `yaml:"generation_model"`
	EmbeddingModel  string   `yaml:"embedding_model"`
	Temperature     *float32 `yaml:"temperature"`
	MaxOutputTokens int32    `yaml:"max_output_tokens"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	KnowledgeDir   string            `yaml:"knowledge_dir"`
	Chunking       ChunkingConfig    `yaml:"chunking"`
	Retrieval      RetrievalConfig   `yaml:"retrieval"`
	Gemini         GeminiConfig      `yaml:"gemini"`
	VectorStore    VectorStoreConfig `yaml:"vector_store"`
	FallbackAnswer string            `yaml:"fallback_answer"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/pdfchat/config.yaml.
// If neither exists, it writes defaults to ~/.config/pdfchat/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pdfchat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		KnowledgeDir: "data/my_knowledge_base",
		Chunking:     ChunkingConfig{Size: 1024, Overlap: ptr(20)},
		Retrieval:    RetrievalConfig{TopK: 3, ResponseMode: "compact"},
		Gemini: GeminiConfig{
			APIKeyEnv:       "GOOGLE_API_KEY",
			GenerationModel: "gemini-1.5-flash",
			EmbeddingModel:  "text-embedding-004",
			Temperature:     ptr(float32(0.5)),
			MaxOutputTokens: 2048,
		},
		VectorStore: VectorStoreConfig{Type: "memory"},
	}
}

func ptr[T any](v T) *T { return &v }

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.KnowledgeDir == "" {
		cfg.KnowledgeDir = "data/my_knowledge_base"
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = 1024
	}
	if cfg.Chunking.Overlap == nil {
		cfg.Chunking.Overlap = ptr(20)
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.ResponseMode == "" {
		cfg.Retrieval.ResponseMode = "compact"
	}
	if cfg.Gemini.APIKeyEnv == "" {
		cfg.Gemini.APIKeyEnv = "GOOGLE_API_KEY"
	}
	if cfg.Gemini.GenerationModel == "" {
		cfg.Gemini.GenerationModel = "gemini-1.5-flash"
	}
	if cfg.Gemini.EmbeddingModel == "" {
		cfg.Gemini.EmbeddingModel = "text-embedding-004"
	}
	if cfg.Gemini.Temperature == nil {
		cfg.Gemini.Temperature = ptr(float32(0.5))
	}
	if cfg.Gemini.MaxOutputTokens == 0 {
		cfg.Gemini.MaxOutputTokens = 2048
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "pdfchat"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}
}
