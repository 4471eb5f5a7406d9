package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP chat server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LLMConfig configures the generation provider.
type LLMConfig struct {
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	SystemTemplate string  `yaml:"system_template"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "ollama" or "openai"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
}

// DatabaseConfig configures the pgvector-backed store.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	Collection   string `yaml:"collection"`
	Metric       string `yaml:"metric"` // "dot" or "cosine"
	SearchLimit  int    `yaml:"search_limit"`
	CountCeiling int    `yaml:"count_ceiling"`
}

// LoaderConfig configures page fetching and the optional crawl.
type LoaderConfig struct {
	TimeoutSecs       int      `yaml:"timeout_secs"`
	RateLimit         float64  `yaml:"rate_limit"` // fetches per second
	MaxDepth          int      `yaml:"max_depth"`  // 0 disables link following
	IgnorePatterns    []string `yaml:"ignore_patterns"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// SplitterConfig configures chunking.
type SplitterConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Loader    LoaderConfig    `yaml:"loader"`
	Splitter  SplitterConfig  `yaml:"splitter"`
	Sources   []string        `yaml:"sources"`
}

// LoadConfig reads the config file at path, falling back to the default
// locations when path is empty. Environment variables override file values,
// then defaults fill anything still unset.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/ragd/config.yaml"),
			"/etc/ragd/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	config := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %v", err)
		}
	}

	mergeWithEnv(config)
	applyDefaults(config)

	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}

	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}

	if config.Embedding.Provider == "" {
		config.Embedding.Provider = "ollama"
	}
	if config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = config.LLM.BaseURL
	}
	if config.Embedding.Dimension == 0 {
		if config.Embedding.Provider == "openai" {
			config.Embedding.Dimension = 1536
		} else {
			config.Embedding.Dimension = 768
		}
	}

	if config.Database.Collection == "" {
		config.Database.Collection = "documents"
	}
	if config.Database.Metric == "" {
		config.Database.Metric = "dot"
	}
	if config.Database.SearchLimit == 0 {
		config.Database.SearchLimit = 5
	}
	if config.Database.CountCeiling == 0 {
		config.Database.CountCeiling = 1000
	}

	if config.Loader.TimeoutSecs == 0 {
		config.Loader.TimeoutSecs = 30
	}
	if config.Loader.RateLimit == 0 {
		config.Loader.RateLimit = 2.0
	}
	if len(config.Loader.AllowedExtensions) == 0 {
		config.Loader.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}

	if config.Splitter.ChunkSize == 0 {
		config.Splitter.ChunkSize = 512
	}
	if config.Splitter.ChunkOverlap == 0 {
		config.Splitter.ChunkOverlap = 100
	}
}

func mergeWithEnv(config *Config) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
		if config.Embedding.Provider != "openai" {
			config.Embedding.BaseURL = baseURL
		}
	}
	if addr := os.Getenv("RAGD_ADDR"); addr != "" {
		config.Server.Addr = addr
	}
}
