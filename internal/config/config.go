// Package config provides configuration management for lifelog.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for settings not present in settings.yaml.
const (
	DefaultPort           = 8000
	DefaultPollSeconds    = 5
	DefaultChunkSize      = 512
	DefaultChunkOverlap   = 50
	DefaultTopK           = 5
	DefaultEmbedBaseURL   = "https://api.openai.com/v1"
	DefaultEmbedModel     = "text-embedding-3-small"
	DefaultChatModel      = "gpt-4o-mini"
	DefaultSimilarity     = 0.5
	DefaultTimeoutSeconds = 60
)

// Config holds all lifelog settings.
type Config struct {
	MonitoredDir        string  `yaml:"monitored_dir"`
	EmbedBaseURL        string  `yaml:"embed_base_url"`
	EmbedModel          string  `yaml:"embed_model"`
	ChatModel           string  `yaml:"chat_model"`
	Port                int     `yaml:"port"`
	MaxConns            int     `yaml:"max_conns"`
	ChunkSize           int     `yaml:"chunk_size"`
	ChunkOverlap        int     `yaml:"chunk_overlap"`
	TopK                int     `yaml:"top_k"`
	PollSeconds         int     `yaml:"poll_seconds"`
	TimeoutSeconds      int     `yaml:"timeout_seconds"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// PollInterval returns the window-focus poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// ClientTimeout returns the bound applied to external collaborator calls.
func (c *Config) ClientTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Default returns the default configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Port:                DefaultPort,
		MonitoredDir:        filepath.Join(home, "Documents"),
		PollSeconds:         DefaultPollSeconds,
		ChunkSize:           DefaultChunkSize,
		ChunkOverlap:        DefaultChunkOverlap,
		TopK:                DefaultTopK,
		MaxConns:            4,
		EmbedBaseURL:        DefaultEmbedBaseURL,
		EmbedModel:          DefaultEmbedModel,
		ChatModel:           DefaultChatModel,
		SimilarityThreshold: DefaultSimilarity,
		TimeoutSeconds:      DefaultTimeoutSeconds,
	}
}

// DataDir returns the lifelog data directory (~/.lifelog, or LIFELOG_DATA_DIR).
func DataDir() string {
	if dir := os.Getenv("LIFELOG_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lifelog"
	}
	return filepath.Join(home, ".lifelog")
}

// DBPath returns the path of the durable structured store.
func DBPath() string {
	return filepath.Join(DataDir(), "lifelog.db")
}

// IndexPath returns the path of the similarity-index store (derived cache).
func IndexPath() string {
	return filepath.Join(DataDir(), "index.db")
}

// SettingsPath returns the path of the settings file.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.yaml")
}

// EnsureDataDir creates the data directory if missing.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0o755)
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// EnsureAll creates the data directory and settings file.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return fmt.Errorf("ensure data dir: %w", err)
	}
	if err := EnsureSettings(); err != nil {
		return fmt.Errorf("ensure settings: %w", err)
	}
	return nil
}

// Load reads settings.yaml, filling gaps with defaults and applying
// environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	normalize(cfg)
	applyEnv(cfg)
	return cfg, nil
}

// normalize repairs out-of-range values rather than failing startup.
func normalize(cfg *Config) {
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.PollSeconds <= 0 {
		cfg.PollSeconds = DefaultPollSeconds
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 4
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 4
	}
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold >= 1 {
		cfg.SimilarityThreshold = DefaultSimilarity
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.EmbedBaseURL == "" {
		cfg.EmbedBaseURL = DefaultEmbedBaseURL
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = DefaultEmbedModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
}

func applyEnv(cfg *Config) {
	if dir := os.Getenv("LIFELOG_MONITORED_DIR"); dir != "" {
		cfg.MonitoredDir = dir
	}
	if url := os.Getenv("LIFELOG_EMBED_BASE_URL"); url != "" {
		cfg.EmbedBaseURL = url
	}
}

// APIKey returns the key for the embedding/generative collaborators.
func APIKey() string {
	if key := os.Getenv("LIFELOG_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("OPENAI_API_KEY")
}
