package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// LLMConfig holds the optional direct AI provider, used when the backend
// build does not ship the AI commands.
type LLMConfig struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider"` // ollama, bedrock
	Model    string `json:"model"`
	Endpoint string `json:"endpoint"` // ollama only
	Region   string `json:"region"`   // bedrock only
	Timeout  string `json:"timeout"`

	// Streaming configuration
	StreamEnabled bool `json:"stream_enabled"`

	// Inline prompt overrides
	SummarizePrompt string `json:"summarize_prompt,omitempty"`
	AnalyzePrompt   string `json:"analyze_prompt,omitempty"`
}

// Config holds all configuration for the Corvus sync layer.
type Config struct {
	// Socket is the path of the native backend's unix socket.
	Socket string `json:"socket"`

	// CachePath is the local SQLite database for AI results, saved searches
	// and the attachment index.
	CachePath string `json:"cache_path"`

	// AttachmentDir receives downloaded attachment content.
	AttachmentDir string `json:"attachment_dir"`

	// RulesFile optionally overrides the invalidation rule table (YAML).
	RulesFile string `json:"rules_file,omitempty"`

	// LLM configuration for the local provider fallback.
	LLM LLMConfig `json:"llm"`

	// Logging
	LogFile string `json:"log_file"`
}

// DefaultConfig returns the baseline configuration rooted under the user's
// config and cache directories.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".config", "corvus")
	return &Config{
		Socket:        filepath.Join(base, "backend.sock"),
		CachePath:     filepath.Join(base, "cache.db"),
		AttachmentDir: filepath.Join(base, "attachments"),
		LLM: LLMConfig{
			Enabled:       false,
			Provider:      "ollama",
			Endpoint:      "http://localhost:11434",
			Timeout:       "60s",
			StreamEnabled: true,
		},
	}
}

// LoadConfig reads the JSON config file at path, filling unset fields from
// the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigPath resolves the config file location, honoring the
// CORVUS_CONFIG environment variable.
func DefaultConfigPath() string {
	if p := os.Getenv("CORVUS_CONFIG"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "corvus", "config.json")
}

// GetLLMTimeout parses the configured LLM timeout, defaulting to a minute.
func (c *Config) GetLLMTimeout() time.Duration {
	if c.LLM.Timeout != "" {
		if d, err := time.ParseDuration(c.LLM.Timeout); err == nil && d > 0 {
			return d
		}
	}
	return 60 * time.Second
}
