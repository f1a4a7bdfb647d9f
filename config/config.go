// Package config provides configuration loading and management for Syllascan.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syllascan/syllascan/model"
)

// Config represents the complete Syllascan configuration
type Config struct {
	Models     ModelsConfig     `yaml:"models"`
	NATS       NATSConfig       `yaml:"nats"`
	Similarity SimilarityConfig `yaml:"similarity"`
	LLM        LLMConfig        `yaml:"llm"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ModelsConfig configures model endpoints and capability routing
type ModelsConfig struct {
	// Default is the model used for unmapped capabilities
	Default string `yaml:"default"`
	// Endpoints maps model names to provider endpoints
	Endpoints map[string]*model.EndpointConfig `yaml:"endpoints"`
	// Capabilities maps capability names to preference chains
	Capabilities map[string]*model.CapabilityConfig `yaml:"capabilities"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
	// Timeout is the connection timeout
	Timeout time.Duration `yaml:"timeout"`
}

// SimilarityConfig tunes the originality detector
type SimilarityConfig struct {
	// IncludeThreshold is the minimum cosine similarity (0-1) for a match
	IncludeThreshold float64 `yaml:"include_threshold"`
	// MaxMatches caps reported matches per document
	MaxMatches int `yaml:"max_matches"`
}

// LLMConfig configures the drafting collaborator client
type LLMConfig struct {
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration `yaml:"timeout"`
	// MaxAttempts is the retry count per endpoint
	MaxAttempts int `yaml:"max_attempts"`
	// RecordCalls enables persisting LLM calls for auditing
	RecordCalls bool `yaml:"record_calls"`
}

// WatchConfig configures directory ingestion
type WatchConfig struct {
	// Dir is the directory watched for new syllabus files
	Dir string `yaml:"dir"`
	// Extensions lists the file extensions ingested (default .txt, .md)
	Extensions []string `yaml:"extensions"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Models: ModelsConfig{
			Default: "local",
		},
		NATS: NATSConfig{
			URL:     "nats://localhost:4222",
			Timeout: 5 * time.Second,
		},
		Similarity: SimilarityConfig{
			IncludeThreshold: 0.5,
			MaxMatches:       5,
		},
		LLM: LLMConfig{
			Timeout:     180 * time.Second,
			MaxAttempts: 3,
			RecordCalls: true,
		},
		Watch: WatchConfig{
			Extensions: []string{".txt", ".md"},
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	if c.Similarity.IncludeThreshold < 0 || c.Similarity.IncludeThreshold >= 1 {
		return fmt.Errorf("similarity.include_threshold must be in [0,1)")
	}
	if c.Similarity.MaxMatches <= 0 {
		return fmt.Errorf("similarity.max_matches must be positive")
	}
	if c.LLM.MaxAttempts <= 0 {
		return fmt.Errorf("llm.max_attempts must be positive")
	}
	return nil
}

// Registry builds a model registry from the configured endpoints and
// capability chains. With no endpoints configured the default registry is
// used.
func (c *Config) Registry() *model.Registry {
	if len(c.Models.Endpoints) == 0 {
		return model.NewDefaultRegistry()
	}

	caps := make(map[model.Capability]*model.CapabilityConfig, len(c.Models.Capabilities))
	for name, cfg := range c.Models.Capabilities {
		capability := model.ParseCapability(name)
		if capability == "" {
			continue
		}
		caps[capability] = cfg
	}

	registry := model.NewRegistry(caps, c.Models.Endpoints)
	if c.Models.Default != "" {
		registry.SetDefault(c.Models.Default)
	}
	return registry
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Models.Default != "" {
		c.Models.Default = other.Models.Default
	}
	if len(other.Models.Endpoints) > 0 {
		c.Models.Endpoints = other.Models.Endpoints
	}
	if len(other.Models.Capabilities) > 0 {
		c.Models.Capabilities = other.Models.Capabilities
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Timeout != 0 {
		c.NATS.Timeout = other.NATS.Timeout
	}

	if other.Similarity.IncludeThreshold != 0 {
		c.Similarity.IncludeThreshold = other.Similarity.IncludeThreshold
	}
	if other.Similarity.MaxMatches != 0 {
		c.Similarity.MaxMatches = other.Similarity.MaxMatches
	}

	if other.LLM.Timeout != 0 {
		c.LLM.Timeout = other.LLM.Timeout
	}
	if other.LLM.MaxAttempts != 0 {
		c.LLM.MaxAttempts = other.LLM.MaxAttempts
	}
	if other.LLM.RecordCalls {
		c.LLM.RecordCalls = true
	}

	if other.Watch.Dir != "" {
		c.Watch.Dir = other.Watch.Dir
	}
	if len(other.Watch.Extensions) > 0 {
		c.Watch.Extensions = other.Watch.Extensions
	}
}
