package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "FOMOBOT_CONFIG"
	databasePathEnv = "FOMOBOT_DB_PATH"
	llmAPIKeyEnv    = "LLM_API_KEY"
	llmModelEnv     = "LLM_MODEL"
	llmEndpointEnv  = "LLM_ENDPOINT"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig describes the SQLite database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig defines how to contact the reasoning API. APIKey and
// Model are seeds only: once a settings row exists in the database it
// wins (the configuration page owns those values).
type LLMConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// PipelineConfig bounds a single report run.
type PipelineConfig struct {
	RunTimeoutMinutes int `yaml:"runTimeoutMinutes"`
	MinCallIntervalMS int `yaml:"minCallIntervalMs"`
}

// RunTimeout is the hard bound on one background run.
func (p PipelineConfig) RunTimeout() time.Duration {
	return time.Duration(p.RunTimeoutMinutes) * time.Minute
}

// MinCallInterval is the spacing enforced between reasoning calls.
func (p PipelineConfig) MinCallInterval() time.Duration {
	return time.Duration(p.MinCallIntervalMS) * time.Millisecond
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(llmEndpointEnv); v != "" {
		c.LLM.Endpoint = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.SystemPrompt != "" {
		base.LLM.SystemPrompt = override.LLM.SystemPrompt
	}

	if override.Pipeline.RunTimeoutMinutes > 0 {
		base.Pipeline.RunTimeoutMinutes = override.Pipeline.RunTimeoutMinutes
	}
	if override.Pipeline.MinCallIntervalMS > 0 {
		base.Pipeline.MinCallIntervalMS = override.Pipeline.MinCallIntervalMS
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "data/fomo-bot.sqlite"},
		LLM: LLMConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			APIKey:       "",
			SystemPrompt: "You are a professional financial analyst specializing in economic events and market impact analysis. Provide concise, actionable insights.",
		},
		Pipeline: PipelineConfig{
			RunTimeoutMinutes: 15,
			MinCallIntervalMS: 1000,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
