package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
}

type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
	JudgeProvider   string                    `yaml:"judge_provider,omitempty"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
}

type ProviderConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Model    string `yaml:"model,omitempty"`
	RetryMax int    `yaml:"retry_max,omitempty"`
}

type BenchmarkConfig struct {
	DataDir     string `yaml:"data_dir,omitempty"`
	Shots       int    `yaml:"shots,omitempty"`
	SampleSize  int    `yaml:"sample_size,omitempty"`
	CallDelayMS int    `yaml:"call_delay_ms,omitempty"`
}

// CallDelay is the fixed pause between model calls in the scoring loop.
func (c BenchmarkConfig) CallDelay() time.Duration {
	return time.Duration(c.CallDelayMS) * time.Millisecond
}

type StorageConfig struct {
	Type string `yaml:"type,omitempty"` // "sqlite" or "memory"
	Path string `yaml:"path,omitempty"` // SQLite file path
}

type ServerConfig struct {
	Addr   string `yaml:"addr,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
}

// Load reads a YAML config file and merges credential overrides from the
// process environment. Everything downstream receives the resulting Config
// explicitly; no other component touches the environment.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// Default returns a usable config without reading any file. Environment
// credential overrides still apply.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Providers == nil {
		cfg.LLM.Providers = make(map[string]ProviderConfig)
	}
	if strings.TrimSpace(cfg.LLM.DefaultProvider) == "" {
		cfg.LLM.DefaultProvider = "anthropic"
	}
	if strings.TrimSpace(cfg.LLM.JudgeProvider) == "" {
		cfg.LLM.JudgeProvider = cfg.LLM.DefaultProvider
	}
	if strings.TrimSpace(cfg.Benchmark.DataDir) == "" {
		cfg.Benchmark.DataDir = "data/mmlu"
	}
	if cfg.Benchmark.Shots <= 0 {
		cfg.Benchmark.Shots = 5
	}
	if cfg.Benchmark.CallDelayMS <= 0 {
		cfg.Benchmark.CallDelayMS = 1000
	}
	if strings.TrimSpace(cfg.Storage.Type) == "" {
		cfg.Storage.Type = "sqlite"
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = ":8080"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		p := cfg.LLM.Providers["anthropic"]
		p.APIKey = v
		cfg.LLM.Providers["anthropic"] = p
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		p := cfg.LLM.Providers["openai"]
		p.APIKey = v
		cfg.LLM.Providers["openai"] = p
	}
}
