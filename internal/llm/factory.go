package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/benchkit/internal/config"
)

func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}

	r := NewRegistry()
	for name, pcfg := range cfg.LLM.Providers {
		switch NormalizeProviderName(name) {
		case "":
			continue
		case "anthropic":
			r.Register(NewAnthropicProvider(pcfg.APIKey, pcfg.BaseURL, pcfg.Model, pcfg.RetryMax))
		case "openai":
			r.Register(NewOpenAIProvider(pcfg.APIKey, pcfg.BaseURL, pcfg.Model, pcfg.RetryMax))
		default:
			return nil, fmt.Errorf("llm: unknown provider %q", name)
		}
	}
	return r, nil
}

// ProviderFromConfig resolves a named provider, falling back to the config
// default when name is empty.
func ProviderFromConfig(cfg *config.Config, name string) (Provider, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}
	reg, err := NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(cfg.LLM.DefaultProvider)
	}
	if p, ok := reg.Get(NormalizeProviderName(name)); ok {
		return p, nil
	}
	return nil, fmt.Errorf("llm: provider %q not configured (available: %s)",
		name, strings.Join(reg.Names(), ", "))
}

// JudgeFromConfig resolves the judge provider used by quality metrics.
func JudgeFromConfig(cfg *config.Config) (Provider, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}
	return ProviderFromConfig(cfg, cfg.LLM.JudgeProvider)
}

func NormalizeProviderName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "claude":
		return "anthropic"
	default:
		return name
	}
}
