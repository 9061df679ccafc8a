package logprob

import (
	"fmt"
	"strings"

	"github.com/tensorplex-labs/cognisight/internal/config"
)

// NewProvider builds the provider selected by cfg.Kind.
func NewProvider(cfg *config.ProviderEnvConfig) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	switch strings.ToLower(cfg.Kind) {
	case config.ProviderSidecar, "":
		return NewSidecarClient(cfg)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Kind)
	}
}
