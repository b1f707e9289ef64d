// Package provider contains one adapter per external LLM API. Adapters
// normalize every failure into *domain.ProviderError and leave retries and
// fallback to the orchestrator.
package provider

import (
	"github.com/alphinepj/Clam-Companion/config"
	"github.com/alphinepj/Clam-Companion/internal/domain"
)

const (
	defaultMaxTokens   = 512
	defaultTemperature = 0.7
)

// FromConfig builds an adapter for every provider with an API key, in the
// fixed fallback order the orchestrator starts from.
func FromConfig(cfg config.ProvidersConfig) []domain.Provider {
	var providers []domain.Provider
	if cfg.OpenAI.APIKey != "" {
		providers = append(providers, NewOpenAI(cfg.OpenAI))
	}
	if cfg.Gemini.APIKey != "" {
		providers = append(providers, NewGemini(cfg.Gemini))
	}
	if cfg.Claude.APIKey != "" {
		providers = append(providers, NewClaude(cfg.Claude))
	}
	return providers
}
