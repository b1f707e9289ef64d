package domain

import (
	"context"
	"fmt"
)

// GenerateRequest carries one chat turn to a provider. History is the
// chronological transcript before the new message; adapters must treat it
// as read-only.
type GenerateRequest struct {
	Message  string
	Goal     Goal
	Tone     string
	Language string
	History  []Message
}

// GenerateResult is the normalized provider output.
type GenerateResult struct {
	Text string
	Tone string
}

// Provider wraps one external LLM endpoint behind a uniform generate
// capability. Implementations normalize every native failure (timeout,
// auth, quota, malformed body) into *ProviderError and never retry;
// retry and fallback belong to the orchestrator alone.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// ProviderError is the single failure type adapters are allowed to return.
// It keeps the provider name for logging while hiding provider-specific
// error types from the orchestrator.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err for the named provider.
func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err}
}
