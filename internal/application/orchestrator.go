// Package application holds the use-case services: the chat turn pipeline
// with its provider orchestration, and the account service backing auth and
// settings.
package application

import (
	"context"
	"time"

	"github.com/alphinepj/Clam-Companion/internal/domain"
	"github.com/alphinepj/Clam-Companion/internal/logging"
)

const (
	// FallbackText is the fixed reply used when every provider attempt
	// fails. The turn is still a success from the caller's perspective.
	FallbackText = "I'm having trouble understanding you right now. Please try again later."

	// ProviderNone tags turns that were answered with FallbackText.
	ProviderNone = "none"

	defaultAttemptTimeout = 10 * time.Second
)

// TurnResult is one generated assistant reply plus the provider that
// produced it (ProviderNone when all providers failed).
type TurnResult struct {
	Text     string
	Tone     string
	Provider string
}

// Orchestrator produces one assistant response per chat turn. It walks the
// registered providers sequentially, preferred provider first, and hands
// back the fixed fallback reply when every attempt fails. Attempts are never
// parallel: each one may consume billed quota, so order is about determinism
// and cost, not latency.
type Orchestrator struct {
	providers []domain.Provider
	byName    map[string]domain.Provider
	timeout   time.Duration
	logger    logging.Logger
}

// NewOrchestrator registers providers in their fixed default order. timeout
// bounds each individual attempt; zero means the 10s default.
func NewOrchestrator(providers []domain.Provider, timeout time.Duration, logger logging.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	byName := make(map[string]domain.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Orchestrator{
		providers: providers,
		byName:    byName,
		timeout:   timeout,
		logger:    logger,
	}
}

// Has reports whether a provider with that name is registered.
func (o *Orchestrator) Has(name string) bool {
	_, ok := o.byName[name]
	return ok
}

// Names lists the registered providers in default attempt order.
func (o *Orchestrator) Names() []string {
	names := make([]string, len(o.providers))
	for i, p := range o.providers {
		names[i] = p.Name()
	}
	return names
}

// order builds the attempt sequence for one turn: the preferred provider
// first when it is registered, then the remaining providers in default
// order. An unknown preference is ignored rather than rejected.
func (o *Orchestrator) order(preferred string) []domain.Provider {
	first, ok := o.byName[preferred]
	if !ok {
		return o.providers
	}
	ordered := make([]domain.Provider, 0, len(o.providers))
	ordered = append(ordered, first)
	for _, p := range o.providers {
		if p.Name() != preferred {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

// Generate runs the fallback chain for one turn. Provider failures are
// logged and swallowed; the returned TurnResult is always usable, so a chat
// turn can only fail on validation or persistence, never on generation.
func (o *Orchestrator) Generate(ctx context.Context, preferred string, req domain.GenerateRequest) TurnResult {
	for _, p := range o.order(preferred) {
		res, err := o.attempt(ctx, p, req)
		if err != nil {
			o.logger.Warn(ctx, "provider attempt failed",
				"provider", p.Name(),
				"error", err,
			)
			continue
		}
		o.logger.Info(ctx, "provider attempt succeeded", "provider", p.Name())
		return TurnResult{Text: res.Text, Tone: res.Tone, Provider: p.Name()}
	}

	o.logger.Warn(ctx, "all providers failed, using fallback reply",
		"providers", len(o.providers),
	)
	return TurnResult{Text: FallbackText, Tone: req.Tone, Provider: ProviderNone}
}

func (o *Orchestrator) attempt(ctx context.Context, p domain.Provider, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return p.Generate(ctx, req)
}
