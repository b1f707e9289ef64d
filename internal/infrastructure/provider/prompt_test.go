package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alphinepj/Clam-Companion/internal/domain"
)

func TestSystemPromptNamedGoal(t *testing.T) {
	got := systemPrompt(domain.GenerateRequest{Goal: domain.GoalStressRelief})
	assert.Contains(t, got, "Clam Companion")
	assert.Contains(t, got, "managing stress")
	assert.NotContains(t, got, "The user's goal for this conversation")
}

func TestSystemPromptCustomGoal(t *testing.T) {
	got := systemPrompt(domain.GenerateRequest{Goal: domain.Goal("practice job interviews")})
	assert.Contains(t, got, "The user's goal for this conversation: practice job interviews.")
}

func TestSystemPromptToneAndLanguage(t *testing.T) {
	got := systemPrompt(domain.GenerateRequest{
		Goal:     domain.GoalEmotionalSupport,
		Tone:     "sad",
		Language: "es",
	})
	assert.Contains(t, got, "sounds sad")
	assert.Contains(t, got, "Reply in Spanish.")

	// Neutral tone adds nothing; unknown language codes pass through.
	got = systemPrompt(domain.GenerateRequest{
		Goal:     domain.GoalEmotionalSupport,
		Tone:     "neutral",
		Language: "pt",
	})
	assert.NotContains(t, got, "sounds neutral")
	assert.Contains(t, got, "Reply in pt.")
}
