package provider

import (
	"fmt"
	"strings"

	"github.com/alphinepj/Clam-Companion/internal/domain"
)

// goalGuidance maps each built-in goal to the coaching instruction injected
// into the system prompt. Custom goals fall through to a generic line.
var goalGuidance = map[domain.Goal]string{
	domain.GoalEmotionalSupport:    "The user is looking for emotional support. Listen with empathy, validate their feelings, and respond gently without judging.",
	domain.GoalStressRelief:        "The user wants help managing stress. Offer calming, practical suggestions such as breathing or grounding exercises, one step at a time.",
	domain.GoalPoliteGreetings:     "The user is practicing polite greetings and small talk. Model warm, courteous openings and encourage them to try their own.",
	domain.GoalKindDisagreement:    "The user is practicing disagreeing kindly. Show how to push back on an idea while staying respectful and constructive.",
	domain.GoalRespectfulQuestions: "The user is practicing asking questions respectfully. Demonstrate curious, considerate phrasing and invite them to rephrase.",
}

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"ru": "Russian",
	"ar": "Arabic",
	"hi": "Hindi",
}

// systemPrompt renders the per-turn instruction block shared by every
// adapter, so the assistant's voice does not depend on which provider
// answered.
func systemPrompt(req domain.GenerateRequest) string {
	var b strings.Builder
	b.WriteString("You are Clam Companion, a warm and supportive wellness assistant. ")
	b.WriteString("Keep replies short and conversational, two to four sentences. ")
	b.WriteString("You are not a medical professional: never diagnose, and if the user appears to be in crisis, gently suggest reaching out to a professional or someone they trust.")

	if guidance, ok := goalGuidance[req.Goal]; ok {
		b.WriteString("\n\n")
		b.WriteString(guidance)
	} else if goal := strings.TrimSpace(req.Goal.String()); goal != "" {
		b.WriteString("\n\nThe user's goal for this conversation: ")
		b.WriteString(goal)
		b.WriteString(".")
	}

	if req.Tone != "" && req.Tone != "neutral" {
		fmt.Fprintf(&b, "\n\nThe user currently sounds %s. Acknowledge that and adapt your reply to it.", req.Tone)
	}
	if req.Language != "" {
		name, ok := languageNames[req.Language]
		if !ok {
			name = req.Language
		}
		fmt.Fprintf(&b, "\nReply in %s.", name)
	}

	return b.String()
}
