// Package detect provides cheap keyword heuristics for tagging chat
// messages with a coarse tone and language. Client-supplied values always
// take precedence; these detectors only fill the gaps so downstream prompts
// and stored messages are never untagged.
package detect

import (
	"strings"
	"unicode"
)

// Tones recognized by the heuristic. "neutral" is the fallback.
const (
	ToneHappy    = "happy"
	ToneSad      = "sad"
	ToneAngry    = "angry"
	ToneAnxious  = "anxious"
	ToneGrateful = "grateful"
	ToneNeutral  = "neutral"
)

// tonePatterns is checked in order; the first tone with a keyword hit wins.
// Anxiety before sadness: stress wording frequently co-occurs with "down"
// phrases and the anxious reading is the more useful prompt signal.
var tonePatterns = []struct {
	tone     string
	keywords []string
}{
	{ToneAngry, []string{"angry", "furious", "mad at", "hate", "annoyed", "frustrated", "fed up"}},
	{ToneAnxious, []string{"anxious", "anxiety", "nervous", "worried", "stressed", "stress", "panic", "overwhelmed", "scared", "afraid"}},
	{ToneSad, []string{"sad", "depressed", "unhappy", "lonely", "miserable", "crying", "heartbroken", "hopeless", "down today"}},
	{ToneGrateful, []string{"thank", "grateful", "appreciate", "that helped", "thanks"}},
	{ToneHappy, []string{"happy", "great", "wonderful", "excited", "glad", "amazing", "joy", "proud"}},
}

// Tone classifies the message into one coarse tone bucket.
func Tone(message string) string {
	lower := strings.ToLower(message)
	for _, p := range tonePatterns {
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				return p.tone
			}
		}
	}
	return ToneNeutral
}

// Language guesses the message language from script ranges first, then a
// handful of high-frequency function words. English is the fallback.
// Kana outranks Han so mixed kanji/kana text reads as Japanese.
func Language(message string) string {
	var hasKana, hasHan, hasHangul, hasCyrillic, hasArabic, hasDevanagari bool
	for _, r := range message {
		switch {
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			hasKana = true
		case unicode.Is(unicode.Han, r):
			hasHan = true
		case unicode.Is(unicode.Hangul, r):
			hasHangul = true
		case unicode.Is(unicode.Cyrillic, r):
			hasCyrillic = true
		case unicode.Is(unicode.Arabic, r):
			hasArabic = true
		case unicode.Is(unicode.Devanagari, r):
			hasDevanagari = true
		}
	}
	switch {
	case hasKana:
		return "ja"
	case hasHangul:
		return "ko"
	case hasHan:
		return "zh"
	case hasCyrillic:
		return "ru"
	case hasArabic:
		return "ar"
	case hasDevanagari:
		return "hi"
	}

	words := fieldsLower(message)
	if containsAny(words, "el", "la", "los", "las", "que", "una", "estoy", "gracias", "hola") {
		return "es"
	}
	if containsAny(words, "le", "les", "une", "est", "je", "merci", "bonjour", "suis") {
		return "fr"
	}
	if containsAny(words, "der", "die", "das", "und", "ich", "nicht", "danke") {
		return "de"
	}
	return "en"
}

func fieldsLower(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[strings.Trim(w, ".,!?;:\"'")] = struct{}{}
	}
	return out
}

func containsAny(set map[string]struct{}, words ...string) bool {
	for _, w := range words {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}
