package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alphinepj/Clam-Companion/config"
	"github.com/alphinepj/Clam-Companion/internal/domain"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type Gemini struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings   []geminiSafetySetting   `json:"safetySettings,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func NewGemini(cfg config.ProviderConfig) *Gemini {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Gemini{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

func (p *Gemini) Name() string { return "gemini" }

func (p *Gemini) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	body := geminiRequest{
		Contents: p.convertMessages(req),
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     defaultTemperature,
			MaxOutputTokens: defaultMaxTokens,
		},
		SafetySettings: defaultSafetySettings(),
	}
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewProviderError(p.Name(), fmt.Errorf("failed to marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, domain.NewProviderError(p.Name(), fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, domain.NewProviderError(p.Name(), fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, domain.NewProviderError(p.Name(), fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody)))
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, domain.NewProviderError(p.Name(), fmt.Errorf("failed to decode response: %w", err))
	}
	if len(geminiResp.Candidates) == 0 {
		return nil, domain.NewProviderError(p.Name(), errors.New("no candidates in response"))
	}
	if len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, domain.NewProviderError(p.Name(), errors.New("no content in response"))
	}
	text := strings.TrimSpace(geminiResp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return nil, domain.NewProviderError(p.Name(), errors.New("empty completion"))
	}
	return &domain.GenerateResult{Text: text, Tone: req.Tone}, nil
}

// convertMessages renders the turn in Gemini's contents format. The API has
// no system role here, so the system prompt rides on the first user message,
// and "assistant" maps to "model".
func (p *Gemini) convertMessages(req domain.GenerateRequest) []geminiContent {
	system := systemPrompt(req)
	contents := make([]geminiContent, 0, len(req.History)+1)

	prepended := false
	appendTurn := func(role, text string) {
		if role == domain.RoleUser.String() && !prepended {
			text = system + "\n\n" + text
			prepended = true
		}
		if role == domain.RoleAssistant.String() {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Parts: []geminiPart{{Text: text}},
			Role:  role,
		})
	}

	for _, m := range req.History {
		appendTurn(m.Role.String(), m.Content)
	}
	appendTurn(domain.RoleUser.String(), req.Message)
	return contents
}

func defaultSafetySettings() []geminiSafetySetting {
	categories := []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	}
	settings := make([]geminiSafetySetting, len(categories))
	for i, category := range categories {
		settings[i] = geminiSafetySetting{
			Category:  category,
			Threshold: "BLOCK_MEDIUM_AND_ABOVE",
		}
	}
	return settings
}
