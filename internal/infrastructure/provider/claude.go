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

const (
	defaultClaudeBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion     = "2023-06-01"
)

type Claude struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model       string          `json:"model"`
	Messages    []claudeMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature,omitempty"`
	System      string          `json:"system,omitempty"`
}

type claudeResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func NewClaude(cfg config.ProviderConfig) *Claude {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultClaudeBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "claude-3-haiku-20240307"
	}
	return &Claude{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

func (p *Claude) Name() string { return "claude" }

func (p *Claude) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	messages := make([]claudeMessage, 0, len(req.History)+1)
	for _, m := range req.History {
		messages = append(messages, claudeMessage{Role: m.Role.String(), Content: m.Content})
	}
	messages = append(messages, claudeMessage{Role: domain.RoleUser.String(), Content: req.Message})

	body := claudeRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
		System:      systemPrompt(req),
	}
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewProviderError(p.Name(), fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(reqBody))
	if err != nil {
		return nil, domain.NewProviderError(p.Name(), fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, domain.NewProviderError(p.Name(), fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, domain.NewProviderError(p.Name(), fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody)))
	}

	var claudeResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&claudeResp); err != nil {
		return nil, domain.NewProviderError(p.Name(), fmt.Errorf("failed to decode response: %w", err))
	}
	if len(claudeResp.Content) == 0 {
		return nil, domain.NewProviderError(p.Name(), errors.New("no content in response"))
	}
	text := strings.TrimSpace(claudeResp.Content[0].Text)
	if text == "" {
		return nil, domain.NewProviderError(p.Name(), errors.New("empty completion"))
	}
	return &domain.GenerateResult{Text: text, Tone: req.Tone}, nil
}
