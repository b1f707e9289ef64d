package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/alphinepj/Clam-Companion/config"
	"github.com/alphinepj/Clam-Companion/internal/domain"
)

type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(cfg config.ProviderConfig) *OpenAI {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

func (p *OpenAI) Name() string { return "openai" }

func (p *OpenAI) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt(req),
	})
	for _, m := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role.String(),
			Content: m.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Message,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	})
	if err != nil {
		return nil, domain.NewProviderError(p.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return nil, domain.NewProviderError(p.Name(), errors.New("no choices in response"))
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, domain.NewProviderError(p.Name(), errors.New("empty completion"))
	}
	return &domain.GenerateResult{Text: text, Tone: req.Tone}, nil
}
