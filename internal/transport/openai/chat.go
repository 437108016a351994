package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/metrics"
)

// ChatConfig holds the chat model settings.
type ChatConfig struct {
	ClientConfig
	Provider    string // metric label, "openai" when empty
	Model       string
	Temperature float32
	MaxTokens   int
}

// Chat is a chat-completion client for intent extraction and response synthesis.
type Chat struct {
	client      *openai.Client
	provider    string
	model       string
	temperature float32
	maxTokens   int
}

// NewChat creates a chat client.
func NewChat(cfg ChatConfig) *Chat {
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	return &Chat{
		client:      newClient(cfg.ClientConfig),
		provider:    provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// CompleteJSON asks for a JSON object answer.
func (c *Chat) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, system, user, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
}

// Complete asks for a free-text answer.
func (c *Chat) Complete(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, system, user, nil)
}

// HealthCheck lists models.
func (c *Chat) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (c *Chat) complete(
	ctx context.Context, system, user string, format *openai.ChatCompletionResponseFormat,
) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: format,
	}

	call := metrics.StartProviderCall(metrics.APIChat, c.provider, c.model)
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		call.Done("api_error")
		return "", apiError("chat completion", err, domain.ErrLLMProviderError)
	}
	if len(resp.Choices) == 0 {
		call.Done("empty_choices")
		return "", fmt.Errorf("%w: empty choices", domain.ErrLLMProviderError)
	}

	call.Done("")
	call.Tokens(resp.Usage.PromptTokens, resp.Usage.TotalTokens)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
