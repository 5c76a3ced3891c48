package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are playing Truco Argentino. Always respond in valid JSON format."

const defaultMaxTokens = 150

type Options struct {
	Temperature float32
	MaxTokens   int
}

// Provider is one decision backend. All bundled providers speak the
// OpenAI-compatible chat-completion protocol; they differ only in base URL
// and credentials.
type Provider interface {
	Complete(ctx context.Context, model, prompt string, opts Options) (string, error)
}

type chatProvider struct {
	client *openai.Client
}

func newChatProvider(apiKey, baseURL string) *chatProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &chatProvider{client: openai.NewClientWithConfig(cfg)}
}

func (p *chatProvider) Complete(ctx context.Context, model, prompt string, opts Options) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
