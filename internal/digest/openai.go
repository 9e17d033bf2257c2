package digest

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend calls any OpenAI-compatible chat completion endpoint.
// It only understands transcript content.
type OpenAIBackend struct {
	client *openai.Client
}

// OpenAIConfig configures an OpenAIBackend
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// NewOpenAIBackend creates a new OpenAI backend
func NewOpenAIBackend(cfg OpenAIConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY が設定されていません")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIBackend{client: openai.NewClientWithConfig(clientCfg)}, nil
}

func (b *OpenAIBackend) Name() string {
	return "openai"
}

func (b *OpenAIBackend) Generate(ctx context.Context, req Request) (string, error) {
	if req.Content.Transcript == "" {
		return "", errors.New("openai backend requires transcript content")
	}

	resp, err := b.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: req.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: req.Prompt,
				},
			},
			Temperature: req.Temperature,
			MaxTokens:   int(req.MaxOutputTokens),
		})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[len(resp.Choices)-1].Message.Content == "" {
		return "", fmt.Errorf("model %s returned an empty response", req.Model)
	}
	return resp.Choices[len(resp.Choices)-1].Message.Content, nil
}
