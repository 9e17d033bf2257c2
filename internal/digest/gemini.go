package digest

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const videoMimeType = "video/mp4"

// GeminiBackend calls the Gemini API. A watch URL is passed to the model as
// a file part so the model watches the video itself.
type GeminiBackend struct {
	client *genai.Client
}

// GeminiConfig configures a GeminiBackend
type GeminiConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint (tests, proxies)
	BaseURL string
}

// NewGeminiBackend creates a new Gemini backend
func NewGeminiBackend(ctx context.Context, cfg GeminiConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY が設定されていません")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create gemini client: %w", err)
	}
	return &GeminiBackend{client: client}, nil
}

func (b *GeminiBackend) Name() string {
	return "gemini"
}

// Generate sends the prompt, plus the video as a file part in URL mode
func (b *GeminiBackend) Generate(ctx context.Context, req Request) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.Content.Transcript == "" && req.Content.VideoURL != "" {
		parts = append(parts, genai.NewPartFromURI(req.Content.VideoURL, videoMimeType))
	}

	resp, err := b.client.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(req.Temperature),
			MaxOutputTokens: req.MaxOutputTokens,
		})
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("model %s returned an empty response", req.Model)
	}
	return text, nil
}
