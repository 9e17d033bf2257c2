package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codebuildervaibhav/yt-digest/internal/types"
)

// DefaultModels is the candidate order, highest capability first
var DefaultModels = []string{"gemini-2.5-pro", "gemini-2.5-flash"}

const (
	DefaultTemperature     float32 = 0.7
	DefaultMaxOutputTokens int32   = 4096
)

// ErrGenerationFailed is wrapped by every GenerationError
var ErrGenerationFailed = errors.New("generation failed")

// GenerationError is returned when no model produced a digest
type GenerationError struct {
	// QuotaExhausted is set when every candidate hit a quota limit
	QuotaExhausted bool
	Err            error
}

func (e *GenerationError) Error() string {
	if e.QuotaExhausted {
		return fmt.Sprintf("全モデルのQuotaを超過しました。しばらく待ってから再試行してください: %v", e.Err)
	}
	return fmt.Sprintf("解説の生成に失敗しました: %v", e.Err)
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrGenerationFailed, e.Err}
}

// Content is what the model is asked to explain: the watch URL of the video
// (multimodal backends) or its transcript text
type Content struct {
	VideoURL   string
	Transcript string
}

// Request is one model invocation
type Request struct {
	Model           string
	Prompt          string
	Content         Content
	Temperature     float32
	MaxOutputTokens int32
}

// Backend calls a generative model and returns its raw text
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorConfig configures a Generator
type GeneratorConfig struct {
	Models          []string
	Temperature     float32
	MaxOutputTokens int32
}

// Generator produces a digest by trying each candidate model in order,
// moving on only when a model reports quota exhaustion.
type Generator struct {
	backend         Backend
	models          []string
	temperature     float32
	maxOutputTokens int32
	logger          *slog.Logger
}

// NewGenerator creates a new generator
func NewGenerator(backend Backend, cfg GeneratorConfig, logger *slog.Logger) *Generator {
	g := &Generator{
		backend:         backend,
		models:          cfg.Models,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
		logger:          logger,
	}
	if len(g.models) == 0 {
		g.models = DefaultModels
	}
	if g.temperature == 0 {
		g.temperature = DefaultTemperature
	}
	if g.maxOutputTokens <= 0 {
		g.maxOutputTokens = DefaultMaxOutputTokens
	}
	return g
}

// Models returns the candidate list in try order
func (g *Generator) Models() []string {
	return append([]string(nil), g.models...)
}

// Generate runs the model fallback loop for content at the given level
func (g *Generator) Generate(ctx context.Context, content Content, level DetailLevel) (types.GenerationResult, error) {
	prompt := BuildPrompt(level, content)
	var lastErr error

	for i, model := range g.models {
		start := time.Now()
		g.logger.Info("generator: calling model",
			slog.String("backend", g.backend.Name()),
			slog.String("model", model),
			slog.String("detail_level", level.String()),
			slog.Int("attempt", i+1))

		raw, err := g.backend.Generate(ctx, Request{
			Model:           model,
			Prompt:          prompt,
			Content:         content,
			Temperature:     g.temperature,
			MaxOutputTokens: g.maxOutputTokens,
		})
		if err == nil {
			g.logger.Info("generator: model succeeded",
				slog.String("model", model),
				slog.Duration("elapsed", time.Since(start)),
				slog.Int("chars", len(raw)))
			return types.GenerationResult{
				Text:  StripTagSection(raw),
				Tags:  ExtractTags(raw),
				Model: model,
			}, nil
		}

		switch Classify(err) {
		case KindQuota:
			g.logger.Warn("generator: quota exceeded, trying next model",
				slog.String("model", model), slog.Any("error", err))
			lastErr = err
			continue
		case KindCanceled:
			return types.GenerationResult{}, &GenerationError{Err: err}
		default:
			g.logger.Error("generator: model failed",
				slog.String("model", model), slog.Any("error", err))
			return types.GenerationResult{}, &GenerationError{Err: err}
		}
	}

	return types.GenerationResult{}, &GenerationError{QuotaExhausted: true, Err: lastErr}
}
