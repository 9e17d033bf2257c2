package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/yt-digest/internal/digest"
	"github.com/codebuildervaibhav/yt-digest/internal/pipeline"
	"github.com/codebuildervaibhav/yt-digest/internal/types"
	"github.com/codebuildervaibhav/yt-digest/internal/youtube"
)

// Digester runs the digest pipeline for one URL
type Digester interface {
	Run(ctx context.Context, rawURL string, level digest.DetailLevel) (types.DigestResponse, error)
}

// DigestHandler handles digest generation requests
type DigestHandler struct {
	pipeline Digester
	timeout  time.Duration
	logger   *slog.Logger
}

// NewDigestHandler creates a new digest handler
func NewDigestHandler(digester Digester, timeout time.Duration, logger *slog.Logger) *DigestHandler {
	return &DigestHandler{
		pipeline: digester,
		timeout:  timeout,
		logger:   logger,
	}
}

// DigestRequest represents the request body
type DigestRequest struct {
	URL         string `json:"url"`
	DetailLevel string `json:"detail_level"`
}

// Handle processes digest requests
func (h *DigestHandler) Handle(c *fiber.Ctx) error {
	var req DigestRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, types.CodeInvalidRequest, "リクエストの形式が正しくありません")
	}

	ctx := c.UserContext()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	resp, err := h.pipeline.Run(ctx, req.URL, digest.ParseDetailLevel(req.DetailLevel))
	if err != nil {
		status, code, message := classifyDigestError(err)
		h.logger.Warn("digest request failed",
			slog.String("request_id", requestID(c)),
			slog.String("url", req.URL),
			slog.String("code", code),
			slog.Any("error", err))
		return errorResponse(c, status, code, message)
	}

	return c.JSON(resp)
}

func classifyDigestError(err error) (int, string, string) {
	var (
		genErr        *digest.GenerationError
		transcriptErr *youtube.TranscriptUnavailableError
	)
	switch {
	case errors.Is(err, pipeline.ErrInvalidURL):
		return fiber.StatusBadRequest, types.CodeInvalidURL, err.Error()
	case errors.As(err, &transcriptErr):
		return fiber.StatusInternalServerError, types.CodeTranscriptUnavailable, transcriptErr.Error()
	case errors.As(err, &genErr):
		return fiber.StatusInternalServerError, types.CodeGenerationFailed, genErr.Error()
	default:
		return fiber.StatusInternalServerError, types.CodeGenerationFailed, fmt.Sprintf("解説の生成に失敗しました: %v", err)
	}
}
