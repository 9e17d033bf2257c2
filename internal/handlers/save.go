package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/yt-digest/internal/types"
)

// NoteSaver persists a digest as a note
type NoteSaver interface {
	Save(ctx context.Context, req types.SaveRequest) (types.SaveResponse, error)
}

// SaveHandler handles note save requests
type SaveHandler struct {
	notes  NoteSaver
	logger *slog.Logger
}

// NewSaveHandler creates a new save handler
func NewSaveHandler(notes NoteSaver, logger *slog.Logger) *SaveHandler {
	return &SaveHandler{
		notes:  notes,
		logger: logger,
	}
}

// Handle processes the save request
func (h *SaveHandler) Handle(c *fiber.Ctx) error {
	var req types.SaveRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, types.CodeInvalidRequest, "リクエストの形式が正しくありません")
	}

	if req.Content == "" {
		return errorResponse(c, fiber.StatusBadRequest, types.CodeInvalidRequest, "content は必須です")
	}

	resp, err := h.notes.Save(c.UserContext(), req)
	if err != nil {
		h.logger.Error("save request failed",
			slog.String("request_id", requestID(c)),
			slog.String("video_id", req.VideoID),
			slog.String("output_path", req.OutputPath),
			slog.Any("error", err))
		return errorResponse(c, fiber.StatusInternalServerError, types.CodeSaveFailed, fmt.Sprintf("保存に失敗しました: %v", err))
	}

	return c.JSON(resp)
}
