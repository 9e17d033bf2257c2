package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/yt-digest/internal/types"
)

// requestIDKey matches the default context key of the requestid middleware
const requestIDKey = "requestid"

func errorResponse(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(types.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return ""
}
