package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// LogSource returns the most recent server log lines
type LogSource interface {
	Lines() []string
}

// Register mounts every endpoint on r
func Register(r fiber.Router, digestHandler *DigestHandler, saveHandler *SaveHandler, logs LogSource) {
	r.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	r.Post("/digest", digestHandler.Handle)
	r.Post("/save", saveHandler.Handle)

	r.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logs.Lines(),
		})
	})
}
