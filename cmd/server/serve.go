package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/yt-digest/internal/config"
	"github.com/codebuildervaibhav/yt-digest/internal/handlers"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, envFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Custom logger setup
	logBuffer := NewLogBuffer(cfg.Logging.BufferLines)
	out := io.MultiWriter(os.Stdout, logBuffer)
	log := newLogger(cfg, out)
	slog.SetDefault(log)

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}

	app := newFiberApp(a, out, logBuffer)

	addr := cfg.Addr()
	log.Info("Server starting", slog.String("addr", addr))
	log.Info("Endpoints: POST /digest, POST /save, GET /logs, GET /health (also under /api)")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down gracefully...")
		_ = app.Shutdown()
	}()

	return app.Listen(addr)
}

func newFiberApp(a *app, accessLog io.Writer, logs handlers.LogSource) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "yt-digest",
		BodyLimit:             a.cfg.Server.BodyLimitKB * 1024,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${method} ${path} | ${locals:requestid}\n",
		Output: accessLog,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: a.cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	digestHandler := handlers.NewDigestHandler(a.pipeline, a.cfg.Server.RequestTimeout, a.logger)
	saveHandler := handlers.NewSaveHandler(a.notes, a.logger)

	// Routes
	handlers.Register(app, digestHandler, saveHandler, logs)
	handlers.Register(app.Group("/api"), digestHandler, saveHandler, logs)

	return app
}
