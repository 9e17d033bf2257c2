package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/codebuildervaibhav/yt-digest/internal/config"
	"github.com/codebuildervaibhav/yt-digest/internal/digest"
	"github.com/codebuildervaibhav/yt-digest/internal/pipeline"
	"github.com/codebuildervaibhav/yt-digest/internal/storage"
	"github.com/codebuildervaibhav/yt-digest/internal/youtube"
)

// app holds the components shared by the server and the CLI commands
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
	notes    *storage.NoteStorage
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newApp builds every component from the configuration
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	logger.Info("Initializing components...")

	metadata, err := youtube.NewMetadataResolver(ctx, youtube.MetadataConfig{
		APIKey:          cfg.YouTube.APIKey,
		DataAPIEndpoint: cfg.YouTube.DataAPIEndpoint,
		OEmbedEndpoint:  cfg.YouTube.OEmbedEndpoint,
		Timeout:         cfg.YouTube.RequestTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	transcripts := youtube.NewTranscriptResolver(youtube.TranscriptConfig{
		Languages:     cfg.YouTube.TranscriptLanguages,
		WatchEndpoint: cfg.YouTube.WatchEndpoint,
	}, logger)

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	generator := digest.NewGenerator(backend, digest.GeneratorConfig{
		Models:          cfg.Generator.Models,
		Temperature:     cfg.Generator.Temperature,
		MaxOutputTokens: cfg.Generator.MaxOutputTokens,
	}, logger)

	p, err := pipeline.New(metadata, transcripts, generator, pipeline.Source(cfg.Generator.Source), logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Generator ready",
		slog.String("backend", backend.Name()),
		slog.String("source", cfg.Generator.Source),
		slog.Any("models", generator.Models()))

	notes := storage.NewNoteStorage(storage.NoteConfig{
		DefaultDir:            cfg.Notes.DefaultDir,
		TranslateWindowsPaths: cfg.Notes.TranslateWindowsPaths,
	}, newMirror(ctx, cfg, logger), logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		pipeline: p,
		notes:    notes,
	}, nil
}

func newBackend(ctx context.Context, cfg *config.Config) (digest.Backend, error) {
	switch cfg.Generator.Backend {
	case config.BackendGemini:
		return digest.NewGeminiBackend(ctx, digest.GeminiConfig{APIKey: cfg.Generator.GeminiAPIKey})
	case config.BackendOpenAI:
		return digest.NewOpenAIBackend(digest.OpenAIConfig{
			APIKey:  cfg.Generator.OpenAIAPIKey,
			BaseURL: cfg.Generator.OpenAIBaseURL,
		})
	}
	return nil, fmt.Errorf("unknown generator backend %q", cfg.Generator.Backend)
}

// newMirror returns the Drive mirror, or nil when it is not configured or
// cannot be used. Notes are then saved locally only.
func newMirror(ctx context.Context, cfg *config.Config, logger *slog.Logger) storage.Mirror {
	driveCfg := driveConfig(cfg)
	if !driveCfg.Enabled() {
		logger.Info("Google Drive mirror not configured - saving notes locally only")
		return nil
	}

	client, err := storage.NewDriveClient(ctx, driveCfg, logger)
	if err != nil {
		logger.Warn("Google Drive not available, notes will only be saved locally", slog.Any("error", err))
		return nil
	}
	logger.Info("Google Drive mirror enabled", slog.String("folder", driveCfg.FolderName))
	return client
}

func driveConfig(cfg *config.Config) storage.DriveConfig {
	return storage.DriveConfig{
		CredentialsFile: cfg.Notes.Drive.CredentialsFile,
		TokenFile:       cfg.Notes.Drive.TokenFile,
		FolderName:      cfg.Notes.Drive.FolderName,
	}
}
