package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codebuildervaibhav/yt-digest/internal/digest"
	"github.com/codebuildervaibhav/yt-digest/internal/types"
	"github.com/codebuildervaibhav/yt-digest/internal/youtube"
)

// ErrInvalidURL is returned when no video id can be parsed from the input
var ErrInvalidURL = errors.New("有効なYouTube URLではありません")

// Source selects what the model receives
type Source string

const (
	// SourceURL hands the watch URL to a multimodal model
	SourceURL Source = "url"
	// SourceTranscript fetches the captions and sends them as text
	SourceTranscript Source = "transcript"
)

// MetadataResolver never fails; it degrades to an empty record
type MetadataResolver interface {
	Resolve(ctx context.Context, videoID string) types.VideoMetadata
}

type TranscriptResolver interface {
	Resolve(ctx context.Context, videoID string) (types.TranscriptResult, error)
}

type Generator interface {
	Generate(ctx context.Context, content digest.Content, level digest.DetailLevel) (types.GenerationResult, error)
}

// Pipeline turns a YouTube URL into a digest response
type Pipeline struct {
	metadata    MetadataResolver
	transcripts TranscriptResolver
	generator   Generator
	source      Source
	logger      *slog.Logger
}

// New creates a new pipeline. transcripts may be nil in URL mode.
func New(metadata MetadataResolver, transcripts TranscriptResolver, generator Generator, source Source, logger *slog.Logger) (*Pipeline, error) {
	switch source {
	case SourceURL:
	case SourceTranscript:
		if transcripts == nil {
			return nil, errors.New("transcript source requires a transcript resolver")
		}
	default:
		return nil, fmt.Errorf("unknown generation source %q", source)
	}
	return &Pipeline{
		metadata:    metadata,
		transcripts: transcripts,
		generator:   generator,
		source:      source,
		logger:      logger,
	}, nil
}

// Run parses rawURL, then resolves metadata and generates the digest
// concurrently. An unparsable URL fails with ErrInvalidURL before any
// network call.
func (p *Pipeline) Run(ctx context.Context, rawURL string, level digest.DetailLevel) (types.DigestResponse, error) {
	videoID, ok := youtube.ExtractVideoID(rawURL)
	if !ok {
		return types.DigestResponse{}, ErrInvalidURL
	}

	start := time.Now()
	watchURL := youtube.WatchURL(videoID)
	logger := p.logger.With(slog.String("video_id", videoID))
	logger.Info("pipeline: digest started",
		slog.String("source", string(p.source)),
		slog.String("detail_level", level.String()))

	var (
		metadata types.VideoMetadata
		result   types.GenerationResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		metadata = p.metadata.Resolve(gctx, videoID)
		return nil
	})
	g.Go(func() error {
		content := digest.Content{VideoURL: watchURL}
		if p.source == SourceTranscript {
			transcript, err := p.transcripts.Resolve(gctx, videoID)
			if err != nil {
				return err
			}
			logger.Info("pipeline: transcript fetched",
				slog.String("language", transcript.Language),
				slog.Bool("generated", transcript.IsGenerated),
				slog.Int("chars", len(transcript.Text)))
			content.Transcript = transcript.Text
		}

		var err error
		result, err = p.generator.Generate(gctx, content, level)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("pipeline: digest failed", slog.Any("error", err))
		return types.DigestResponse{}, err
	}

	logger.Info("pipeline: digest completed",
		slog.String("model", result.Model),
		slog.Int("tags", len(result.Tags)),
		slog.Duration("elapsed", time.Since(start)))

	return types.DigestResponse{
		VideoID:   videoID,
		Digest:    result.Text,
		Model:     result.Model,
		Title:     metadata.Title,
		Channel:   metadata.Channel,
		Published: metadata.Published,
		Thumbnail: metadata.Thumbnail,
		URL:       watchURL,
		Tags:      result.Tags,
	}, nil
}
