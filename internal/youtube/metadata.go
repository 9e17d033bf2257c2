package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/codebuildervaibhav/yt-digest/internal/types"
)

const (
	defaultOEmbedEndpoint  = "https://www.youtube.com/oembed"
	defaultMetadataTimeout = 10 * time.Second
)

// errVideoNotFound is returned by the Data API path when the id has no snippet.
// It never leaves the resolver; it only selects the oEmbed fallback.
var errVideoNotFound = errors.New("video not found")

// MetadataConfig configures a MetadataResolver
type MetadataConfig struct {
	// APIKey for the YouTube Data API. Empty disables the Data API path.
	APIKey string
	// DataAPIEndpoint overrides the Data API base URL (tests, proxies)
	DataAPIEndpoint string
	// OEmbedEndpoint overrides the oEmbed URL
	OEmbedEndpoint string
	// Timeout bounds each outbound metadata call
	Timeout    time.Duration
	HTTPClient *http.Client
}

// MetadataResolver looks up title, channel and publish date for a video.
// It prefers the YouTube Data API and falls back to oEmbed, then to an
// empty record. Resolve never returns an error.
type MetadataResolver struct {
	videos     *ytapi.Service
	httpClient *http.Client
	oembedURL  string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewMetadataResolver creates a new metadata resolver
func NewMetadataResolver(ctx context.Context, cfg MetadataConfig, logger *slog.Logger) (*MetadataResolver, error) {
	r := &MetadataResolver{
		httpClient: cfg.HTTPClient,
		oembedURL:  cfg.OEmbedEndpoint,
		timeout:    cfg.Timeout,
		logger:     logger,
	}
	if r.httpClient == nil {
		r.httpClient = http.DefaultClient
	}
	if r.oembedURL == "" {
		r.oembedURL = defaultOEmbedEndpoint
	}
	if r.timeout <= 0 {
		r.timeout = defaultMetadataTimeout
	}

	if cfg.APIKey == "" {
		logger.Info("metadata: no YouTube API key configured, using oEmbed only")
		return r, nil
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.DataAPIEndpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.DataAPIEndpoint))
	}
	svc, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create youtube service: %w", err)
	}
	r.videos = svc

	return r, nil
}

// Resolve returns the metadata for videoID. Failures degrade the result and
// are only logged.
func (r *MetadataResolver) Resolve(ctx context.Context, videoID string) types.VideoMetadata {
	md, source := r.resolve(ctx, videoID)
	r.logger.Info("metadata resolved", slog.String("video_id", videoID), slog.String("source", source))
	return md
}

// resolve also reports which source produced the record
func (r *MetadataResolver) resolve(ctx context.Context, videoID string) (types.VideoMetadata, string) {
	if r.videos != nil {
		md, err := r.fromDataAPI(ctx, videoID)
		if err == nil {
			return md, types.SourceDataAPI
		}
		reason := "transport"
		if errors.Is(err, errVideoNotFound) {
			reason = "not_found"
		}
		r.logger.Warn("metadata: data api failed, falling back to oembed",
			slog.String("video_id", videoID), slog.String("reason", reason), slog.Any("error", err))
	}

	md, err := r.fromOEmbed(ctx, videoID)
	if err == nil {
		return md, types.SourceOEmbed
	}
	r.logger.Warn("metadata: oembed failed, returning empty metadata",
		slog.String("video_id", videoID), slog.Any("error", err))

	return types.VideoMetadata{Thumbnail: ThumbnailURL(videoID)}, types.SourceNone
}

func (r *MetadataResolver) fromDataAPI(ctx context.Context, videoID string) (types.VideoMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	response, err := r.videos.Videos.
		List([]string{"snippet"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return types.VideoMetadata{}, err
	}
	if len(response.Items) == 0 || response.Items[0].Snippet == nil {
		return types.VideoMetadata{}, errVideoNotFound
	}

	snippet := response.Items[0].Snippet
	return types.VideoMetadata{
		Title:     snippet.Title,
		Channel:   snippet.ChannelTitle,
		Published: datePrefix(snippet.PublishedAt),
		Thumbnail: ThumbnailURL(videoID),
	}, nil
}

type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

func (r *MetadataResolver) fromOEmbed(ctx context.Context, videoID string) (types.VideoMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("url", "https://youtube.com/watch?v="+videoID)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.oembedURL+"?"+params.Encode(), nil)
	if err != nil {
		return types.VideoMetadata{}, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return types.VideoMetadata{}, fmt.Errorf("oembed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.VideoMetadata{}, fmt.Errorf("oembed returned status %d", resp.StatusCode)
	}

	var data oembedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&data); err != nil {
		return types.VideoMetadata{}, fmt.Errorf("decode oembed: %w", err)
	}

	// oEmbed has no publish date
	return types.VideoMetadata{
		Title:     data.Title,
		Channel:   data.AuthorName,
		Published: "",
		Thumbnail: ThumbnailURL(videoID),
	}, nil
}

// datePrefix keeps the YYYY-MM-DD part of an RFC 3339 timestamp
func datePrefix(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
