package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codebuildervaibhav/yt-digest/internal/types"
)

const (
	defaultWatchEndpoint     = "https://www.youtube.com/watch"
	defaultTranscriptTimeout = 30 * time.Second
	playerResponseMarker     = "ytInitialPlayerResponse = "
	maxWatchPageBytes        = 6 * 1024 * 1024
	maxTimedTextBytes        = 2 * 1024 * 1024
	userAgent                = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// DefaultTranscriptLanguages is the caption language preference order
var DefaultTranscriptLanguages = []string{"ja", "en"}

// TranscriptReason classifies why no transcript could be produced
type TranscriptReason string

const (
	ReasonDisabled         TranscriptReason = "disabled"
	ReasonVideoUnavailable TranscriptReason = "video_unavailable"
	ReasonNoTranscript     TranscriptReason = "no_transcript"
	ReasonFetchFailed      TranscriptReason = "fetch_failed"
)

var reasonMessages = map[TranscriptReason]string{
	ReasonDisabled:         "この動画では字幕が無効になっています",
	ReasonVideoUnavailable: "動画を利用できません",
	ReasonNoTranscript:     "この動画には利用可能な字幕がありません",
	ReasonFetchFailed:      "字幕の取得に失敗しました",
}

// TranscriptUnavailableError is returned when no caption track can be used
type TranscriptUnavailableError struct {
	VideoID string
	Reason  TranscriptReason
	Detail  string
	Err     error
}

func (e *TranscriptUnavailableError) Error() string {
	msg := reasonMessages[e.Reason]
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

func (e *TranscriptUnavailableError) Unwrap() error {
	return e.Err
}

// TranscriptConfig configures a TranscriptResolver
type TranscriptConfig struct {
	Languages     []string
	WatchEndpoint string
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// TranscriptResolver picks and downloads the best caption track of a video
// from the caption listing embedded in its watch page.
type TranscriptResolver struct {
	languages  []string
	watchURL   string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewTranscriptResolver creates a new transcript resolver
func NewTranscriptResolver(cfg TranscriptConfig, logger *slog.Logger) *TranscriptResolver {
	r := &TranscriptResolver{
		languages:  cfg.Languages,
		watchURL:   cfg.WatchEndpoint,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		logger:     logger,
	}
	if len(r.languages) == 0 {
		r.languages = DefaultTranscriptLanguages
	}
	if r.watchURL == "" {
		r.watchURL = defaultWatchEndpoint
	}
	if r.timeout <= 0 {
		r.timeout = defaultTranscriptTimeout
	}
	if r.httpClient == nil {
		r.httpClient = http.DefaultClient
	}
	return r
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

func (t captionTrack) generated() bool {
	return t.Kind == "asr"
}

// Resolve returns the transcript of videoID, or a *TranscriptUnavailableError
func (r *TranscriptResolver) Resolve(ctx context.Context, videoID string) (types.TranscriptResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tracks, err := r.listTracks(ctx, videoID)
	if err != nil {
		return types.TranscriptResult{}, err
	}

	track := pickTrack(tracks, r.languages)
	r.logger.Info("transcript: track selected",
		slog.String("video_id", videoID),
		slog.String("language", track.LanguageCode),
		slog.Bool("generated", track.generated()),
		slog.Int("available", len(tracks)))

	text, err := r.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return types.TranscriptResult{}, &TranscriptUnavailableError{VideoID: videoID, Reason: ReasonFetchFailed, Err: err}
	}
	if text == "" {
		return types.TranscriptResult{}, &TranscriptUnavailableError{VideoID: videoID, Reason: ReasonNoTranscript, Detail: "empty caption track"}
	}

	return types.TranscriptResult{
		Text:        text,
		Language:    track.LanguageCode,
		IsGenerated: track.generated(),
	}, nil
}

// listTracks returns the caption tracks in the order the watch page lists them
func (r *TranscriptResolver) listTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	fail := func(reason TranscriptReason, detail string, err error) error {
		return &TranscriptUnavailableError{VideoID: videoID, Reason: reason, Detail: detail, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.watchURL+"?v="+url.QueryEscape(videoID), nil)
	if err != nil {
		return nil, fail(ReasonFetchFailed, "", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fail(ReasonFetchFailed, "", fmt.Errorf("watch page: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fail(ReasonFetchFailed, "", fmt.Errorf("watch page returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWatchPageBytes))
	if err != nil {
		return nil, fail(ReasonFetchFailed, "", fmt.Errorf("read watch page: %w", err))
	}

	idx := bytes.Index(body, []byte(playerResponseMarker))
	if idx < 0 {
		return nil, fail(ReasonFetchFailed, "", fmt.Errorf("player response not found in watch page"))
	}
	raw := extractJSONObject(body[idx+len(playerResponseMarker):])
	if raw == nil {
		return nil, fail(ReasonFetchFailed, "", fmt.Errorf("malformed player response"))
	}

	var player playerResponse
	if err := json.Unmarshal(raw, &player); err != nil {
		return nil, fail(ReasonFetchFailed, "", fmt.Errorf("decode player response: %w", err))
	}

	if ps := player.PlayabilityStatus; ps != nil && ps.Status != "" && ps.Status != "OK" {
		detail := ps.Reason
		if detail == "" {
			detail = ps.Status
		}
		return nil, fail(ReasonVideoUnavailable, detail, nil)
	}
	if player.Captions == nil {
		return nil, fail(ReasonDisabled, "", nil)
	}

	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, fail(ReasonNoTranscript, "", nil)
	}
	return tracks, nil
}

// pickTrack tries each preferred language in order, manual tracks before
// auto-generated ones, and falls back to the first listed track.
func pickTrack(tracks []captionTrack, languages []string) captionTrack {
	for _, lang := range languages {
		for _, generated := range []bool{false, true} {
			for _, t := range tracks {
				if t.LanguageCode == lang && t.generated() == generated {
					return t
				}
			}
		}
	}
	return tracks[0]
}

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

func (r *TranscriptResolver) fetchTimedText(ctx context.Context, baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse caption url: %w", err)
	}
	// Without fmt the endpoint returns the plain <transcript><text> format
	q := u.Query()
	q.Del("fmt")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("timedtext returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTimedTextBytes))
	if err != nil {
		return "", fmt.Errorf("read timedtext: %w", err)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	segments := make([]string, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		// Caption text is HTML-escaped inside the XML
		text := strings.Join(strings.Fields(html.UnescapeString(line.Text)), " ")
		if text != "" {
			segments = append(segments, text)
		}
	}
	return strings.Join(segments, " "), nil
}

// extractJSONObject returns the first balanced JSON object at the start of
// data, or nil when the object is not closed.
func extractJSONObject(data []byte) []byte {
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	depth := 0
	inString := false
	escaped := false
	for i, c := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return data[:i+1]
			}
		}
	}
	return nil
}
