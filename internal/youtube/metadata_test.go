package youtube

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/yt-digest/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOEmbedServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Contains(t, r.URL.Query().Get("url"), "watch?v=")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newDataAPIServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "snippet", r.URL.Query().Get("part"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestMetadataResolver_DataAPI(t *testing.T) {
	api, apiCalls := newDataAPIServer(t, http.StatusOK, `{
		"items": [{
			"id": "dQw4w9WgXcQ",
			"snippet": {
				"title": "Never Gonna Give You Up",
				"channelTitle": "Rick Astley",
				"publishedAt": "2009-10-25T06:57:33Z",
				"thumbnails": {"high": {"url": "https://example.com/other.jpg"}}
			}
		}]
	}`)
	oembed, oembedCalls := newOEmbedServer(t, http.StatusOK, `{"title":"wrong","author_name":"wrong"}`)

	r, err := NewMetadataResolver(context.Background(), MetadataConfig{
		APIKey:          "test-key",
		DataAPIEndpoint: api.URL + "/",
		OEmbedEndpoint:  oembed.URL,
	}, discardLogger())
	require.NoError(t, err)

	md, source := r.resolve(context.Background(), "dQw4w9WgXcQ")
	assert.Equal(t, types.SourceDataAPI, source)
	assert.Equal(t, types.VideoMetadata{
		Title:     "Never Gonna Give You Up",
		Channel:   "Rick Astley",
		Published: "2009-10-25",
		Thumbnail: "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
	}, md)
	assert.Equal(t, int32(1), apiCalls.Load())
	assert.Equal(t, int32(0), oembedCalls.Load())
}

func TestMetadataResolver_EmptyItemsFallsBackToOEmbed(t *testing.T) {
	api, _ := newDataAPIServer(t, http.StatusOK, `{"items": []}`)
	oembed, oembedCalls := newOEmbedServer(t, http.StatusOK, `{"title":"From oEmbed","author_name":"Channel"}`)

	r, err := NewMetadataResolver(context.Background(), MetadataConfig{
		APIKey:          "test-key",
		DataAPIEndpoint: api.URL + "/",
		OEmbedEndpoint:  oembed.URL,
	}, discardLogger())
	require.NoError(t, err)

	md, source := r.resolve(context.Background(), "dQw4w9WgXcQ")
	assert.Equal(t, types.SourceOEmbed, source)
	assert.Equal(t, "From oEmbed", md.Title)
	assert.Equal(t, "Channel", md.Channel)
	assert.Empty(t, md.Published)
	assert.Equal(t, ThumbnailURL("dQw4w9WgXcQ"), md.Thumbnail)
	assert.Equal(t, int32(1), oembedCalls.Load())
}

func TestMetadataResolver_DataAPIErrorFallsBackToOEmbed(t *testing.T) {
	api, _ := newDataAPIServer(t, http.StatusForbidden, `{"error":{"code":403,"message":"quotaExceeded"}}`)
	oembed, _ := newOEmbedServer(t, http.StatusOK, `{"title":"Fallback","author_name":"Author"}`)

	r, err := NewMetadataResolver(context.Background(), MetadataConfig{
		APIKey:          "test-key",
		DataAPIEndpoint: api.URL + "/",
		OEmbedEndpoint:  oembed.URL,
	}, discardLogger())
	require.NoError(t, err)

	md := r.Resolve(context.Background(), "dQw4w9WgXcQ")
	assert.Equal(t, "Fallback", md.Title)
	assert.Equal(t, "Author", md.Channel)
}

func TestMetadataResolver_NoKeyUsesOEmbed(t *testing.T) {
	oembed, calls := newOEmbedServer(t, http.StatusOK, `{"title":"Title","author_name":"Author"}`)

	r, err := NewMetadataResolver(context.Background(), MetadataConfig{OEmbedEndpoint: oembed.URL}, discardLogger())
	require.NoError(t, err)

	md, source := r.resolve(context.Background(), "dQw4w9WgXcQ")
	assert.Equal(t, types.SourceOEmbed, source)
	assert.Equal(t, "Title", md.Title)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMetadataResolver_NothingAvailable(t *testing.T) {
	oembed, _ := newOEmbedServer(t, http.StatusNotFound, `Not Found`)

	r, err := NewMetadataResolver(context.Background(), MetadataConfig{OEmbedEndpoint: oembed.URL}, discardLogger())
	require.NoError(t, err)

	md, source := r.resolve(context.Background(), "zzzzzzzzzzz")
	assert.Equal(t, types.SourceNone, source)
	assert.Equal(t, types.VideoMetadata{
		Thumbnail: "https://img.youtube.com/vi/zzzzzzzzzzz/maxresdefault.jpg",
	}, md)
}

func TestMetadataResolver_UnreachableOEmbed(t *testing.T) {
	oembed := httptest.NewServer(http.NotFoundHandler())
	unreachable := oembed.URL
	oembed.Close()

	r, err := NewMetadataResolver(context.Background(), MetadataConfig{OEmbedEndpoint: unreachable}, discardLogger())
	require.NoError(t, err)

	md := r.Resolve(context.Background(), "dQw4w9WgXcQ")
	assert.Empty(t, md.Title)
	assert.Empty(t, md.Channel)
	assert.Empty(t, md.Published)
	assert.NotEmpty(t, md.Thumbnail)
}

func TestMetadataResolver_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	r, err := NewMetadataResolver(context.Background(), MetadataConfig{
		OEmbedEndpoint: slow.URL,
		Timeout:        50 * time.Millisecond,
	}, discardLogger())
	require.NoError(t, err)

	start := time.Now()
	md := r.Resolve(context.Background(), "dQw4w9WgXcQ")
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, md.Title)
	assert.Equal(t, ThumbnailURL("dQw4w9WgXcQ"), md.Thumbnail)
}

func TestDatePrefix(t *testing.T) {
	assert.Equal(t, "2024-01-02", datePrefix("2024-01-02T03:04:05Z"))
	assert.Equal(t, "2024-01-02", datePrefix("2024-01-02"))
	assert.Equal(t, "", datePrefix(""))
}
