package youtube

import (
	"fmt"
	"regexp"
)

var videoIDPatterns = []*regexp.Regexp{
	// Pattern 1: watch?v={ID}, youtu.be/{ID}, /embed/{ID}
	regexp.MustCompile(`(?:watch\?v=|youtu\.be/|/embed/)([A-Za-z0-9_-]{11})`),
	// Pattern 2: bare ID
	regexp.MustCompile(`^([A-Za-z0-9_-]{11})$`),
}

// ExtractVideoID extracts the 11-character video ID from a YouTube URL or a
// bare ID. The second return value is false when nothing matches.
func ExtractVideoID(input string) (string, bool) {
	for _, re := range videoIDPatterns {
		if matches := re.FindStringSubmatch(input); len(matches) > 1 {
			return matches[1], true
		}
	}
	return "", false
}

// WatchURL returns the canonical watch URL for a video
func WatchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}

// ThumbnailURL returns the max resolution thumbnail URL for a video.
// It never depends on a network response.
func ThumbnailURL(videoID string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID)
}
