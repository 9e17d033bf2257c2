package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codebuildervaibhav/yt-digest/internal/types"
)

const (
	maxTitleRunes = 50
	defaultTitle  = "untitled"
)

// ErrNoOutputDir is returned when neither the request nor the config names a directory
var ErrNoOutputDir = errors.New("保存先ディレクトリが指定されていません")

var (
	windowsPathPattern   = regexp.MustCompile(`^[A-Za-z]:\\`)
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
)

// Mirror receives a copy of every saved note
type Mirror interface {
	Upload(ctx context.Context, filename string, content []byte, created time.Time) (string, error)
}

// NoteConfig configures NoteStorage
type NoteConfig struct {
	DefaultDir            string
	TranslateWindowsPaths bool
}

// NoteStorage writes digests as Markdown notes with a YAML front matter block
type NoteStorage struct {
	defaultDir       string
	translateWindows bool
	mirror           Mirror
	logger           *slog.Logger
	now              func() time.Time
}

// NewNoteStorage creates a new note storage. mirror may be nil.
func NewNoteStorage(cfg NoteConfig, mirror Mirror, logger *slog.Logger) *NoteStorage {
	return &NoteStorage{
		defaultDir:       cfg.DefaultDir,
		translateWindows: cfg.TranslateWindowsPaths,
		mirror:           mirror,
		logger:           logger,
		now:              time.Now,
	}
}

// frontMatter is serialized in field order
type frontMatter struct {
	Title     string   `yaml:"title"`
	Channel   string   `yaml:"channel"`
	Published string   `yaml:"published"`
	URL       string   `yaml:"url"`
	Thumbnail string   `yaml:"thumbnail"`
	Model     string   `yaml:"model"`
	Created   string   `yaml:"created"`
	Tags      []string `yaml:"tags,omitempty"`
}

// Save writes the note to the requested directory (or the default one) and
// mirrors it when a mirror is configured
func (s *NoteStorage) Save(ctx context.Context, req types.SaveRequest) (types.SaveResponse, error) {
	dir := req.OutputPath
	if dir == "" {
		dir = s.defaultDir
	}
	if dir == "" {
		return types.SaveResponse{}, ErrNoOutputDir
	}
	if s.translateWindows {
		dir = WindowsToWSLPath(dir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.SaveResponse{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	now := s.now()
	filename := fmt.Sprintf("%s_%s.md", NoteTitle(req.Content), now.Format("20060102"))
	path := filepath.Join(dir, filename)

	note, err := RenderNote(req, now)
	if err != nil {
		return types.SaveResponse{}, err
	}

	if err := os.WriteFile(path, note, 0644); err != nil {
		return types.SaveResponse{}, fmt.Errorf("failed to write note: %w", err)
	}

	s.logger.Info("notes: saved",
		slog.String("video_id", req.VideoID),
		slog.String("path", path),
		slog.Int("bytes", len(note)))

	resp := types.SaveResponse{
		Success:  true,
		Filename: filename,
		Path:     path,
	}

	if s.mirror != nil {
		driveURL, err := s.mirror.Upload(ctx, filename, note, now)
		if err != nil {
			s.logger.Warn("notes: mirror upload failed",
				slog.String("filename", filename), slog.Any("error", err))
		} else {
			resp.DriveURL = driveURL
		}
	}

	return resp, nil
}

// RenderNote returns the front matter block followed by the content
func RenderNote(req types.SaveRequest, created time.Time) ([]byte, error) {
	published := req.Published
	if published == "" {
		published = "unknown"
	}

	fm, err := yaml.Marshal(frontMatter{
		Title:     req.Title,
		Channel:   req.Channel,
		Published: published,
		URL:       req.URL,
		Thumbnail: req.Thumbnail,
		Model:     req.Model,
		Created:   created.Format("2006-01-02"),
		Tags:      req.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString(req.Content)
	return buf.Bytes(), nil
}

// WindowsToWSLPath maps C:\Users\x to /mnt/c/Users/x; other paths are returned as is
func WindowsToWSLPath(p string) string {
	if !windowsPathPattern.MatchString(p) {
		return p
	}
	drive := strings.ToLower(p[:1])
	rest := strings.ReplaceAll(p[3:], `\`, "/")
	return "/mnt/" + drive + "/" + rest
}

// NoteTitle takes the first "# " heading of content and makes it safe for
// use in a filename
func NoteTitle(content string) string {
	title := ""
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# ") {
			title = strings.TrimSpace(line[2:])
			break
		}
	}
	title = strings.TrimSpace(invalidFilenameChars.ReplaceAllString(title, ""))
	if title == "" {
		return defaultTitle
	}
	if runes := []rune(title); len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes])
	}
	return title
}
