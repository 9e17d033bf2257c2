// Package config loads the service configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"

	SourceURL        = "url"
	SourceTranscript = "transcript"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Host           string        `yaml:"host"`
		Port           int           `yaml:"port"`
		AllowOrigins   string        `yaml:"allow_origins"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		BodyLimitKB    int           `yaml:"body_limit_kb"`
	} `yaml:"server"`

	YouTube struct {
		APIKey              string        `yaml:"api_key"`
		RequestTimeout      time.Duration `yaml:"request_timeout"`
		TranscriptLanguages []string      `yaml:"transcript_languages"`
		DataAPIEndpoint     string        `yaml:"data_api_endpoint"`
		OEmbedEndpoint      string        `yaml:"oembed_endpoint"`
		WatchEndpoint       string        `yaml:"watch_endpoint"`
	} `yaml:"youtube"`

	Generator struct {
		Backend         string   `yaml:"backend"`
		Source          string   `yaml:"source"`
		Models          []string `yaml:"models"`
		Temperature     float32  `yaml:"temperature"`
		MaxOutputTokens int32    `yaml:"max_output_tokens"`
		GeminiAPIKey    string   `yaml:"gemini_api_key"`
		OpenAIAPIKey    string   `yaml:"openai_api_key"`
		OpenAIBaseURL   string   `yaml:"openai_base_url"`
	} `yaml:"generator"`

	Notes struct {
		DefaultDir            string `yaml:"default_dir"`
		TranslateWindowsPaths bool   `yaml:"translate_windows_paths"`
		Drive                 struct {
			CredentialsFile string `yaml:"credentials_file"`
			TokenFile       string `yaml:"token_file"`
			FolderName      string `yaml:"folder_name"`
		} `yaml:"drive"`
	} `yaml:"notes"`

	Logging struct {
		Level       string `yaml:"level"`
		Format      string `yaml:"format"`
		BufferLines int    `yaml:"buffer_lines"`
	} `yaml:"logging"`
}

// Default returns configuration with safe defaults
func Default() *Config {
	cfg := &Config{}

	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8000
	cfg.Server.AllowOrigins = "*"
	cfg.Server.RequestTimeout = 5 * time.Minute
	cfg.Server.BodyLimitKB = 4096

	cfg.YouTube.RequestTimeout = 10 * time.Second
	cfg.YouTube.TranscriptLanguages = []string{"ja", "en"}

	cfg.Generator.Backend = BackendGemini
	cfg.Generator.Source = SourceURL
	cfg.Generator.Models = []string{"gemini-2.5-pro", "gemini-2.5-flash"}
	cfg.Generator.Temperature = 0.7
	cfg.Generator.MaxOutputTokens = 4096

	cfg.Notes.TranslateWindowsPaths = true
	cfg.Notes.Drive.FolderName = "YouTube Digests"

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	cfg.Logging.BufferLines = 1000

	return cfg
}

// Load reads and validates the configuration
func Load(path, envFile string) (*Config, error) {
	cfg, err := Read(path, envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read builds the configuration without validating it.
// Priority: env vars (including envFile) > config file > defaults.
// Both files are optional.
func Read(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if envFile != "" {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromEnv overrides config with environment variables
func (c *Config) loadFromEnv() error {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Generator.GeminiAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Generator.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Generator.OpenAIBaseURL = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		c.YouTube.APIKey = v
	}
	if v := os.Getenv("YTDIGEST_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("YTDIGEST_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("YTDIGEST_PORT: %w", err)
		}
		c.Server.Port = n
	}
	if v := os.Getenv("YTDIGEST_BACKEND"); v != "" {
		c.Generator.Backend = v
	}
	if v := os.Getenv("YTDIGEST_SOURCE"); v != "" {
		c.Generator.Source = v
	}
	if v := os.Getenv("YTDIGEST_MODELS"); v != "" {
		c.Generator.Models = splitList(v)
	}
	if v := os.Getenv("YTDIGEST_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("YTDIGEST_NOTES_DIR"); v != "" {
		c.Notes.DefaultDir = v
	}
	return nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}
	if c.YouTube.RequestTimeout <= 0 {
		return fmt.Errorf("youtube.request_timeout must be positive")
	}

	switch c.Generator.Source {
	case SourceURL, SourceTranscript:
	default:
		return fmt.Errorf("generator.source must be %q or %q, got %q", SourceURL, SourceTranscript, c.Generator.Source)
	}

	switch c.Generator.Backend {
	case BackendGemini:
		if c.Generator.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY が設定されていません")
		}
	case BackendOpenAI:
		if c.Generator.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY が設定されていません")
		}
		if c.Generator.Source == SourceURL {
			return fmt.Errorf("generator.backend %q requires generator.source %q", BackendOpenAI, SourceTranscript)
		}
	default:
		return fmt.Errorf("generator.backend must be %q or %q, got %q", BackendGemini, BackendOpenAI, c.Generator.Backend)
	}

	if len(c.Generator.Models) == 0 {
		return fmt.Errorf("generator.models must not be empty")
	}
	if c.Generator.Temperature <= 0 || c.Generator.Temperature > 2 {
		return fmt.Errorf("generator.temperature must be in (0,2]")
	}
	if c.Generator.MaxOutputTokens <= 0 {
		return fmt.Errorf("generator.max_output_tokens must be positive")
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// LogLevel parses logging.level
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
