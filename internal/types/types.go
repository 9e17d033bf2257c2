package types

// Error codes returned to the frontend
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeInvalidURL            = "INVALID_URL"
	CodeGenerationFailed      = "GENERATION_FAILED"
	CodeTranscriptUnavailable = "TRANSCRIPT_UNAVAILABLE"
	CodeSaveFailed            = "SAVE_FAILED"
)

// Metadata source labels used in logs
const (
	SourceDataAPI = "data_api"
	SourceOEmbed  = "oembed"
	SourceNone    = "none"
)

// VideoMetadata describes a video. Every field is always present; missing
// values are empty strings, except Thumbnail which is derived from the id.
type VideoMetadata struct {
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	Published string `json:"published"`
	Thumbnail string `json:"thumbnail"`
}

// TranscriptResult is the caption track chosen for a video
type TranscriptResult struct {
	Text        string
	Language    string
	IsGenerated bool
}

// GenerationResult is the model output after the tag section was removed
type GenerationResult struct {
	Text  string
	Tags  []string
	Model string
}

// DigestResponse is the body of a successful POST /digest
type DigestResponse struct {
	VideoID   string   `json:"video_id"`
	Digest    string   `json:"digest"`
	Model     string   `json:"model"`
	Title     string   `json:"title"`
	Channel   string   `json:"channel"`
	Published string   `json:"published"`
	Thumbnail string   `json:"thumbnail"`
	URL       string   `json:"url"`
	Tags      []string `json:"tags"`
}

// SaveRequest is the body of POST /save
type SaveRequest struct {
	VideoID    string   `json:"video_id"`
	Content    string   `json:"content"`
	OutputPath string   `json:"output_path"`
	Title      string   `json:"title"`
	Channel    string   `json:"channel"`
	Published  string   `json:"published"`
	URL        string   `json:"url"`
	Thumbnail  string   `json:"thumbnail"`
	Tags       []string `json:"tags"`
	Model      string   `json:"model"`
}

// SaveResponse is the body of a successful POST /save
type SaveResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	DriveURL string `json:"drive_url,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
