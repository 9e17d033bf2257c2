package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	folderMimeType   = "application/vnd.google-apps.folder"
	markdownMimeType = "text/markdown"
)

// ErrDriveTokenMissing is returned when the OAuth token file has not been
// created yet; run the drive-auth command first
var ErrDriveTokenMissing = errors.New("google drive token not found, run drive-auth first")

// DriveConfig configures the Drive mirror
type DriveConfig struct {
	CredentialsFile string
	TokenFile       string
	FolderName      string
}

// Enabled reports whether the mirror is configured at all
func (c DriveConfig) Enabled() bool {
	return c.CredentialsFile != "" && c.TokenFile != "" && c.FolderName != ""
}

// DriveClient uploads notes into {folder}/{year}/{month} on Google Drive
type DriveClient struct {
	service    *drive.Service
	folderName string
	logger     *slog.Logger

	mu       sync.Mutex
	folderID string
}

// NewDriveClient creates a Drive client from the OAuth client credentials and
// a previously stored token
func NewDriveClient(ctx context.Context, cfg DriveConfig, logger *slog.Logger) (*DriveClient, error) {
	config, err := oauthConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrDriveTokenMissing
		}
		return nil, fmt.Errorf("unable to read drive token: %w", err)
	}

	return newDriveClient(ctx, cfg.FolderName, logger, option.WithHTTPClient(config.Client(ctx, tok)))
}

func newDriveClient(ctx context.Context, folderName string, logger *slog.Logger, opts ...option.ClientOption) (*DriveClient, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %w", err)
	}
	return &DriveClient{
		service:    srv,
		folderName: folderName,
		logger:     logger,
	}, nil
}

// AuthorizeDrive runs the interactive consent flow: it prints the consent
// URL to out, reads the authorization code from in and stores the token
func AuthorizeDrive(ctx context.Context, credentialsFile, tokenFile string, in io.Reader, out io.Writer) error {
	config, err := oauthConfig(credentialsFile)
	if err != nil {
		return err
	}

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Go to the following link in your browser:\n%v\n", authURL)
	fmt.Fprint(out, "Enter authorization code: ")

	authCode, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("unable to read authorization code: %w", err)
	}
	authCode = strings.TrimSpace(authCode)
	if authCode == "" {
		return errors.New("empty authorization code")
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return saveToken(tokenFile, tok)
}

func oauthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	return config, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// Upload stores content as {folder}/{YYYY}/{MM}/{filename} and returns its link
func (dc *DriveClient) Upload(ctx context.Context, filename string, content []byte, created time.Time) (string, error) {
	folderID, err := dc.ensureDateFolder(ctx, created)
	if err != nil {
		return "", err
	}

	file := &drive.File{
		Name:     filename,
		MimeType: markdownMimeType,
		Parents:  []string{folderID},
	}

	uploaded, err := dc.service.Files.Create(file).
		Media(bytes.NewReader(content)).
		Fields("id", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload note: %w", err)
	}

	dc.logger.Info("drive: note uploaded",
		slog.String("filename", filename), slog.String("file_id", uploaded.Id))

	if uploaded.WebViewLink != "" {
		return uploaded.WebViewLink, nil
	}
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", uploaded.Id), nil
}

// rootFolder finds or creates the top-level folder once per client
func (dc *DriveClient) rootFolder(ctx context.Context) (string, error) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.folderID != "" {
		return dc.folderID, nil
	}
	id, err := dc.findOrCreateFolder(ctx, dc.folderName, "")
	if err != nil {
		return "", err
	}
	dc.folderID = id
	return id, nil
}

// ensureDateFolder creates nested year/month folders
func (dc *DriveClient) ensureDateFolder(ctx context.Context, t time.Time) (string, error) {
	rootID, err := dc.rootFolder(ctx)
	if err != nil {
		return "", err
	}

	yearID, err := dc.findOrCreateFolder(ctx, fmt.Sprintf("%d", t.Year()), rootID)
	if err != nil {
		return "", err
	}

	return dc.findOrCreateFolder(ctx, fmt.Sprintf("%02d", t.Month()), yearID)
}

// findOrCreateFolder finds or creates a folder; an empty parentID means the Drive root
func (dc *DriveClient) findOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	r, err := dc.service.Files.List().
		Q(folderQuery(name, parentID)).
		Spaces("drive").
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("unable to search for folder %q: %w", name, err)
	}

	if len(r.Files) > 0 {
		return r.Files[0].Id, nil
	}

	folder := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}

	file, err := dc.service.Files.Create(folder).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create folder %q: %w", name, err)
	}
	return file.Id, nil
}

// folderQuery builds a Drive search query for a folder by name and parent
func folderQuery(name, parentID string) string {
	q := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", escapeQueryValue(name), folderMimeType)
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQueryValue(parentID))
	}
	return q
}

func escapeQueryValue(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
