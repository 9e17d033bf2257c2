package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeDrive serves just enough of the Drive v3 files API for folder lookup,
// folder creation and multipart uploads
type fakeDrive struct {
	mu      sync.Mutex
	folders map[string]string // query -> id
	created []string
	uploads []string
	nextID  int
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files"):
		q := r.URL.Query().Get("q")
		if id, ok := f.folders[q]; ok {
			_, _ = fmt.Fprintf(w, `{"files":[{"id":%q}]}`, id)
			return
		}
		_, _ = io.WriteString(w, `{"files":[]}`)

	case r.Method == http.MethodPost && r.URL.Query().Get("uploadType") != "":
		raw, _ := io.ReadAll(r.Body)
		f.uploads = append(f.uploads, string(raw))
		_, _ = io.WriteString(w, `{"id":"file-1","webViewLink":"https://drive.google.com/file/d/file-1/view"}`)

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/files"):
		var body struct {
			Name     string   `json:"name"`
			MimeType string   `json:"mimeType"`
			Parents  []string `json:"parents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.nextID++
		id := fmt.Sprintf("folder-%d", f.nextID)
		parent := ""
		if len(body.Parents) > 0 {
			parent = body.Parents[0]
		}
		f.folders[folderQuery(body.Name, parent)] = id
		f.created = append(f.created, body.Name)
		_, _ = fmt.Fprintf(w, `{"id":%q}`, id)

	default:
		http.NotFound(w, r)
	}
}

func newFakeDriveClient(t *testing.T) (*DriveClient, *fakeDrive) {
	t.Helper()
	fake := &fakeDrive{folders: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	dc, err := newDriveClient(context.Background(), "YouTube Digests", discardLogger(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return dc, fake
}

func TestDriveClient_UploadCreatesDateFolders(t *testing.T) {
	dc, fake := newFakeDriveClient(t)
	created := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)

	link, err := dc.Upload(context.Background(), "note_20250307.md", []byte("---\ntitle: x\n---\n\nbody"), created)
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/file/d/file-1/view", link)
	assert.Equal(t, []string{"YouTube Digests", "2025", "03"}, fake.created)
	require.Len(t, fake.uploads, 1)
	assert.Contains(t, fake.uploads[0], "note_20250307.md")
	assert.Contains(t, fake.uploads[0], "body")

	// second upload reuses every folder
	_, err = dc.Upload(context.Background(), "other_20250307.md", []byte("x"), created)
	require.NoError(t, err)
	assert.Len(t, fake.created, 3)
	assert.Len(t, fake.uploads, 2)
}

func TestFolderQuery(t *testing.T) {
	assert.Equal(t,
		"name='Notes' and mimeType='application/vnd.google-apps.folder' and trashed=false",
		folderQuery("Notes", ""))
	assert.Equal(t,
		`name='Bob\'s \\ notes' and mimeType='application/vnd.google-apps.folder' and trashed=false and 'p1' in parents`,
		folderQuery(`Bob's \ notes`, "p1"))
}

func TestDriveConfig_Enabled(t *testing.T) {
	assert.False(t, DriveConfig{}.Enabled())
	assert.False(t, DriveConfig{CredentialsFile: "c.json", TokenFile: "t.json"}.Enabled())
	assert.True(t, DriveConfig{CredentialsFile: "c.json", TokenFile: "t.json", FolderName: "Notes"}.Enabled())
}

const testCredentials = `{"installed":{"client_id":"id","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestNewDriveClient_MissingToken(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(creds, []byte(testCredentials), 0600))

	_, err := NewDriveClient(context.Background(), DriveConfig{
		CredentialsFile: creds,
		TokenFile:       filepath.Join(dir, "token.json"),
		FolderName:      "Notes",
	}, discardLogger())
	assert.ErrorIs(t, err, ErrDriveTokenMissing)
}

func TestNewDriveClient_MissingCredentials(t *testing.T) {
	_, err := NewDriveClient(context.Background(), DriveConfig{
		CredentialsFile: filepath.Join(t.TempDir(), "missing.json"),
		TokenFile:       "token.json",
		FolderName:      "Notes",
	}, discardLogger())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDriveTokenMissing)
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"access_token":"a","refresh_token":"r","token_type":"Bearer"}`), 0600))

	tok, err := tokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "r", tok.RefreshToken)

	require.NoError(t, saveToken(path, tok))
	again, err := tokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, again.AccessToken)
}

func TestAuthorizeDrive_EmptyCode(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(creds, []byte(testCredentials), 0600))

	var out strings.Builder
	err := AuthorizeDrive(context.Background(), creds, filepath.Join(dir, "token.json"), strings.NewReader("\n"), &out)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "accounts.google.com")
	assert.NoFileExists(t, filepath.Join(dir, "token.json"))
}
