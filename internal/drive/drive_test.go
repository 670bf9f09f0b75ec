package drive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	files   map[string][]*File
	content map[string]string
	failID  string
}

func (f *fakeStore) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	files, ok := f.files[folderID]
	if !ok {
		return nil, errors.New("folder not found")
	}
	return files, nil
}

func (f *fakeStore) DownloadFile(ctx context.Context, file *File, w io.Writer) error {
	if file.ID == f.failID {
		_, _ = io.WriteString(w, "partial")
		return errors.New("connection reset")
	}
	_, err := io.WriteString(w, f.content[file.ID])
	return err
}

func (f *fakeStore) FindFolderByPath(ctx context.Context, path string) (string, error) {
	if path == "extracts/rl" {
		return "folder-1", nil
	}
	return "", errors.New("folder not found: " + path)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		files: map[string][]*File{
			"folder-1": {
				{ID: "1", Name: "logic b.csv", MimeType: "text/csv"},
				{ID: "2", Name: "logic a.xlsx", MimeType: xlsxMimeType},
				{ID: "3", Name: "Lead Time", MimeType: spreadsheetMimeType},
				{ID: "4", Name: "notes.pdf", MimeType: "application/pdf"},
				{ID: "5", Name: "archive", MimeType: folderMimeType},
			},
		},
		content: map[string]string{"1": "b", "2": "a", "3": "lt"},
	}
}

func TestDownloadFolder(t *testing.T) {
	dir := t.TempDir()
	paths, err := NewDownloader(newFakeStore()).DownloadFolder(context.Background(), DownloadOptions{
		FolderID:    "folder-1",
		DownloadDir: dir,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "Lead Time.xlsx"),
		filepath.Join(dir, "logic a.xlsx"),
		filepath.Join(dir, "logic b.csv"),
	}, paths)

	raw, err := os.ReadFile(filepath.Join(dir, "logic b.csv"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(raw))
}

func TestDownloadFolderKeepsPreviousFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "logic b.csv")
	require.NoError(t, os.WriteFile(target, []byte("previous"), 0o644))

	store := newFakeStore()
	store.failID = "1"
	_, err := NewDownloader(store).DownloadFolder(context.Background(), DownloadOptions{
		FolderID:    "folder-1",
		DownloadDir: dir,
	})
	require.Error(t, err)

	raw, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(raw))

	_, err = NewDownloader(store).DownloadFolder(context.Background(), DownloadOptions{FolderID: "folder-1"})
	assert.Error(t, err)
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "a.csv", localName(&File{Name: "../../a.csv"}))
	assert.Equal(t, "Sheet.xlsx", localName(&File{Name: "Sheet", MimeType: spreadsheetMimeType}))
	assert.Equal(t, "", localName(&File{Name: "a.pdf"}))
}

func TestHandlerRoutes(t *testing.T) {
	dir := t.TempDir()
	var synced []string
	h := NewHandler(newFakeStore(), "folder-1", dir, func(ctx context.Context, paths []string) (any, error) {
		synced = paths
		return map[string]int{"loaded": len(paths)}, nil
	})
	router := mux.NewRouter()
	h.RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drive/files?path=extracts/rl", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var files []File
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	assert.Len(t, files, 5)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drive/files?path=missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/drive/sync", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, synced, 3)
	assert.Contains(t, rec.Body.String(), `"loaded":3`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/drive/sync?folderId=nope", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drive/sync", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
