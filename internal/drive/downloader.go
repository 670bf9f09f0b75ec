package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
}

// Downloader copies extract files from a Drive folder into a local directory.
type Downloader struct {
	files FileStore
}

func NewDownloader(files FileStore) *Downloader {
	return &Downloader{files: files}
}

// localName returns the file name to store f under, or "" when f is not an
// extract. Google Sheets are stored as .xlsx.
func localName(f *File) string {
	name := filepath.Base(strings.TrimSpace(f.Name))
	if name == "." || name == "/" || name == "" {
		return ""
	}
	if f.IsSpreadsheet() {
		return strings.TrimSuffix(name, filepath.Ext(name)) + ".xlsx"
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm":
		return name
	}
	return ""
}

// DownloadFolder downloads every CSV, XLSX and Google Sheet in the folder and
// returns the sorted local paths. Files are written to a temp name first so a
// failed download never leaves a truncated extract behind.
func (d *Downloader) DownloadFolder(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.files.ListFiles(ctx, opts.FolderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := localName(f)
		if name == "" {
			continue
		}

		localPath := filepath.Join(opts.DownloadDir, name)
		if err := d.download(ctx, f, localPath); err != nil {
			return nil, err
		}
		log.Info().Str("file", f.Name).Str("path", localPath).Msg("Downloaded extract from Drive")
		localPaths = append(localPaths, localPath)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}

func (d *Downloader) download(ctx context.Context, f *File, localPath string) error {
	tmp, err := os.CreateTemp(filepath.Dir(localPath), ".drive-*")
	if err != nil {
		return fmt.Errorf("failed to create local file for %s: %w", f.Name, err)
	}
	defer os.Remove(tmp.Name())

	if err := d.files.DownloadFile(ctx, f, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	if err := os.Rename(tmp.Name(), localPath); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", localPath, err)
	}
	return nil
}
