package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Fetcher mirrors extract files from a bucket prefix into a local directory.
type Fetcher struct {
	client  ObjectStorage
	destDir string
	accept  func(key string) bool
}

// NewFetcher keeps only keys accepted by accept; nil accepts everything.
func NewFetcher(client ObjectStorage, destDir string, accept func(key string) bool) *Fetcher {
	if accept == nil {
		accept = func(string) bool { return true }
	}
	return &Fetcher{client: client, destDir: destDir, accept: accept}
}

// Fetch downloads every accepted object under prefix, or only override when
// set, and returns the sorted local paths.
func (f *Fetcher) Fetch(ctx context.Context, prefix, override string) ([]string, error) {
	var keys []string

	if override != "" {
		keys = []string{resolveObjectKey(prefix, override)}
	} else {
		listPrefix := strings.TrimSpace(prefix)
		objects, err := f.client.ListObjects(ctx, listPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects for prefix %s: %w", listPrefix, err)
		}
		for _, obj := range objects {
			if strings.HasSuffix(obj.Key, "/") || !f.accept(obj.Key) {
				continue
			}
			keys = append(keys, obj.Key)
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no extract files found for prefix %s", prefix)
	}

	if err := os.MkdirAll(f.destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure download dir %s: %w", f.destDir, err)
	}

	localPaths := make([]string, 0, len(keys))
	for _, key := range keys {
		localPath, err := localPathUnder(f.destDir, objectRelativePath(prefix, key))
		if err != nil {
			return nil, fmt.Errorf("refusing object %s: %w", key, err)
		}
		if err := f.client.DownloadObject(ctx, key, localPath); err != nil {
			return nil, err
		}
		log.Info().Str("key", key).Str("path", localPath).Msg("Fetched extract")
		localPaths = append(localPaths, localPath)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}

func resolveObjectKey(prefix, override string) string {
	if override == "" {
		return strings.TrimSpace(prefix)
	}
	if prefix == "" {
		return strings.TrimPrefix(override, "/")
	}

	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	overrideTrimmed := strings.TrimPrefix(strings.TrimSpace(override), "/")

	if strings.HasPrefix(overrideTrimmed, prefixTrimmed) {
		return overrideTrimmed
	}
	return fmt.Sprintf("%s/%s", prefixTrimmed, overrideTrimmed)
}

func objectRelativePath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	rel := strings.TrimPrefix(key, prefixTrimmed+"/")
	if rel == "" || rel == key {
		return filepath.Base(key)
	}
	return rel
}

// localPathUnder joins rel onto dir and rejects results outside dir.
func localPathUnder(dir, rel string) (string, error) {
	root := filepath.Clean(dir)
	joined := filepath.Join(root, filepath.FromSlash(rel))
	back, err := filepath.Rel(root, joined)
	if err != nil {
		return "", err
	}
	if back == "." || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %s", rel, dir)
	}
	return joined, nil
}
