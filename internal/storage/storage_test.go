package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	objects    []ObjectInfo
	listErr    error
	downloaded []string
}

func (f *fakeStorage) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []ObjectInfo
	for _, o := range f.objects {
		if strings.HasPrefix(o.Key, prefix) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	f.downloaded = append(f.downloaded, key)
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(destPath, []byte(key), 0o644)
}

func csvOnly(key string) bool {
	return strings.HasSuffix(strings.ToLower(key), ".csv")
}

func TestFetchFiltersAndMirrors(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeStorage{objects: []ObjectInfo{
		{Key: "rl/logic a.csv"},
		{Key: "rl/nested/logic b.CSV"},
		{Key: "rl/notes.pdf"},
		{Key: "rl/folder/"},
		{Key: "other/logic c.csv"},
	}}

	paths, err := NewFetcher(fake, dir, csvOnly).Fetch(context.Background(), "rl/", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"rl/logic a.csv", "rl/nested/logic b.CSV"}, fake.downloaded)
	assert.Equal(t, []string{
		filepath.Join(dir, "logic a.csv"),
		filepath.Join(dir, "nested", "logic b.CSV"),
	}, paths)
	assert.FileExists(t, filepath.Join(dir, "nested", "logic b.CSV"))
}

func TestFetchOverrideAndErrors(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeStorage{}

	paths, err := NewFetcher(fake, dir, nil).Fetch(context.Background(), "rl", "/logic d.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"rl/logic d.csv"}, fake.downloaded)
	assert.Equal(t, []string{filepath.Join(dir, "logic d.csv")}, paths)

	_, err = NewFetcher(&fakeStorage{}, dir, csvOnly).Fetch(context.Background(), "rl/", "")
	assert.ErrorContains(t, err, "no extract files")

	_, err = NewFetcher(&fakeStorage{listErr: errors.New("denied")}, dir, nil).Fetch(context.Background(), "rl/", "")
	assert.ErrorContains(t, err, "denied")
}

func TestFetchRejectsKeysOutsideDestDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "data")
	fake := &fakeStorage{objects: []ObjectInfo{{Key: "rl/../../escape.csv"}}}

	_, err := NewFetcher(fake, dir, csvOnly).Fetch(context.Background(), "rl/", "")
	require.Error(t, err)
	assert.Empty(t, fake.downloaded)
	assert.NoFileExists(t, filepath.Join(root, "escape.csv"))

	_, err = localPathUnder(dir, "nested/../../x.csv")
	assert.Error(t, err)

	p, err := localPathUnder(dir, "nested/../x.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "x.csv"), p)
}

func TestObjectKeyHelpers(t *testing.T) {
	assert.Equal(t, "rl/a.csv", resolveObjectKey("rl/", "a.csv"))
	assert.Equal(t, "rl/a.csv", resolveObjectKey("rl", "/rl/a.csv"))
	assert.Equal(t, "a.csv", resolveObjectKey("", "/a.csv"))

	assert.Equal(t, "x/a.csv", objectRelativePath("rl", "rl/x/a.csv"))
	assert.Equal(t, "a.csv", objectRelativePath("rl", "elsewhere/a.csv"))
	assert.Equal(t, "rl/a.csv", objectRelativePath("", "rl/a.csv"))
}

func TestSplitEndpoint(t *testing.T) {
	host, secure := splitEndpoint("https://s3.example.com/", false)
	assert.Equal(t, "s3.example.com", host)
	assert.True(t, secure)

	host, secure = splitEndpoint("http://localhost:9000", true)
	assert.Equal(t, "localhost:9000", host)
	assert.False(t, secure)

	host, secure = splitEndpoint("minio:9000", true)
	assert.Equal(t, "minio:9000", host)
	assert.True(t, secure)
}
