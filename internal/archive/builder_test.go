package archive

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	contents := make(map[string]string)
	for _, f := range r.File {
		assert.Equal(t, zip.Deflate, f.Method, "entry %s", f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		contents[f.Name] = string(data)
	}
	return contents
}

func TestPathFor(t *testing.T) {
	tests := []struct {
		dir      string
		id       string
		expected string
	}{
		{"/data/YouTube_abc", "abc", "/data/youtube_abc.zip"},
		{"/data/YouTube_abc/", "abc", "/data/youtube_abc.zip"},
		{"out", "x", "youtube_x.zip"},
	}

	for _, test := range tests {
		got := PathFor(test.dir, test.id)
		if got != test.expected {
			t.Errorf("PathFor(%s, %s) = %s, expected %s", test.dir, test.id, got, test.expected)
		}
	}
}

func TestBuild_RoundTripFlattened(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "YouTube_job1")
	require.NoError(t, os.MkdirAll(filepath.Join(outDir, "nested"), 0o755))

	writeFile(t, filepath.Join(outDir, "a.mp4"), strings.Repeat("video-a", 100))
	writeFile(t, filepath.Join(outDir, "a.en.vtt"), "WEBVTT")
	writeFile(t, filepath.Join(outDir, "nested", "hidden.mp4"), "should not be archived")

	path, err := NewBuilder().Build(outDir, "job1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "youtube_job1.zip"), path)

	listing, err := ListRegularFiles(outDir)
	require.NoError(t, err)

	contents := readArchive(t, path)
	names := make([]string, 0, len(contents))
	for name := range contents {
		names = append(names, name)
	}
	sort.Strings(names)

	assert.Equal(t, listing, names)
	assert.Equal(t, strings.Repeat("video-a", 100), contents["a.mp4"])
	assert.Equal(t, "WEBVTT", contents["a.en.vtt"])
}

func TestBuild_EmptyDirectory(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "YouTube_empty")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	path, err := NewBuilder().Build(outDir, "empty")
	require.NoError(t, err)
	assert.Empty(t, readArchive(t, path))
}

func TestBuild_MissingDirectory(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "YouTube_missing")

	_, err := NewBuilder().Build(outDir, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))

	_, statErr := os.Stat(PathFor(outDir, "missing"))
	assert.True(t, os.IsNotExist(statErr), "no archive may be visible after a failure")

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must be cleaned up")
}

func TestBuild_ReplacesExistingArchive(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "YouTube_job2")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	writeFile(t, PathFor(outDir, "job2"), "stale bytes")
	writeFile(t, filepath.Join(outDir, "clip.mp4"), "fresh")

	path, err := NewBuilder().Build(outDir, "job2")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"clip.mp4": "fresh"}, readArchive(t, path))
}

func TestListRegularFiles_SkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.mp4"), "b")
	writeFile(t, filepath.Join(dir, "a.mp4"), "a")
	if err := os.Symlink(filepath.Join(dir, "a.mp4"), filepath.Join(dir, "link.mp4")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	names, err := ListRegularFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp4", "b.mp4"}, names)
}
