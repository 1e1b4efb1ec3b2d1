package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeparcewski/wicked-search/internal/config"
)

func newTestScanner(t *testing.T, root string) *Scanner {
	t.Helper()
	cfg := config.Default()
	cfg.Project.Root = root
	return NewScanner(cfg)
}

func writeFile(t *testing.T, dir, relPath, content string) {
	t.Helper()
	abs := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func TestWalk_DiscoversFilesInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.go", "package b\n")
	writeFile(t, dir, "a.go", "package a\n")
	writeFile(t, dir, "sub/c.go", "package c\n")

	files, err := newTestScanner(t, dir).Walk()
	require.NoError(t, err)
	require.Len(t, files, 3)

	var relPaths []string
	for _, f := range files {
		relPaths = append(relPaths, f.RelPath)
	}
	assert.Equal(t, []string{"a.go", "b.go", "sub/c.go"}, relPaths)
}

func TestWalk_SkipsBuiltinExclusions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "vendor/dep/dep.go", "package dep\n")
	writeFile(t, dir, ".git/HEAD", "ref: refs/heads/main\n")

	files, err := newTestScanner(t, dir).Walk()
	require.NoError(t, err)

	var relPaths []string
	for _, f := range files {
		relPaths = append(relPaths, f.RelPath)
	}
	assert.Equal(t, []string{"main.go"}, relPaths)
}

func TestWalk_SkipsFilesOverMaxFileSize(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Project.Root = dir
	cfg.Index.MaxFileSize = 4

	writeFile(t, dir, "small.go", "pkg\n")
	writeFile(t, dir, "large.go", "this content is far longer than four bytes\n")

	files, err := NewScanner(cfg).Walk()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "small.go", files[0].RelPath)
}

func TestWalk_SkipsBinaryExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.go", "package notes\n")
	writeFile(t, dir, "photo.png", "\x89PNG\r\n\x1a\n")

	files, err := newTestScanner(t, dir).Walk()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "notes.go", files[0].RelPath)
}

func TestWalk_RespectsGitignoreWhenEnabled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "ignored.go\n")
	writeFile(t, dir, "ignored.go", "package ignored\n")
	writeFile(t, dir, "kept.go", "package kept\n")

	files, err := newTestScanner(t, dir).Walk()
	require.NoError(t, err)

	var relPaths []string
	for _, f := range files {
		relPaths = append(relPaths, f.RelPath)
	}
	assert.Equal(t, []string{".gitignore", "kept.go"}, relPaths)
}

func TestWalk_IgnoresGitignoreWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "ignored.go\n")
	writeFile(t, dir, "ignored.go", "package ignored\n")

	cfg := config.Default()
	cfg.Project.Root = dir
	cfg.Index.RespectGitignore = false

	files, err := NewScanner(cfg).Walk()
	require.NoError(t, err)

	var relPaths []string
	for _, f := range files {
		relPaths = append(relPaths, f.RelPath)
	}
	assert.Contains(t, relPaths, "ignored.go")
}

func TestDiff_ClassifiesAddedModifiedUnchangedAndRemoved(t *testing.T) {
	current := []File{
		{RelPath: "a.go", ContentHash: "hash-a-v2"},
		{RelPath: "b.go", ContentHash: "hash-b"},
		{RelPath: "c.go", ContentHash: "hash-c"},
	}
	previous := map[string]string{
		"a.go": "hash-a-v1",
		"b.go": "hash-b",
		"d.go": "hash-d",
	}

	cs := Diff(current, previous)

	require.Len(t, cs.Added, 1)
	assert.Equal(t, "c.go", cs.Added[0].RelPath)
	require.Len(t, cs.Modified, 1)
	assert.Equal(t, "a.go", cs.Modified[0].RelPath)
	require.Len(t, cs.Unchanged, 1)
	assert.Equal(t, "b.go", cs.Unchanged[0].RelPath)
	assert.Equal(t, []string{"d.go"}, cs.Removed)
}

func TestDiff_EmptyPreviousMarksEverythingAdded(t *testing.T) {
	current := []File{{RelPath: "a.go", ContentHash: "h1"}}
	cs := Diff(current, map[string]string{})

	assert.Len(t, cs.Added, 1)
	assert.Empty(t, cs.Modified)
	assert.Empty(t, cs.Unchanged)
	assert.Empty(t, cs.Removed)
}

func TestWorkspaceHash_IsStableAcrossEquivalentInput(t *testing.T) {
	files := []File{
		{RelPath: "a.go", ContentHash: "hash-a"},
		{RelPath: "b.go", ContentHash: "hash-b"},
	}
	reordered := []File{
		{RelPath: "b.go", ContentHash: "hash-b"},
		{RelPath: "a.go", ContentHash: "hash-a"},
	}

	assert.Equal(t, WorkspaceHash(files), WorkspaceHash(reordered))
}

func TestWorkspaceHash_ChangesWhenContentHashChanges(t *testing.T) {
	base := []File{{RelPath: "a.go", ContentHash: "hash-a"}}
	changed := []File{{RelPath: "a.go", ContentHash: "hash-a-modified"}}

	assert.NotEqual(t, WorkspaceHash(base), WorkspaceHash(changed))
}
