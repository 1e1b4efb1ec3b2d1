package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeparcewski/wicked-search/internal/config"
	"github.com/mikeparcewski/wicked-search/internal/store"
	"github.com/mikeparcewski/wicked-search/internal/types"
)

func newTestOrchestrator(t *testing.T, root string) (*Orchestrator, *store.Store) {
	t.Helper()
	cfg := config.Default()
	cfg.Project.Root = root
	cfg.Index.ParseTimeoutSec = 5

	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return New(cfg, st), st
}

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	abs := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func TestIndex_FullRunParsesSymbolsAndPersistsMeta(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "widget.rb", "def make_widget\nend\n")
	writeFile(t, root, "gadget.rb", "require 'widget'\ndef make_gadget\n  make_widget\nend\n")

	orc, st := newTestOrchestrator(t, root)
	ctx := context.Background()

	result, err := orc.Index(ctx, types.DefaultProject, true)
	require.NoError(t, err)
	require.Equal(t, 2, result.FilesWalked)
	require.Equal(t, 2, result.FilesAdded)
	require.Equal(t, 2, result.Symbols)
	require.NotEmpty(t, result.WorkspaceHash)

	syms, total, err := st.List(ctx, types.DefaultProject, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, syms, 2)

	stats, err := st.Stats(ctx, types.DefaultProject)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Total)
}

func TestIndex_IncrementalFastPathSkipsUnchangedTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "widget.rb", "def make_widget\nend\n")

	orc, _ := newTestOrchestrator(t, root)
	ctx := context.Background()

	_, err := orc.Index(ctx, types.DefaultProject, true)
	require.NoError(t, err)

	result, err := orc.Index(ctx, types.DefaultProject, true)
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesSkipped)
	require.Zero(t, result.FilesAdded)
	require.Zero(t, result.FilesModified)
}

func TestIndex_IncrementalReparsesOnlyModifiedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "widget.rb", "def make_widget\nend\n")
	writeFile(t, root, "gadget.rb", "def make_gadget\nend\n")

	orc, st := newTestOrchestrator(t, root)
	ctx := context.Background()

	_, err := orc.Index(ctx, types.DefaultProject, true)
	require.NoError(t, err)

	writeFile(t, root, "widget.rb", "def make_widget\nend\n\ndef make_widget2\nend\n")

	result, err := orc.Index(ctx, types.DefaultProject, true)
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesModified)
	require.Equal(t, 1, result.FilesSkipped)

	syms, total, err := st.List(ctx, types.DefaultProject, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, syms, 3)
}

func TestIndex_RemovedFileDropsItsSymbols(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "widget.rb", "def make_widget\nend\n")
	widgetPath := filepath.Join(root, "widget.rb")

	orc, st := newTestOrchestrator(t, root)
	ctx := context.Background()

	_, err := orc.Index(ctx, types.DefaultProject, true)
	require.NoError(t, err)

	require.NoError(t, os.Remove(widgetPath))

	result, err := orc.Index(ctx, types.DefaultProject, true)
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesRemoved)

	_, total, err := st.List(ctx, types.DefaultProject, 10, 0)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestIndex_RemovedFileDropsOnlyItsOwnRefs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.rb", "def a\nend\n")
	writeFile(t, root, "b.rb", "require 'a'\n")
	bPath := filepath.Join(root, "b.rb")

	orc, st := newTestOrchestrator(t, root)
	ctx := context.Background()

	_, err := orc.Index(ctx, types.DefaultProject, true)
	require.NoError(t, err)

	syms, _, err := st.List(ctx, types.DefaultProject, 10, 0)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	aID := syms[0].ID

	groups, err := st.Refs(ctx, types.DefaultProject, aID)
	require.NoError(t, err)
	require.Contains(t, groups, "imported_by")
	require.Len(t, groups["imported_by"].Reverse, 1)
	require.Equal(t, "b.rb", groups["imported_by"].Reverse[0].Location.FilePath)

	require.NoError(t, os.Remove(bPath))
	_, err = orc.Index(ctx, types.DefaultProject, true)
	require.NoError(t, err)

	groups, err = st.Refs(ctx, types.DefaultProject, aID)
	require.NoError(t, err)
	require.Empty(t, groups["imported_by"].Reverse)
}
