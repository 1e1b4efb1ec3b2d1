package parsingpool

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mikeparcewski/wicked-search/internal/adapters"
	"github.com/mikeparcewski/wicked-search/internal/discovery"
	"github.com/mikeparcewski/wicked-search/internal/types"
)

func writeFile(t *testing.T, dir, name, content string) discovery.File {
	t.Helper()
	abs := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	return discovery.File{AbsPath: abs, RelPath: name, Size: int64(len(content))}
}

type panicAdapter struct{}

func (panicAdapter) ID() string           { return "panics" }
func (panicAdapter) Extensions() []string { return []string{".boom"} }
func (panicAdapter) Parse(string, []byte) ([]types.Symbol, []types.RawReference) {
	panic("adapter exploded")
}

func TestRun_ParsesFilesAndSortsByRelPath(t *testing.T) {
	dir := t.TempDir()
	b := writeFile(t, dir, "b.rb", "def b\nend\n")
	a := writeFile(t, dir, "a.rb", "def a\nend\n")

	reg := adapters.NewRegistry()
	generics, err := adapters.NewGenericAdapters()
	require.NoError(t, err)
	for _, g := range generics {
		reg.Register(g)
	}

	pool := New(reg, 2, time.Second)
	results, err := pool.Run(context.Background(), []discovery.File{b, a})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, "a.rb", results[0].File.RelPath)
	require.Equal(t, "b.rb", results[1].File.RelPath)
	require.True(t, results[0].ParsedOK)
	require.True(t, results[1].ParsedOK)
	require.Len(t, results[0].Symbols, 1)
	require.Equal(t, "a", results[0].Symbols[0].Name)
}

func TestRun_UnmatchedExtensionIsParsedOKWithNoSymbols(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "data.unknownext", "whatever\n")

	reg := adapters.NewRegistry()
	pool := New(reg, 1, time.Second)

	results, err := pool.Run(context.Background(), []discovery.File{f})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].ParsedOK)
	require.Empty(t, results[0].Symbols)
}

func TestRun_UnreadableFileIsParsedNotOK(t *testing.T) {
	dir := t.TempDir()
	missing := discovery.File{AbsPath: filepath.Join(dir, "gone.rb"), RelPath: "gone.rb"}

	reg := adapters.NewRegistry()
	pool := New(reg, 1, time.Second)

	results, err := pool.Run(context.Background(), []discovery.File{missing})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].ParsedOK)
}

func TestRun_PanickingAdapterIsIsolatedNotFatal(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "bad.boom", "whatever\n")

	reg := adapters.NewRegistry()
	reg.Register(panicAdapter{})
	pool := New(reg, 1, time.Second)

	results, err := pool.Run(context.Background(), []discovery.File{f})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].ParsedOK)
	require.Empty(t, results[0].Symbols)
	require.Empty(t, results[0].Refs)
}

func TestNew_ClampsWorkersToAtLeastOne(t *testing.T) {
	pool := New(adapters.NewRegistry(), 0, time.Second)
	require.Equal(t, 1, pool.workers)
}
