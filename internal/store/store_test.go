package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const testProject = "proj"

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sym(path, name, qn string, typ types.SymbolType, lineStart int) types.Symbol {
	return types.Symbol{
		ID:            types.BuildSymbolID(path, qn, typ, lineStart),
		Name:          name,
		QualifiedName: qn,
		Type:          typ,
		Layer:         types.LayerBackend,
		FilePath:      path,
		LineStart:     lineStart,
		LineEnd:       lineStart + 5,
		Language:      "go",
		Domain:        types.DomainCode,
	}
}

func TestOpen_InMemoryMigratesSchema(t *testing.T) {
	s := openTestStore(t)
	matches, recorded, err := s.CheckSchemaVersion(context.Background(), testProject)
	require.NoError(t, err)
	require.True(t, matches)
	require.Empty(t, recorded)
}

func TestPutSymbols_GetByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := sym("a.go", "Foo", "pkg.Foo", types.SymbolFunction, 10)
	require.NoError(t, s.PutSymbols(ctx, testProject, "a.go", []types.Symbol{want}))

	got, ok, err := s.GetSymbol(ctx, testProject, want.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want.QualifiedName, got.QualifiedName)
}

func TestPutSymbols_ReplacesFileWholesale(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := sym("a.go", "Foo", "pkg.Foo", types.SymbolFunction, 10)
	require.NoError(t, s.PutSymbols(ctx, testProject, "a.go", []types.Symbol{first}))

	second := sym("a.go", "Bar", "pkg.Bar", types.SymbolFunction, 20)
	require.NoError(t, s.PutSymbols(ctx, testProject, "a.go", []types.Symbol{second}))

	_, ok, err := s.GetSymbol(ctx, testProject, first.ID)
	require.NoError(t, err)
	require.False(t, ok, "first file's prior symbols must be gone after replace")

	_, ok, err = s.GetSymbol(ctx, testProject, second.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDeleteFile_RemovesSymbolsAndRefs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := sym("a.go", "Foo", "pkg.Foo", types.SymbolFunction, 1)
	b := sym("b.go", "Bar", "pkg.Bar", types.SymbolFunction, 1)
	require.NoError(t, s.PutSymbols(ctx, testProject, "a.go", []types.Symbol{a}))
	require.NoError(t, s.PutSymbols(ctx, testProject, "b.go", []types.Symbol{b}))
	require.NoError(t, s.PutRefs(ctx, testProject, "a.go", []types.Reference{
		{SourceID: a.ID, TargetID: b.ID, Type: types.RefCalls, Confidence: types.ConfidenceHigh, Location: types.Location{FilePath: "a.go"}},
	}))

	require.NoError(t, s.DeleteFile(ctx, testProject, "a.go"))

	_, ok, err := s.GetSymbol(ctx, testProject, a.ID)
	require.NoError(t, err)
	require.False(t, ok)

	groups, err := s.Refs(ctx, testProject, a.ID)
	require.NoError(t, err)
	require.Empty(t, groups)
}

func TestSearch_TiersAreStrictFallbacks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	exact := sym("a.go", "Widget", "pkg.Widget", types.SymbolClass, 1)
	prefixed := sym("b.go", "WidgetFactory", "pkg.WidgetFactory", types.SymbolClass, 1)
	require.NoError(t, s.PutSymbols(ctx, testProject, "a.go", []types.Symbol{exact}))
	require.NoError(t, s.PutSymbols(ctx, testProject, "b.go", []types.Symbol{prefixed}))

	// Exact-name tier should win outright and exclude the prefix match.
	results, err := s.Search(ctx, testProject, "Widget", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, exact.ID, results[0].ID)
}

func TestSearch_FallsBackToPrefixTier(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	prefixed := sym("b.go", "WidgetFactory", "pkg.WidgetFactory", types.SymbolClass, 1)
	require.NoError(t, s.PutSymbols(ctx, testProject, "b.go", []types.Symbol{prefixed}))

	results, err := s.Search(ctx, testProject, "widget", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, prefixed.ID, results[0].ID)
}

func TestSearch_EmptyQueryReturnsNothing(t *testing.T) {
	s := openTestStore(t)
	results, err := s.Search(context.Background(), testProject, "", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestList_Pagination(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var syms []types.Symbol
	for i := 0; i < 5; i++ {
		syms = append(syms, sym("a.go", "Sym", "pkg.Sym", types.SymbolFunction, i+1))
	}
	require.NoError(t, s.PutSymbols(ctx, testProject, "a.go", syms))

	items, total, err := s.List(ctx, testProject, 2, 0)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, items, 2)
}

func TestTraverse_RespectsDepthAndCycles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := sym("a.go", "A", "pkg.A", types.SymbolFunction, 1)
	b := sym("b.go", "B", "pkg.B", types.SymbolFunction, 1)
	c := sym("c.go", "C", "pkg.C", types.SymbolFunction, 1)
	for _, x := range []types.Symbol{a, b, c} {
		require.NoError(t, s.PutSymbols(ctx, testProject, x.FilePath, []types.Symbol{x}))
	}
	require.NoError(t, s.PutRefs(ctx, testProject, "a.go", []types.Reference{
		{SourceID: a.ID, TargetID: b.ID, Type: types.RefCalls, Confidence: types.ConfidenceHigh},
	}))
	require.NoError(t, s.PutRefs(ctx, testProject, "b.go", []types.Reference{
		{SourceID: b.ID, TargetID: c.ID, Type: types.RefCalls, Confidence: types.ConfidenceHigh},
		{SourceID: b.ID, TargetID: a.ID, Type: types.RefCalls, Confidence: types.ConfidenceHigh}, // cycle back to a
	}))

	nodes, _, err := s.Traverse(ctx, testProject, a.ID, 3, DirectionOut)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, n := range nodes {
		ids[n.Symbol.ID] = true
	}
	require.True(t, ids[b.ID])
	require.True(t, ids[c.ID])
	require.Len(t, nodes, 2, "cycle back to a must not revisit an already-seen node")
}

func TestRefreshDegrees_And_Hotspots(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := sym("a.go", "A", "pkg.A", types.SymbolFunction, 1)
	b := sym("b.go", "B", "pkg.B", types.SymbolFunction, 1)
	c := sym("c.go", "C", "pkg.C", types.SymbolFunction, 1)
	require.NoError(t, s.PutSymbols(ctx, testProject, "a.go", []types.Symbol{a}))
	require.NoError(t, s.PutSymbols(ctx, testProject, "b.go", []types.Symbol{b}))
	require.NoError(t, s.PutSymbols(ctx, testProject, "c.go", []types.Symbol{c}))
	require.NoError(t, s.PutRefs(ctx, testProject, "a.go", []types.Reference{
		{SourceID: a.ID, TargetID: b.ID, Type: types.RefCalls, Confidence: types.ConfidenceHigh},
	}))
	require.NoError(t, s.PutRefs(ctx, testProject, "c.go", []types.Reference{
		{SourceID: c.ID, TargetID: b.ID, Type: types.RefCalls, Confidence: types.ConfidenceHigh},
	}))

	require.NoError(t, s.RefreshDegrees(ctx, testProject))

	hot, err := s.Hotspots(ctx, testProject, 10, "", "")
	require.NoError(t, err)
	require.NotEmpty(t, hot)
	require.Equal(t, b.ID, hot[0].ID, "b has the highest combined in+out degree (in_degree 2)")
}

func TestRebuild_ClearsProjectScopedRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := sym("a.go", "A", "pkg.A", types.SymbolFunction, 1)
	require.NoError(t, s.PutSymbols(ctx, testProject, "a.go", []types.Symbol{a}))
	require.NoError(t, s.UpsertProjectMeta(ctx, types.Project{Name: testProject, WorkspaceHash: "workspacehash"}))

	require.NoError(t, s.Rebuild(ctx, testProject))

	_, total, err := s.List(ctx, testProject, 50, 0)
	require.NoError(t, err)
	require.Zero(t, total)

	_, recorded, err := s.CheckSchemaVersion(ctx, testProject)
	require.NoError(t, err)
	require.Empty(t, recorded)
}
