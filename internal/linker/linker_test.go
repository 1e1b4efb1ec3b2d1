package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubTable is a minimal in-memory SymbolTable for linker tests.
type stubTable struct {
	byID map[string]types.Symbol
	byQN map[string]types.Symbol
	byN  map[string][]types.Symbol
}

func newStubTable(syms ...types.Symbol) *stubTable {
	t := &stubTable{byID: map[string]types.Symbol{}, byQN: map[string]types.Symbol{}, byN: map[string][]types.Symbol{}}
	for _, s := range syms {
		t.byID[s.ID] = s
		t.byQN[s.QualifiedName] = s
		t.byN[s.Name] = append(t.byN[s.Name], s)
	}
	return t
}

func (t *stubTable) ByID(id string) (types.Symbol, bool)            { s, ok := t.byID[id]; return s, ok }
func (t *stubTable) ByQualifiedName(n string) (types.Symbol, bool)   { s, ok := t.byQN[n]; return s, ok }
func (t *stubTable) ByName(n string) []types.Symbol                 { return t.byN[n] }

func TestCallImportLinker_ExactQualifiedMatch(t *testing.T) {
	table := newStubTable(types.Symbol{ID: "a.go::Foo::function@1", Name: "Foo", QualifiedName: "pkg.Foo"})
	l := NewCallImportLinker()

	raws := []types.RawReference{{SourceQualifiedName: "pkg.Bar", TargetExpression: "pkg.Foo", RefTypeHint: types.RefCalls, Line: 5}}
	refs := l.LinkAll(raws, table)

	require.Len(t, refs, 1)
	assert.Equal(t, "a.go::Foo::function@1", refs[0].TargetID)
	assert.Equal(t, types.ConfidenceHigh, refs[0].Confidence)
}

func TestCallImportLinker_OrphanWhenUnresolved(t *testing.T) {
	table := newStubTable()
	l := NewCallImportLinker()

	raws := []types.RawReference{{SourceQualifiedName: "pkg.Bar", TargetExpression: "nothing.Here", RefTypeHint: types.RefCalls}}
	refs := l.LinkAll(raws, table)

	require.Len(t, refs, 1)
	assert.True(t, refs[0].IsOrphan())
	assert.Equal(t, types.ConfidenceInferred, refs[0].Confidence)
}

func TestCallImportLinker_IgnoresUnhandledRefTypes(t *testing.T) {
	table := newStubTable()
	l := NewCallImportLinker()

	raws := []types.RawReference{{SourceQualifiedName: "x", TargetExpression: "y", RefTypeHint: types.RefBindsTo}}
	assert.Empty(t, l.LinkAll(raws, table))
}

func TestELResolver_ResolvesCamelCaseRootToClass(t *testing.T) {
	table := newStubTable(types.Symbol{ID: "svc", Name: "UserService", QualifiedName: "com.app.UserService"})
	l := NewELResolver()

	raws := []types.RawReference{{
		SourceQualifiedName: "page.jsp",
		TargetExpression:    "${userService.currentUser.name}",
		RefTypeHint:         types.RefBindsTo,
		Line:                3,
	}}
	refs := l.LinkAll(raws, table)

	require.Len(t, refs, 1)
	assert.Equal(t, "svc", refs[0].TargetID)
	assert.Equal(t, types.ConfidenceMedium, refs[0].Confidence)
	assert.Equal(t, "userService.currentUser.name", refs[0].Metadata["expression"])
}

func TestELResolver_OrphanWhenRootUnknown(t *testing.T) {
	table := newStubTable()
	l := NewELResolver()

	raws := []types.RawReference{{SourceQualifiedName: "page.jsp", TargetExpression: "${mystery.field}", RefTypeHint: types.RefBindsTo}}
	refs := l.LinkAll(raws, table)

	require.Len(t, refs, 1)
	assert.True(t, refs[0].IsOrphan())
	assert.Equal(t, types.ConfidenceInferred, refs[0].Confidence)
}

func TestControllerLinker_ResolvesDottedViewName(t *testing.T) {
	table := newStubTable(types.Symbol{ID: "view1", Name: "show", QualifiedName: "posts/show"})
	l := NewControllerLinker()

	raws := []types.RawReference{{
		SourceQualifiedName: "PostController.show",
		TargetExpression:    "posts.show",
		RefTypeHint:         types.RefReturnsView,
	}}
	refs := l.LinkAll(raws, table)

	require.Len(t, refs, 1)
	assert.Equal(t, "view1", refs[0].TargetID)
	assert.Equal(t, types.ConfidenceHigh, refs[0].Confidence)
}

func TestFrontendLinker_ResolvesKebabCaseComponentTag(t *testing.T) {
	table := newStubTable(types.Symbol{ID: "c1", Name: "UserCard", QualifiedName: "components/UserCard"})
	l := NewFrontendLinker()

	raws := []types.RawReference{{SourceQualifiedName: "Page.vue", TargetExpression: "<user-card>", RefTypeHint: types.RefRenders}}
	refs := l.LinkAll(raws, table)

	require.Len(t, refs, 1)
	assert.Equal(t, "c1", refs[0].TargetID)
	assert.Equal(t, types.ConfidenceMedium, refs[0].Confidence)
}

func TestCallImportLinker_ResolvesDocumentMention(t *testing.T) {
	table := newStubTable(types.Symbol{ID: "w1", Name: "WidgetFactory", QualifiedName: "pkg.WidgetFactory"})
	l := NewCallImportLinker()

	raws := []types.RawReference{{
		SourceQualifiedName: "README.md", SourceFile: "README.md",
		TargetExpression: "WidgetFactory", RefTypeHint: types.RefDocuments, Line: 4,
	}}
	refs := l.LinkAll(raws, table)

	require.Len(t, refs, 1)
	assert.Equal(t, "w1", refs[0].TargetID)
	assert.Equal(t, types.ConfidenceMedium, refs[0].Confidence)
}

func TestCallImportLinker_UsesSourceSymbolIDWhenAdapterSetIt(t *testing.T) {
	table := newStubTable(types.Symbol{ID: "a.go::pkg.Bar::function@1", Name: "Bar", QualifiedName: "pkg.Bar"})
	l := NewCallImportLinker()

	raws := []types.RawReference{{
		SourceQualifiedName: "pkg.Bar", SourceSymbolID: "a.go::pkg.Bar::function@1",
		TargetExpression: "nothing.Here", RefTypeHint: types.RefCalls,
	}}
	refs := l.LinkAll(raws, table)

	require.Len(t, refs, 1)
	assert.Equal(t, "a.go::pkg.Bar::function@1", refs[0].SourceID)
}

func TestCallImportLinker_ResolvesSourceQualifiedNameAgainstSymbolTable(t *testing.T) {
	table := newStubTable(types.Symbol{ID: "a.go::pkg.Bar::method@3", Name: "Bar", QualifiedName: "pkg.Bar"})
	l := NewCallImportLinker()

	raws := []types.RawReference{{
		SourceQualifiedName: "pkg.Bar",
		TargetExpression:    "nothing.Here", RefTypeHint: types.RefCalls,
	}}
	refs := l.LinkAll(raws, table)

	require.Len(t, refs, 1)
	assert.Equal(t, "a.go::pkg.Bar::method@3", refs[0].SourceID)
	assert.NotEqual(t, "pkg.Bar", refs[0].SourceID)
}

func TestCallImportLinker_FallsBackToRawNameWhenSourceUnresolvable(t *testing.T) {
	table := newStubTable()
	l := NewCallImportLinker()

	raws := []types.RawReference{{SourceQualifiedName: "README.md", TargetExpression: "nothing.Here", RefTypeHint: types.RefCalls}}
	refs := l.LinkAll(raws, table)

	require.Len(t, refs, 1)
	assert.Equal(t, "README.md", refs[0].SourceID)
}

func TestRegistry_ConflictResolutionPrefersHigherConfidence(t *testing.T) {
	table := newStubTable(
		types.Symbol{ID: "svc", Name: "UserService", QualifiedName: "com.app.UserService"},
	)
	r := NewRegistry()
	r.Register(NewFrontendLinker()) // priority 40, loose binding: inferred confidence
	r.Register(NewELResolver())     // priority 20, bean-name match: medium confidence

	// Both linkers resolve this binds_to edge to the same source, target and
	// type, so the registry must keep exactly one: the medium-confidence one.
	raws := []types.RawReference{{SourceQualifiedName: "src", TargetExpression: "UserService.name", RefTypeHint: types.RefBindsTo}}
	refs := r.LinkAll(raws, table)

	require.Len(t, refs, 1)
	assert.Equal(t, "svc", refs[0].TargetID)
	assert.Equal(t, types.ConfidenceMedium, refs[0].Confidence)
}

func TestRegistry_DistinctSourcesNeverCollapse(t *testing.T) {
	table := newStubTable()
	r := NewRegistry()
	r.Register(NewCallImportLinker())

	raws := []types.RawReference{
		{SourceQualifiedName: "a", TargetExpression: "missing.One", RefTypeHint: types.RefCalls, Line: 1},
		{SourceQualifiedName: "b", TargetExpression: "missing.Two", RefTypeHint: types.RefCalls, Line: 2},
	}
	refs := r.LinkAll(raws, table)

	assert.Len(t, refs, 2)
	for _, ref := range refs {
		assert.True(t, ref.IsOrphan())
	}
}

func TestCallImportLinker_PropagatesSourceFileToLocation(t *testing.T) {
	table := newStubTable()
	l := NewCallImportLinker()

	raws := []types.RawReference{{
		SourceQualifiedName: "pkg.Bar", SourceFile: "pkg/bar.go",
		TargetExpression: "nothing.Here", RefTypeHint: types.RefCalls, Line: 7,
	}}
	refs := l.LinkAll(raws, table)

	require.Len(t, refs, 1)
	assert.Equal(t, "pkg/bar.go", refs[0].Location.FilePath)
	assert.Equal(t, 7, refs[0].Location.Line)
}

func TestRegistry_LinkersReturnsInPriorityOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(NewFrontendLinker())
	r.Register(NewCallImportLinker())
	r.Register(NewControllerLinker())
	r.Register(NewELResolver())

	linkers := r.Linkers()
	require.Len(t, linkers, 4)
	for i := 1; i < len(linkers); i++ {
		assert.Less(t, linkers[i-1].Priority(), linkers[i].Priority())
	}
}
