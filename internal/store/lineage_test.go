package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

func layeredSym(path, name, qn string, typ types.SymbolType, layer types.Layer) types.Symbol {
	s := sym(path, name, qn, typ, 1)
	s.Layer = layer
	return s
}

func TestComputeLineagePaths_WalksUIAnchorToDBSink(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	view := layeredSym("login.jsp", "login", "login.jsp", types.SymbolView, types.LayerFrontend)
	controller := layeredSym("UserController.java", "login", "UserController.login", types.SymbolMethod, types.LayerBackend)
	entityField := layeredSym("User.java", "email", "User.email", types.SymbolEntityField, types.LayerDatabase)

	for _, x := range []types.Symbol{view, controller, entityField} {
		require.NoError(t, s.PutSymbols(ctx, testProject, x.FilePath, []types.Symbol{x}))
	}
	require.NoError(t, s.PutRefs(ctx, testProject, view.FilePath, []types.Reference{
		{SourceID: view.ID, TargetID: controller.ID, Type: types.RefBindsTo, Confidence: types.ConfidenceHigh},
	}))
	require.NoError(t, s.PutRefs(ctx, testProject, controller.FilePath, []types.Reference{
		{SourceID: controller.ID, TargetID: entityField.ID, Type: types.RefMapsTo, Confidence: types.ConfidenceMedium},
	}))

	paths, err := s.ComputeLineagePaths(ctx, testProject)
	require.NoError(t, err)
	require.Len(t, paths, 1)

	p := paths[0]
	require.Equal(t, view.ID, p.RootID)
	require.Equal(t, entityField.ID, p.SinkID)
	require.Equal(t, []string{view.ID, controller.ID, entityField.ID}, p.Steps)
	require.Equal(t, types.ConfidenceMedium, p.Confidence, "weakest edge along the path wins")
}

func TestComputeLineagePaths_NoPathWhenNoDatabaseLayerSymbolExists(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	view := layeredSym("page.jsx", "Page", "Page", types.SymbolComponent, types.LayerFrontend)
	require.NoError(t, s.PutSymbols(ctx, testProject, view.FilePath, []types.Symbol{view}))

	paths, err := s.ComputeLineagePaths(ctx, testProject)
	require.NoError(t, err)
	require.Empty(t, paths)
}

func TestReplaceLineagePaths_ThenLineageFindsPathBySymbolName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entityField := layeredSym("User.java", "email", "User.email", types.SymbolEntityField, types.LayerDatabase)
	require.NoError(t, s.PutSymbols(ctx, testProject, entityField.FilePath, []types.Symbol{entityField}))

	require.NoError(t, s.ReplaceLineagePaths(ctx, testProject, []types.LineagePath{
		{Project: testProject, RootID: "login.jsp::login::view@1", SinkID: entityField.ID,
			Steps: []string{"login.jsp::login::view@1", entityField.ID}, Confidence: types.ConfidenceHigh},
	}))

	found, err := s.Lineage(ctx, testProject, "email")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, entityField.ID, found[0].SinkID)
}
