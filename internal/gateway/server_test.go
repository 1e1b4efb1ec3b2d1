package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikeparcewski/wicked-search/internal/config"
	"github.com/mikeparcewski/wicked-search/internal/query"
	"github.com/mikeparcewski/wicked-search/internal/store"
	"github.com/mikeparcewski/wicked-search/internal/types"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewServer(query.New(s), nil, ""), s
}

func TestHandlePlugins_AlwaysIncludesWickedSearch(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/plugins", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string][]PluginStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, containsPlugin(body["plugins"], "wicked-search"))
}

func containsPlugin(plugins []PluginStatus, name string) bool {
	for _, p := range plugins {
		if p.Plugin == name {
			return true
		}
	}
	return false
}

func TestHandleVerb_UnknownVerbIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/wicked-search/wicked-search/bogus", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleVerb_UnknownPluginDegradesGracefully(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/other-plugin/src/list", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleVerb_SearchReturnsEnvelope(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()
	sym := types.Symbol{
		ID: types.BuildSymbolID("a.go", "pkg.Widget", types.SymbolClass, 1),
		Name: "Widget", QualifiedName: "pkg.Widget", Type: types.SymbolClass,
		Layer: types.LayerBackend, FilePath: "a.go", LineStart: 1, LineEnd: 2,
		Language: "go", Domain: types.DomainCode,
	}
	require.NoError(t, s.PutSymbols(ctx, types.DefaultProject, "a.go", []types.Symbol{sym}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/wicked-search/wicked-search/search?query=Widget", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, 1, env.Meta.Total)
}

func TestHandleVerb_PopulatesFreshnessFromProjectMeta(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertProjectMeta(ctx, types.Project{
		Name: types.DefaultProject, IndexedAt: 1700000000, WorkspaceHash: "abc123",
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/wicked-search/wicked-search/search?query=Widget", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, int64(1700000000), env.Meta.Freshness.IndexedAt)
	require.Equal(t, "abc123", env.Meta.Freshness.WorkspaceHash)
	require.False(t, env.Meta.Freshness.Stale, "no cfg was given to re-walk the workspace, so Stale stays false rather than guessing")
}

func TestHandleVerb_FreshnessZeroValueWhenProjectNeverIndexed(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/wicked-search/wicked-search/search?query=Widget", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Zero(t, env.Meta.Freshness.IndexedAt)
	require.Empty(t, env.Meta.Freshness.WorkspaceHash)
}

func TestHandleVerb_GetMissingIDReturnsNotFoundEnvelope(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/wicked-search/wicked-search/get?id=nope", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	require.Equal(t, "not_found", errResp.Error.Code)
}
