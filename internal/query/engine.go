// Package query implements the Query Engine (spec.md §4.9): the verb
// surface the Data API Gateway and the CLI mirror both call into. Every
// verb is a thin composition over the Unified Store; the only genuine
// logic here is `impact`, the one composed verb spec.md calls out
// explicitly (search, then blast_radius, then lineage, merged into one
// report).
package query

import (
	"context"

	"github.com/mikeparcewski/wicked-search/internal/obs"
	"github.com/mikeparcewski/wicked-search/internal/store"
	"github.com/mikeparcewski/wicked-search/internal/types"
)

// Engine answers every query verb against one Store.
type Engine struct {
	store *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

func resolveProject(project string) string {
	if project == "" {
		return types.DefaultProject
	}
	return project
}

// List implements `list(source)`.
func (e *Engine) List(ctx context.Context, project string, limit, offset int) ([]types.Symbol, int, error) {
	return e.store.List(ctx, resolveProject(project), limit, offset)
}

// Get implements `get(source, id)`.
func (e *Engine) Get(ctx context.Context, project, id string) (types.Symbol, bool, error) {
	return e.store.GetSymbol(ctx, resolveProject(project), id)
}

// Search implements `search(source, query)`.
func (e *Engine) Search(ctx context.Context, project, q string, limit int) ([]types.Symbol, error) {
	return e.store.Search(ctx, resolveProject(project), q, limit)
}

// Stats implements `stats(source)`.
func (e *Engine) Stats(ctx context.Context, project string) (store.Stats, error) {
	return e.store.Stats(ctx, resolveProject(project))
}

// ProjectMeta exposes the Unified Store's project_meta row so the Gateway
// can populate every response's `meta.freshness` (spec.md §7, testable
// property 9) without reaching past the Query Engine into the store.
func (e *Engine) ProjectMeta(ctx context.Context, project string) (types.Project, bool, error) {
	return e.store.GetProjectMeta(ctx, resolveProject(project))
}

// Refs implements `refs(id)`, resolving a bare name via Search first when
// id doesn't look like a fully-qualified symbol id (spec.md §4.9: "accepts
// a symbol name and resolves via search fallback").
func (e *Engine) Refs(ctx context.Context, project, idOrName string) (map[string]store.RefGroup, error) {
	project = resolveProject(project)
	id, err := e.resolveToID(ctx, project, idOrName)
	if err != nil {
		return nil, err
	}
	return e.store.Refs(ctx, project, id)
}

// Traverse implements `traverse(id, depth, direction)`.
func (e *Engine) Traverse(ctx context.Context, project, idOrName string, depth int, direction store.TraverseDirection) ([]store.TraverseNode, []store.TraverseEdge, error) {
	project = resolveProject(project)
	id, err := e.resolveToID(ctx, project, idOrName)
	if err != nil {
		return nil, nil, err
	}
	return e.store.Traverse(ctx, project, id, depth, direction)
}

// BlastRadius implements `blast_radius(id, depth)`.
func (e *Engine) BlastRadius(ctx context.Context, project, idOrName string, depth int) ([]store.BlastRadiusGroup, error) {
	project = resolveProject(project)
	id, err := e.resolveToID(ctx, project, idOrName)
	if err != nil {
		return nil, err
	}
	return e.store.BlastRadius(ctx, project, id, depth)
}

// Hotspots implements `hotspots(limit, filters)`.
func (e *Engine) Hotspots(ctx context.Context, project string, limit int, layer, symType string) ([]types.Symbol, error) {
	return e.store.Hotspots(ctx, resolveProject(project), limit, layer, symType)
}

// Lineage implements `lineage(symbol_name)`.
func (e *Engine) Lineage(ctx context.Context, project, symbolName string) ([]types.LineagePath, error) {
	return e.store.Lineage(ctx, resolveProject(project), symbolName)
}

// ServiceMap implements `service_map()`.
func (e *Engine) ServiceMap(ctx context.Context, project string) ([]types.ServiceNode, []types.ServiceConnection, error) {
	return e.store.ServiceMap(ctx, resolveProject(project))
}

// Categories implements `categories()`.
func (e *Engine) Categories(ctx context.Context, project string) ([]store.Category, error) {
	return e.store.Categories(ctx, resolveProject(project))
}

// Content implements `content(id)`.
func (e *Engine) Content(ctx context.Context, project, idOrName, workspaceRoot string) (string, error) {
	project = resolveProject(project)
	id, err := e.resolveToID(ctx, project, idOrName)
	if err != nil {
		return "", err
	}
	return e.store.Content(ctx, project, id, workspaceRoot)
}

// ImpactReport is the structured result of the `impact(symbol_name)`
// composed verb.
type ImpactReport struct {
	Symbol      types.Symbol              `json:"symbol"`
	BlastRadius []store.BlastRadiusGroup  `json:"blast_radius"`
	Lineage     []types.LineagePath       `json:"lineage"`
}

// Impact implements `impact(symbol_name)`: search → blast_radius
// (direction=in) + lineage touching the resolved symbol, merged into one
// report (spec.md §4.9).
func (e *Engine) Impact(ctx context.Context, project, symbolName string, depth int) (ImpactReport, error) {
	project = resolveProject(project)
	syms, err := e.store.Search(ctx, project, symbolName, 1)
	if err != nil {
		return ImpactReport{}, obs.Storage(err, "impact: search")
	}
	if len(syms) == 0 {
		return ImpactReport{}, e.notFound(ctx, project, symbolName)
	}
	sym := syms[0]

	radius, err := e.store.BlastRadius(ctx, project, sym.ID, depth)
	if err != nil {
		return ImpactReport{}, obs.Storage(err, "impact: blast_radius")
	}
	lineage, err := e.store.Lineage(ctx, project, sym.Name)
	if err != nil {
		return ImpactReport{}, obs.Storage(err, "impact: lineage")
	}

	return ImpactReport{Symbol: sym, BlastRadius: radius, Lineage: lineage}, nil
}

// resolveToID treats idOrName as a symbol id if it already round-trips
// through GetSymbol; otherwise it falls back to Search and takes the
// top-ranked hit, matching spec.md §4.9's "accepts a name and resolves
// via search" notes on refs/traverse/blast_radius. A total miss returns a
// KindNotFound *obs.Error carrying a fuzzy-tier suggestion list.
func (e *Engine) resolveToID(ctx context.Context, project, idOrName string) (string, error) {
	if _, ok, err := e.store.GetSymbol(ctx, project, idOrName); err == nil && ok {
		return idOrName, nil
	}
	syms, err := e.store.Search(ctx, project, idOrName, 1)
	if err != nil {
		return "", obs.Storage(err, "resolve %q", idOrName)
	}
	if len(syms) == 0 {
		return "", e.notFound(ctx, project, idOrName)
	}
	return syms[0].ID, nil
}

// notFound builds a KindNotFound error enriched with the closest known
// symbol names, per spec.md §7's "suggestion list from the search-engine
// fuzzy tier when the caller provided a name".
func (e *Engine) notFound(ctx context.Context, project, query string) error {
	suggestions, suggestErr := e.store.Suggest(ctx, project, query, 5)
	if suggestErr != nil {
		return obs.NotFound("no symbol matches %q", query)
	}
	return obs.NotFoundWithSuggestions(suggestions, "no symbol matches %q", query)
}
