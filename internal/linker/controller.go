package linker

import (
	"strings"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// ControllerLinker resolves a controller method's `return "view-name"` (or
// Eloquent's `return view('posts.show')`) to the concrete View/JSPPage
// symbol that name addresses (spec.md §4.6, priority 30). It runs after
// the EL Resolver so a view resolved here can still be the target of an EL
// binding recorded against it, but before the Frontend Linker, whose
// client-side guesses are the least certain of the four. No adapter in
// this module emits returns_view edges.
type ControllerLinker struct{}

func NewControllerLinker() *ControllerLinker { return &ControllerLinker{} }

func (ControllerLinker) Name() string  { return "controller" }
func (ControllerLinker) Priority() int { return 30 }

func (ControllerLinker) LinkAll(raws []types.RawReference, table SymbolTable) []types.Reference {
	var out []types.Reference
	for _, raw := range raws {
		if raw.RefTypeHint != types.RefReturnsView {
			continue
		}
		viewName := normalizeViewName(raw.TargetExpression)
		ref := types.Reference{
			SourceID: resolveSourceID(raw, table),
			Type:     types.RefReturnsView,
			Location: types.Location{FilePath: raw.SourceFile, Line: raw.Line},
		}
		if sym, ok := table.ByQualifiedName(viewName); ok {
			ref.TargetID = sym.ID
			ref.Confidence = types.ConfidenceHigh
		} else if candidates := table.ByName(lastDotSegment(viewName)); len(candidates) > 0 {
			ref.TargetID = candidates[0].ID
			ref.Confidence = types.ConfidenceMedium
		} else {
			ref.TargetID = types.OrphanTargetSentinel
			ref.Confidence = types.ConfidenceInferred
		}
		out = append(out, ref)
	}
	return out
}

// normalizeViewName turns dotted Blade-style view references
// ("posts.show") into the slash form most templating adapters use for
// path-derived qualified names ("posts/show"), matching a plain basename
// lookup either way.
func normalizeViewName(name string) string {
	name = strings.Trim(name, "\"'")
	return strings.ReplaceAll(name, ".", "/")
}

func lastDotSegment(name string) string {
	if i := strings.LastIndexByte(name, '/'); i != -1 {
		return name[i+1:]
	}
	return name
}
