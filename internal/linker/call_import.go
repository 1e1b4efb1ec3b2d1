package linker

import (
	"path"
	"strings"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// CallImportLinker is the baseline, highest-priority (lowest number)
// linker: calls, imports, extends, implements, depends_on, maps_to and
// documents raw references produced by every structural/ORM adapter plus
// ScanMentions. It resolves purely on name, so it runs first and any
// later, more context-aware linker only needs to improve on what this one
// already found.
type CallImportLinker struct{}

func NewCallImportLinker() *CallImportLinker { return &CallImportLinker{} }

func (CallImportLinker) Name() string  { return "call_import" }
func (CallImportLinker) Priority() int { return 10 }

var handledTypes = map[types.RefType]bool{
	types.RefCalls:      true,
	types.RefImports:    true,
	types.RefExtends:    true,
	types.RefImplements: true,
	types.RefDependsOn:  true,
	types.RefMapsTo:     true,
	types.RefDocuments:  true,
}

func (l CallImportLinker) LinkAll(raws []types.RawReference, table SymbolTable) []types.Reference {
	out := make([]types.Reference, 0, len(raws))
	for _, raw := range raws {
		if !handledTypes[raw.RefTypeHint] {
			continue
		}
		out = append(out, resolveByName(raw, table))
	}
	return out
}

// resolveByName is the shared exact-then-fuzzy resolution ladder: an
// exact qualified-name hit is high confidence; a unique simple-name match
// is medium; multiple candidates picks the first deterministically (by
// ID) at low confidence; no match at all is kept as an orphan.
func resolveByName(raw types.RawReference, table SymbolTable) types.Reference {
	ref := types.Reference{
		SourceID: resolveSourceID(raw, table),
		Type:     raw.RefTypeHint,
		Location: types.Location{FilePath: raw.SourceFile, Line: raw.Line},
	}

	if sym, ok := table.ByQualifiedName(raw.TargetExpression); ok {
		ref.TargetID = sym.ID
		ref.Confidence = types.ConfidenceHigh
		return ref
	}

	simple := lastSegment(raw.TargetExpression)
	candidates := table.ByName(simple)
	switch len(candidates) {
	case 0:
		ref.TargetID = types.OrphanTargetSentinel
		ref.Confidence = types.ConfidenceInferred
	case 1:
		ref.TargetID = candidates[0].ID
		ref.Confidence = types.ConfidenceMedium
	default:
		sorted := append([]types.Symbol(nil), candidates...)
		sortByID(sorted)
		ref.TargetID = sorted[0].ID
		ref.Confidence = types.ConfidenceLow
	}
	return ref
}

func lastSegment(expr string) string {
	expr = strings.Trim(expr, "\"'`")
	if i := strings.LastIndexAny(expr, "./\\:"); i != -1 {
		return expr[i+1:]
	}
	return path.Base(expr)
}

func sortByID(syms []types.Symbol) {
	for i := 1; i < len(syms); i++ {
		for j := i; j > 0 && syms[j].ID < syms[j-1].ID; j-- {
			syms[j], syms[j-1] = syms[j-1], syms[j]
		}
	}
}
