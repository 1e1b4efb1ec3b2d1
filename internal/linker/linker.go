// Package linker implements the Linker Registry (spec.md §4.6): a
// priority-ordered set of plugins that turn a file set's RawReferences
// into typed, resolved References against the project's symbol table.
// Grounded on the teacher's internal/symbollinker package's
// interface-plus-registry shape, generalized from "one linker per
// language" to "one linker per cross-cutting resolution concern" (calls,
// EL expressions, controller return-view, frontend bindings).
package linker

import (
	"sort"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// SymbolTable is the read-only lookup surface a Linker needs: exact-name
// and exact-id resolution against every symbol discovered so far. The
// Unified Store implements this directly; tests use an in-memory stub.
type SymbolTable interface {
	ByQualifiedName(name string) (types.Symbol, bool)
	ByName(name string) []types.Symbol
	ByID(id string) (types.Symbol, bool)
}

// resolveSourceID turns a RawReference's source attribution into the
// Symbol.ID every linker stores as Reference.SourceID. SourceSymbolID, when
// the adapter set it, is already the enclosing Symbol's real ID and is used
// as-is. Otherwise SourceQualifiedName is looked up against the symbol
// table the same way TargetExpression already is, so the stored source_id
// is a real "file_path::qualified_name::type@line" row, never a bare
// display name. Falling back to the raw qualified name when no symbol
// matches keeps a still-unresolvable edge (e.g. a doc mention's
// pseudo-identity) around as an honest orphan instead of panicking or
// dropping it.
func resolveSourceID(raw types.RawReference, table SymbolTable) string {
	if raw.SourceSymbolID != "" {
		return raw.SourceSymbolID
	}
	if raw.SourceQualifiedName == "" {
		return ""
	}
	if sym, ok := table.ByQualifiedName(raw.SourceQualifiedName); ok {
		return sym.ID
	}
	return raw.SourceQualifiedName
}

// Linker resolves a batch of RawReferences into References. Priority
// controls both run order and conflict-resolution tie-breaking: spec.md
// §4.7 says the highest-confidence Reference for a given (source, target,
// type) triple wins, and on an exact tie the lowest-priority linker's
// answer wins, so an EL Resolver (20) beats a Frontend Linker (40) guess.
type Linker interface {
	Name() string
	Priority() int
	LinkAll(raws []types.RawReference, table SymbolTable) []types.Reference
}

// Registry runs every registered Linker in priority order and applies the
// conflict-resolution rule across their combined output.
type Registry struct {
	linkers []Linker
}

func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) Register(l Linker) {
	r.linkers = append(r.linkers, l)
	sort.SliceStable(r.linkers, func(i, j int) bool { return r.linkers[i].Priority() < r.linkers[j].Priority() })
}

// Linkers returns the registered linkers in priority order, for tests and
// for the orchestrator's progress reporting.
func (r *Registry) Linkers() []Linker {
	out := make([]Linker, len(r.linkers))
	copy(out, r.linkers)
	return out
}

// conflictKey identifies references competing for the same edge: same
// source, same resolved target ID and same type. Two linkers resolving the
// same raw edge to different confidences/targets are conflicting answers
// about the same fact, not two distinct facts.
type conflictKey struct {
	source string
	target string
	typ    types.RefType
}

// LinkAll runs every registered linker over raws and reduces the combined
// output to one Reference per conflictKey: highest confidence wins; ties
// break toward the lower-priority (earlier-run) linker, per spec.md §4.7.
// Orphan references (unresolved target) are never dropped — they are kept
// as-is when no linker could resolve a raw edge at all.
func (r *Registry) LinkAll(raws []types.RawReference, table SymbolTable) []types.Reference {
	type winner struct {
		ref      types.Reference
		priority int
	}
	best := make(map[conflictKey]winner)
	var order []conflictKey

	for _, l := range r.linkers {
		for _, ref := range l.LinkAll(raws, table) {
			key := conflictKey{source: ref.SourceID, target: ref.TargetID, typ: ref.Type}
			if key.target == types.OrphanTargetSentinel {
				key.target = "<orphan>:" + ref.Location.FilePath
			}
			existing, ok := best[key]
			if !ok {
				best[key] = winner{ref: ref, priority: l.Priority()}
				order = append(order, key)
				continue
			}
			if types.HigherConfidence(ref.Confidence, existing.ref.Confidence) {
				best[key] = winner{ref: ref, priority: l.Priority()}
			}
			// Equal confidence: the earlier (lower-priority) linker that
			// already won stays the winner — do nothing.
		}
	}

	out := make([]types.Reference, 0, len(order))
	for _, key := range order {
		out = append(out, best[key].ref)
	}
	return out
}
