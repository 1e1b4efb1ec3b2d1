package types

// RefType is the canonical, plural, lowercase reference-type vocabulary.
// History had a singular/plural drift ("calls" vs "call"); this is the
// single spelling callers must normalize to (see NormalizeRefType).
type RefType string

const (
	RefCalls        RefType = "calls"
	RefImports      RefType = "imports"
	RefExtends      RefType = "extends"
	RefImplements   RefType = "implements"
	RefDependsOn    RefType = "depends_on"
	RefBindsTo      RefType = "binds_to"
	RefMapsTo       RefType = "maps_to"
	RefReturnsView  RefType = "returns_view"
	RefRenders      RefType = "renders"
	RefDocuments    RefType = "documents"
	RefReadsFrom    RefType = "reads_from"
	RefWritesTo     RefType = "writes_to"
)

// legacySingular maps the historical singular spellings onto the canonical
// plural ones, so a stray linker or a pre-migration snapshot can't reinject
// the drift spec.md's Open Questions section calls out.
var legacySingular = map[string]RefType{
	"call":        RefCalls,
	"import":      RefImports,
	"extend":      RefExtends,
	"implement":   RefImplements,
	"depend_on":   RefDependsOn,
	"bind_to":     RefBindsTo,
	"map_to":      RefMapsTo,
	"return_view": RefReturnsView,
	"render":      RefRenders,
	"document":    RefDocuments,
	"read_from":   RefReadsFrom,
	"write_to":    RefWritesTo,
}

// NormalizeRefType maps any historical spelling to the canonical plural one.
func NormalizeRefType(s string) RefType {
	if canonical, ok := legacySingular[s]; ok {
		return canonical
	}
	return RefType(s)
}

// Confidence is the linker's resolution confidence for a Reference.
type Confidence string

const (
	ConfidenceHigh     Confidence = "high"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceLow      Confidence = "low"
	ConfidenceInferred Confidence = "inferred"
)

// confidenceRank orders confidence tiers so conflict resolution (§4.7:
// highest confidence wins) can compare them.
var confidenceRank = map[Confidence]int{
	ConfidenceHigh:     3,
	ConfidenceMedium:   2,
	ConfidenceLow:      1,
	ConfidenceInferred: 0,
}

// HigherConfidence reports whether a outranks b.
func HigherConfidence(a, b Confidence) bool {
	return confidenceRank[a] > confidenceRank[b]
}

// Location pinpoints where a reference was observed in source.
type Location struct {
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
}

// OrphanTargetSentinel is the null-sentinel target_id for a Reference whose
// target could not be resolved to any indexed Symbol. It is stored as an
// empty string in the database (NULL via LEFT JOIN semantics) but linker
// code compares against this constant for readability.
const OrphanTargetSentinel = ""

// Reference is a directed, typed edge between two Symbols, possibly with an
// unresolved (orphan) target. Orphan refs are never dropped: they are the
// evidence that a dependency exists outside the indexed scope.
type Reference struct {
	SourceID   string                 `json:"source_id"`
	TargetID   string                 `json:"target_id,omitempty"`
	Type       RefType                `json:"type"`
	Confidence Confidence             `json:"confidence"`
	Location   Location               `json:"location"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// IsOrphan reports whether this Reference's target did not resolve.
func (r Reference) IsOrphan() bool {
	return r.TargetID == OrphanTargetSentinel
}

// RawReference is what an Adapter emits before linking: a textual target
// expression the Linker Registry resolves into a concrete Reference.
type RawReference struct {
	SourceQualifiedName string
	SourceFile          string
	// SourceSymbolID is the enclosing Symbol's real ID when the adapter
	// already has it on hand at emission time (a tree-sitter container's
	// computed ID, an ORM adapter's just-built entity/field Symbol) — set
	// this instead of leaving the Linker Registry to guess one from
	// SourceQualifiedName, which is a display name, not a Symbol.ID.
	SourceSymbolID   string
	TargetExpression string
	RefTypeHint      RefType
	Line             int
}
