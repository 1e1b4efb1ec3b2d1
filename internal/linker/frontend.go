package linker

import (
	"strings"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// FrontendLinker resolves `renders` edges, where one component's template
// references another by tag name (JSX `<UserCard/>`, Vue `<user-card>`);
// no adapter in this module emits `renders` edges. It also acts as
// the lowest-priority (40 of 10/20/30/40) catch-all for any `binds_to` edge
// the EL Resolver left unresolved — a plain `state.count`-style binding
// with no managed-bean root to anchor on, which this linker tries against
// component-local fields instead.
type FrontendLinker struct{}

func NewFrontendLinker() *FrontendLinker { return &FrontendLinker{} }

func (FrontendLinker) Name() string  { return "frontend" }
func (FrontendLinker) Priority() int { return 40 }

func (FrontendLinker) LinkAll(raws []types.RawReference, table SymbolTable) []types.Reference {
	var out []types.Reference
	for _, raw := range raws {
		switch raw.RefTypeHint {
		case types.RefRenders:
			out = append(out, resolveComponentTag(raw, table))
		case types.RefBindsTo:
			out = append(out, resolveLooseBinding(raw, table))
		}
	}
	return out
}

// resolveComponentTag normalizes a JSX/Vue tag name to PascalCase before
// lookup, since Vue templates commonly kebab-case a PascalCase component
// (`<UserCard>` registers as `user-card`).
func resolveComponentTag(raw types.RawReference, table SymbolTable) types.Reference {
	ref := types.Reference{
		SourceID: resolveSourceID(raw, table),
		Type:     types.RefRenders,
		Location: types.Location{FilePath: raw.SourceFile, Line: raw.Line},
	}
	tag := pascalCaseTag(raw.TargetExpression)
	if sym, ok := table.ByQualifiedName(tag); ok {
		ref.TargetID = sym.ID
		ref.Confidence = types.ConfidenceHigh
		return ref
	}
	if candidates := table.ByName(tag); len(candidates) > 0 {
		ref.TargetID = candidates[0].ID
		ref.Confidence = types.ConfidenceMedium
		return ref
	}
	ref.TargetID = types.OrphanTargetSentinel
	ref.Confidence = types.ConfidenceInferred
	return ref
}

// resolveLooseBinding is deliberately weak: a bare identifier with no
// managed-bean convention to lean on is, at best, a guess, so anything it
// resolves is recorded at ConfidenceInferred regardless of match quality.
func resolveLooseBinding(raw types.RawReference, table SymbolTable) types.Reference {
	ref := types.Reference{
		SourceID: resolveSourceID(raw, table),
		Type:     types.RefBindsTo,
		Location: types.Location{FilePath: raw.SourceFile, Line: raw.Line},
		Metadata: map[string]interface{}{"expression": raw.TargetExpression},
	}
	root := raw.TargetExpression
	if i := strings.IndexAny(root, ".["); i != -1 {
		root = root[:i]
	}
	root = strings.TrimSpace(root)
	if candidates := table.ByName(root); len(candidates) > 0 {
		ref.TargetID = candidates[0].ID
	} else {
		ref.TargetID = types.OrphanTargetSentinel
	}
	ref.Confidence = types.ConfidenceInferred
	return ref
}

func pascalCaseTag(tag string) string {
	tag = strings.Trim(tag, "<>/ ")
	if !strings.Contains(tag, "-") {
		if tag == "" {
			return tag
		}
		return strings.ToUpper(tag[:1]) + tag[1:]
	}
	parts := strings.Split(tag, "-")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
