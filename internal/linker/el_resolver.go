package linker

import (
	"strings"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// ELResolver resolves JSP/Thymeleaf-style expression-language bindings
// (spec.md §4.6), e.g. `${userService.currentUser.name}`, to the backend
// symbol the leading identifier names. It runs before the Controller and
// Frontend linkers (priority 20 of 10/20/30/40) because an EL binding's
// root is almost always a managed bean or request attribute the call
// graph already knows about, and that certainty should win over a looser
// frontend guess at the same expression.
type ELResolver struct{}

func NewELResolver() *ELResolver { return &ELResolver{} }

func (ELResolver) Name() string  { return "el_resolver" }
func (ELResolver) Priority() int { return 20 }

func (ELResolver) LinkAll(raws []types.RawReference, table SymbolTable) []types.Reference {
	var out []types.Reference
	for _, raw := range raws {
		if raw.RefTypeHint != types.RefBindsTo {
			continue
		}
		expr := strings.TrimSpace(raw.TargetExpression)
		expr = strings.TrimPrefix(expr, "${")
		expr = strings.TrimPrefix(expr, "#{")
		expr = strings.TrimSuffix(expr, "}")
		if expr == "" {
			continue
		}
		root := expr
		if i := strings.IndexByte(expr, '.'); i != -1 {
			root = expr[:i]
		}

		ref := types.Reference{
			SourceID: resolveSourceID(raw, table),
			Type:     types.RefBindsTo,
			Location: types.Location{FilePath: raw.SourceFile, Line: raw.Line},
			Metadata: map[string]interface{}{"expression": expr},
		}
		if sym, ok := resolveELRoot(root, table); ok {
			ref.TargetID = sym.ID
			ref.Confidence = types.ConfidenceMedium
		} else {
			ref.TargetID = types.OrphanTargetSentinel
			ref.Confidence = types.ConfidenceInferred
		}
		out = append(out, ref)
	}
	return out
}

// resolveELRoot matches an EL root identifier against known bean/service
// names, tolerating the common camelCase-instance-of-PascalCase-class
// convention (`userService` instance of class `UserService`).
func resolveELRoot(root string, table SymbolTable) (types.Symbol, bool) {
	if sym, ok := table.ByQualifiedName(root); ok {
		return sym, true
	}
	candidates := table.ByName(capitalizeFirst(root))
	if len(candidates) > 0 {
		return candidates[0], true
	}
	candidates = table.ByName(root)
	if len(candidates) > 0 {
		return candidates[0], true
	}
	return types.Symbol{}, false
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
