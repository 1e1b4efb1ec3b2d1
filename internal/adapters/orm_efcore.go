package adapters

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const efcoreQuery = `
(class_declaration name: (identifier) @class.name body: (declaration_list) @class.body) @class
(property_declaration type: (_) @prop.type name: (identifier) @prop.name) @prop
`

// EFCoreAdapter is the ORM-Aware Adapter for Entity Framework Core
// (spec.md §4.3): classes attributed [Table("...")] and their [Column]
// or navigation ICollection<T>/virtual-reference properties. Like the
// TypeORM adapter, attribute text is read via annotationWindow rather than
// a grammar-specific attribute_list capture.
type EFCoreAdapter struct {
	lang *sitter.Language
}

func NewEFCoreAdapter() (*EFCoreAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_csharp.Language())
	if _, err := sitter.NewQuery(lang, efcoreQuery); err != nil {
		return nil, err
	}
	return &EFCoreAdapter{lang: lang}, nil
}

func (a *EFCoreAdapter) ID() string           { return "efcore" }
func (a *EFCoreAdapter) Extensions() []string { return []string{".cs"} }

func (a *EFCoreAdapter) Parse(filePath string, content []byte) ([]types.Symbol, []types.RawReference) {
	matches, err := runORMQuery(a.lang, efcoreQuery, content)
	if err != nil || matches == nil {
		return nil, nil
	}

	var symbols []types.Symbol
	var refs []types.RawReference

	for _, m := range matches {
		classNode, ok := m["class.name"]
		if !ok {
			continue
		}
		attrs := annotationWindow(content, m["class"].StartByte())
		entityName := text(classNode, content)
		hasTableAttr := hasAnnotation(attrs, "Table")
		tableArgs := annotationArgsFor(attrs, "Table")
		tableName := tableArgs["name"]
		if i := strings.Index(attrs, "[Table("); tableName == "" && i != -1 {
			tableName = firstPositionalClassArg(attrs[i+len("[Table"):])
		}
		if tableName == "" {
			tableName = pluralizeTable(entityName)
		}
		if !hasTableAttr && tableArgs["name"] == "" {
			// EF Core's convention-based mode still treats any class with
			// at least one navigation/column property below as an entity.
		}

		body := m["class.body"]
		var fieldSyms []types.Symbol
		var fieldRefs []types.RawReference
		hasAnyMapping := hasTableAttr

		for _, fm := range matches {
			fieldNode, ok := fm["prop.name"]
			if !ok || fm["prop"].StartByte() < body.StartByte() || fm["prop"].EndByte() > body.EndByte() {
				continue
			}
			fieldName := text(fieldNode, content)
			propType := text(fm["prop.type"], content)
			propAttrs := annotationWindow(content, fm["prop"].StartByte())
			fline := int(fm["prop"].StartPosition().Row) + 1

			switch {
			case isNavigationCollection(propType):
				target := genericArgOf(propType)
				if target != "" {
					fieldRefs = append(fieldRefs, associationRef(filePath, entityName, target, fline))
					hasAnyMapping = true
				}
			case hasAnnotation(propAttrs, "NotMapped"):
				continue
			case isEntityReference(propType, entityName):
				fieldRefs = append(fieldRefs, associationRef(filePath, entityName, propType, fline))
				hasAnyMapping = true
			default:
				colArgs := annotationArgsFor(propAttrs, "Column")
				nullable := isNullableType(propType)
				fsym, fref := entityFieldSymbol(filePath, entityName, fieldName, "csharp", fline, colArgs["name"], tableName, nullable)
				fieldSyms = append(fieldSyms, fsym)
				fieldRefs = append(fieldRefs, fref)
				hasAnyMapping = true
			}
		}

		if !hasAnyMapping {
			continue
		}
		line := int(m["class"].StartPosition().Row) + 1
		sym := entitySymbol(filePath, entityName, "csharp", line, tableName, "")
		symbols = append(symbols, sym)
		symbols = append(symbols, fieldSyms...)
		refs = append(refs, fieldRefs...)
	}

	return symbols, refs
}

func isNavigationCollection(propType string) bool {
	for _, p := range []string{"ICollection<", "List<", "IList<", "IEnumerable<"} {
		if len(propType) >= len(p) && propType[:len(p)] == p {
			return true
		}
	}
	return false
}

func isNullableType(propType string) bool {
	return len(propType) > 0 && propType[len(propType)-1] == '?'
}

// isEntityReference is a light heuristic for navigation properties that
// reference another entity type directly (public virtual Author Author { get; set; }):
// a PascalCase, non-primitive type name matching common entity-class shape.
func isEntityReference(propType, selfEntity string) bool {
	primitives := map[string]bool{
		"int": true, "string": true, "bool": true, "long": true, "double": true,
		"decimal": true, "DateTime": true, "Guid": true, "float": true, "byte": true,
	}
	trimmed := propType
	if isNullableType(trimmed) {
		trimmed = trimmed[:len(trimmed)-1]
	}
	if primitives[trimmed] || trimmed == selfEntity {
		return false
	}
	return len(trimmed) > 0 && trimmed[0] >= 'A' && trimmed[0] <= 'Z'
}
