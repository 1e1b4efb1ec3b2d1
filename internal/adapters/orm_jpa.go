package adapters

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const jpaQuery = `
(class_declaration name: (identifier) @class.name body: (class_body) @class.body) @class
(field_declaration type: (_) declarator: (variable_declarator name: (identifier) @field.name)) @field
`

// JPAAdapter is the ORM-Aware Adapter for JPA/Hibernate (spec.md §4.3): it
// re-walks Java sources, this time looking for @Entity classes and their
// @Column-annotated fields rather than the structural symbols
// NewJavaAdapter already produced. Registered alongside NewJavaAdapter
// under the same ".java" extension.
type JPAAdapter struct {
	lang *sitter.Language
}

func NewJPAAdapter() (*JPAAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_java.Language())
	if _, err := sitter.NewQuery(lang, jpaQuery); err != nil {
		return nil, err
	}
	return &JPAAdapter{lang: lang}, nil
}

func (a *JPAAdapter) ID() string           { return "jpa" }
func (a *JPAAdapter) Extensions() []string { return []string{".java"} }

func (a *JPAAdapter) Parse(filePath string, content []byte) ([]types.Symbol, []types.RawReference) {
	matches, err := runORMQuery(a.lang, jpaQuery, content)
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
		entityName := text(classNode, content)
		mods := annotationWindow(content, m["class"].StartByte())
		if !hasAnnotation(mods, "Entity") {
			continue
		}
		tableArgs := annotationArgsFor(mods, "Table")
		line := int(m["class"].StartPosition().Row) + 1
		sym := entitySymbol(filePath, entityName, "java", line, tableArgs["name"], "")
		symbols = append(symbols, sym)
		tableName, _ := sym.Metadata["table_name"].(string)

		// Association fields (@OneToMany/@ManyToOne/@OneToOne/@ManyToMany)
		// contribute a depends_on edge to the associated entity type;
		// everything else is a column-backed EntityField.
		body := m["class.body"]
		for _, fm := range matches {
			fieldNode, ok := fm["field.name"]
			if !ok || fm["field"].StartByte() < body.StartByte() || fm["field"].EndByte() > body.EndByte() {
				continue
			}
			fieldName := text(fieldNode, content)
			fieldMods := annotationWindow(content, fm["field"].StartByte())
			fline := int(fm["field"].StartPosition().Row) + 1

			switch {
			case hasAnnotation(fieldMods, "OneToMany"), hasAnnotation(fieldMods, "ManyToMany"):
				targetType := genericArgOf(text(fm["field"], content))
				if targetType != "" {
					refs = append(refs, associationRef(filePath, entityName, targetType, fline))
				}
			case hasAnnotation(fieldMods, "ManyToOne"), hasAnnotation(fieldMods, "OneToOne"):
				refs = append(refs, associationRef(filePath, entityName, capitalize(fieldName), fline))
			default:
				colArgs := annotationArgsFor(fieldMods, "Column")
				nullable := true
				if b := boolArgs(fieldMods); b != nil {
					if v, ok := b["nullable"]; ok {
						nullable = v
					}
				}
				fsym, fref := entityFieldSymbol(filePath, entityName, fieldName, "java", fline, colArgs["name"], tableName, nullable)
				symbols = append(symbols, fsym)
				refs = append(refs, fref)
			}
		}
	}

	return symbols, refs
}
