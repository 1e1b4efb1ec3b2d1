package adapters

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const typeormQuery = `
(class_declaration name: (type_identifier) @class.name body: (class_body) @class.body) @class
(public_field_definition name: (property_identifier) @field.name) @field
`

// TypeORMAdapter is the ORM-Aware Adapter for TypeORM (spec.md §4.3):
// classes decorated with @Entity() and their @Column()-decorated
// properties. Decorators in TypeScript sit on the source lines
// immediately above the class/property they annotate, so this walk uses
// annotationWindow rather than depending on how the grammar nests
// decorator nodes relative to the declaration.
type TypeORMAdapter struct {
	lang *sitter.Language
}

func NewTypeORMAdapter() (*TypeORMAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	if _, err := sitter.NewQuery(lang, typeormQuery); err != nil {
		return nil, err
	}
	return &TypeORMAdapter{lang: lang}, nil
}

func (a *TypeORMAdapter) ID() string           { return "typeorm" }
func (a *TypeORMAdapter) Extensions() []string { return []string{".ts"} }

func (a *TypeORMAdapter) Parse(filePath string, content []byte) ([]types.Symbol, []types.RawReference) {
	matches, err := runORMQuery(a.lang, typeormQuery, content)
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
		decorators := annotationWindow(content, m["class"].StartByte())
		if !hasAnnotation(decorators, "Entity") {
			continue
		}
		entityArgs := annotationArgsFor(decorators, "Entity")
		entityName := text(classNode, content)
		line := int(m["class"].StartPosition().Row) + 1
		sym := entitySymbol(filePath, entityName, "typescript", line, entityArgs["name"], "")
		symbols = append(symbols, sym)
		tableName, _ := sym.Metadata["table_name"].(string)

		body := m["class.body"]
		for _, fm := range matches {
			fieldNode, ok := fm["field.name"]
			if !ok || fm["field"].StartByte() < body.StartByte() || fm["field"].EndByte() > body.EndByte() {
				continue
			}
			fieldName := text(fieldNode, content)
			fieldDecorators := annotationWindow(content, fm["field"].StartByte())
			fline := int(fm["field"].StartPosition().Row) + 1

			switch {
			case hasAnnotation(fieldDecorators, "OneToMany"), hasAnnotation(fieldDecorators, "ManyToMany"):
				targetType := genericArgOf(text(fm["field"], content))
				if targetType != "" {
					refs = append(refs, associationRef(filePath, entityName, targetType, fline))
				}
			case hasAnnotation(fieldDecorators, "ManyToOne"), hasAnnotation(fieldDecorators, "OneToOne"):
				refs = append(refs, associationRef(filePath, entityName, capitalize(fieldName), fline))
			case hasAnnotation(fieldDecorators, "Column"), hasAnnotation(fieldDecorators, "PrimaryGeneratedColumn"), hasAnnotation(fieldDecorators, "PrimaryColumn"):
				colArgs := annotationArgsFor(fieldDecorators, "Column")
				nullable := false
				if b := boolArgs(fieldDecorators); b != nil {
					nullable = b["nullable"]
				}
				fsym, fref := entityFieldSymbol(filePath, entityName, fieldName, "typescript", fline, colArgs["name"], tableName, nullable)
				symbols = append(symbols, fsym)
				refs = append(refs, fref)
			}
		}
	}

	return symbols, refs
}
