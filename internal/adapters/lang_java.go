package adapters

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const javaQuery = `
(class_declaration name: (identifier) @class.name) @class
(class_declaration superclass: (superclass (type_identifier) @extends.name)) @extends
(class_declaration interfaces: (super_interfaces (type_list (type_identifier) @implements.name))) @implements
(interface_declaration name: (identifier) @interface.name) @interface
(method_declaration name: (identifier) @method.name) @method
(import_declaration (scoped_identifier) @import.source) @import
(method_invocation name: (identifier) @call.name) @call
(marker_annotation name: (identifier) @annotation.name) @annotation
(annotation name: (identifier) @annotation.name) @annotation
`

// NewJavaAdapter is the base structural extractor for JPA/Spring sources;
// the JPA ORM adapter (internal/adapters/orm_jpa.go) parses the same file
// again with its own query to emit entity/column metadata.
func NewJavaAdapter() (*TreeSitterAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_java.Language())
	return newTreeSitterAdapter(languageSpec{
		id:       "java",
		exts:     []string{".java"},
		language: lang,
		query:    javaQuery,
		symbols: map[string]captureRule{
			"class":     {symbolType: types.SymbolClass, container: true},
			"interface": {symbolType: types.SymbolInterface, container: true},
			"method":    {symbolType: types.SymbolMethod, container: true},
		},
		references: map[string]refRule{
			"import":     {refType: types.RefImports, nameField: "source"},
			"call":       {refType: types.RefCalls, nameField: "name"},
			"extends":    {refType: types.RefExtends, nameField: "name"},
			"implements": {refType: types.RefImplements, nameField: "name"},
		},
	})
}
