package adapters

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const phpQuery = `
(class_declaration name: (name) @class.name) @class
(class_declaration (base_clause (name) @extends.name)) @extends
(class_declaration (class_interface_clause (name) @implements.name)) @implements
(method_declaration name: (name) @method.name) @method
(function_definition name: (name) @function.name) @function
(namespace_use_clause (qualified_name) @import.source) @import
(function_call_expression function: (name) @call.name) @call
`

// NewPHPAdapter is the base structural extractor for .php files; Eloquent
// models are handled by the separate ORM adapter
// (internal/adapters/orm_eloquent.go). It emits no returns_view
// references, and no Blade template adapter exists in this package.
func NewPHPAdapter() (*TreeSitterAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_php.LanguagePHP())
	return newTreeSitterAdapter(languageSpec{
		id:       "php",
		exts:     []string{".php"},
		language: lang,
		query:    phpQuery,
		symbols: map[string]captureRule{
			"class":    {symbolType: types.SymbolClass, container: true},
			"method":   {symbolType: types.SymbolMethod, container: true},
			"function": {symbolType: types.SymbolFunction, container: true},
		},
		references: map[string]refRule{
			"import":     {refType: types.RefImports, nameField: "source"},
			"call":       {refType: types.RefCalls, nameField: "name"},
			"extends":    {refType: types.RefExtends, nameField: "name"},
			"implements": {refType: types.RefImplements, nameField: "name"},
		},
	})
}
