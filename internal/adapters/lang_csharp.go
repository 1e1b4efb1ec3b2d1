package adapters

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const csharpQuery = `
(class_declaration name: (identifier) @class.name) @class
(class_declaration (base_list (identifier) @extends.name)) @extends
(interface_declaration name: (identifier) @interface.name) @interface
(method_declaration name: (identifier) @method.name) @method
(using_directive (qualified_name) @import.source) @import
(using_directive (identifier) @import.source) @import
(invocation_expression function: (identifier) @call.name) @call
(invocation_expression function: (member_access_expression name: (identifier) @call.name)) @call
`

// NewCSharpAdapter is the base structural extractor for .cs files; Entity
// Framework models are handled by the separate ORM adapter
// (internal/adapters/orm_efcore.go). It emits no returns_view references
// for ASP.NET MVC `return View(...)` calls.
func NewCSharpAdapter() (*TreeSitterAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_csharp.Language())
	return newTreeSitterAdapter(languageSpec{
		id:       "csharp",
		exts:     []string{".cs"},
		language: lang,
		query:    csharpQuery,
		symbols: map[string]captureRule{
			"class":     {symbolType: types.SymbolClass, container: true},
			"interface": {symbolType: types.SymbolInterface, container: true},
			"method":    {symbolType: types.SymbolMethod, container: true},
		},
		references: map[string]refRule{
			"import":  {refType: types.RefImports, nameField: "source"},
			"call":    {refType: types.RefCalls, nameField: "name"},
			"extends": {refType: types.RefExtends, nameField: "name"},
		},
	})
}
