package adapters

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const goQuery = `
(function_declaration name: (identifier) @function.name) @function
(method_declaration name: (field_identifier) @method.name) @method
(type_spec name: (type_identifier) @type.name) @type
(import_spec path: (interpreted_string_literal) @import.source) @import
(call_expression function: (identifier) @call.name) @call
(call_expression function: (selector_expression field: (field_identifier) @call.name)) @call
`

// NewGoAdapter parses Go sources with the teacher's own language: a
// top-level function/method/type registry plus call and import raw refs
// for the Call/Import Linker to resolve.
func NewGoAdapter() (*TreeSitterAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_go.Language())
	return newTreeSitterAdapter(languageSpec{
		id:   "go",
		exts: []string{".go"},
		language: lang,
		query:    goQuery,
		symbols: map[string]captureRule{
			"function": {symbolType: types.SymbolFunction, container: true},
			"method":   {symbolType: types.SymbolMethod, container: true},
			"type":     {symbolType: types.SymbolType_, container: true},
		},
		references: map[string]refRule{
			"import": {refType: types.RefImports, nameField: "source"},
			"call":   {refType: types.RefCalls, nameField: "name"},
		},
	})
}
