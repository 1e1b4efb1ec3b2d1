package adapters

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const pythonQuery = `
(function_definition name: (identifier) @function.name) @function
(class_definition name: (identifier) @class.name) @class
(class_definition superclasses: (argument_list (identifier) @extends.name)) @extends
(import_from_statement module_name: (dotted_name) @import.source) @import
(import_statement name: (dotted_name) @import.source) @import
(call function: (identifier) @call.name) @call
(call function: (attribute attribute: (identifier) @call.name)) @call
`

// NewPythonAdapter is the structural extractor for .py files. Django and
// SQLAlchemy models are handled by separate ORM adapters
// (internal/adapters/orm_django.go and orm_sqlalchemy.go), which the
// Parsing Pool runs over the same file; each parses it again with its own
// ORM-focused query rather than duplicating structural extraction here.
func NewPythonAdapter() (*TreeSitterAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_python.Language())
	return newTreeSitterAdapter(languageSpec{
		id:       "python",
		exts:     []string{".py"},
		language: lang,
		query:    pythonQuery,
		symbols: map[string]captureRule{
			"function": {symbolType: types.SymbolFunction, container: true},
			"class":    {symbolType: types.SymbolClass, container: true},
		},
		references: map[string]refRule{
			"import":  {refType: types.RefImports, nameField: "source"},
			"call":    {refType: types.RefCalls, nameField: "name"},
			"extends": {refType: types.RefExtends, nameField: "name"},
		},
	})
}
