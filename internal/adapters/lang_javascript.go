package adapters

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const jsQuery = `
(function_declaration name: (identifier) @function.name) @function
(variable_declarator name: (identifier) @function.name value: [(arrow_function) (function_expression)]) @function
(method_definition name: (property_identifier) @method.name) @method
(class_declaration name: (identifier) @class.name) @class
(class_declaration (class_heritage (identifier) @extends.name)) @extends
(import_statement source: (string) @import.source) @import
(call_expression function: (identifier) @call.name) @call
(call_expression function: (member_expression property: (property_identifier) @call.name)) @call
`

func jsRules() (map[string]captureRule, map[string]refRule) {
	return map[string]captureRule{
			"function": {symbolType: types.SymbolFunction, container: true},
			"method":   {symbolType: types.SymbolMethod, container: true},
			"class":    {symbolType: types.SymbolClass, container: true},
		}, map[string]refRule{
			"import":  {refType: types.RefImports, nameField: "source"},
			"call":    {refType: types.RefCalls, nameField: "name"},
			"extends": {refType: types.RefExtends, nameField: "name"},
		}
}

// NewJavaScriptAdapter extracts functions, methods, classes, imports,
// calls and extends edges. It emits no binds_to or renders references, so
// it gives the Frontend Linker (internal/linker/frontend.go) nothing to
// resolve.
func NewJavaScriptAdapter() (*TreeSitterAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_javascript.Language())
	symbols, refs := jsRules()
	return newTreeSitterAdapter(languageSpec{
		id: "javascript", exts: []string{".js", ".jsx", ".mjs"},
		language: lang, query: jsQuery, symbols: symbols, references: refs,
	})
}

const tsQuery = `
(function_declaration name: (identifier) @function.name) @function
(method_definition name: (property_identifier) @method.name) @method
(class_declaration name: (type_identifier) @class.name) @class
(interface_declaration name: (type_identifier) @interface.name) @interface
(class_declaration (class_heritage (extends_clause value: (identifier) @extends.name))) @extends
(import_statement source: (string) @import.source) @import
(call_expression function: (identifier) @call.name) @call
(call_expression function: (member_expression property: (property_identifier) @call.name)) @call
`

func NewTypeScriptAdapter() (*TreeSitterAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	return newTreeSitterAdapter(languageSpec{
		id: "typescript", exts: []string{".ts"},
		language: lang, query: tsQuery,
		symbols: map[string]captureRule{
			"function":  {symbolType: types.SymbolFunction, container: true},
			"method":    {symbolType: types.SymbolMethod, container: true},
			"class":     {symbolType: types.SymbolClass, container: true},
			"interface": {symbolType: types.SymbolInterface, container: true},
		},
		references: map[string]refRule{
			"import":  {refType: types.RefImports, nameField: "source"},
			"call":    {refType: types.RefCalls, nameField: "name"},
			"extends": {refType: types.RefExtends, nameField: "name"},
		},
	})
}

func NewTSXAdapter() (*TreeSitterAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	return newTreeSitterAdapter(languageSpec{
		id: "tsx", exts: []string{".tsx"},
		language: lang, query: tsQuery, layer: types.LayerFrontend,
		symbols: map[string]captureRule{
			"function":  {symbolType: types.SymbolComponent, container: true},
			"method":    {symbolType: types.SymbolMethod, container: true},
			"class":     {symbolType: types.SymbolComponent, container: true},
			"interface": {symbolType: types.SymbolInterface, container: true},
		},
		references: map[string]refRule{
			"import":  {refType: types.RefImports, nameField: "source"},
			"call":    {refType: types.RefCalls, nameField: "name"},
			"extends": {refType: types.RefExtends, nameField: "name"},
		},
	})
}
