package adapters

import (
	"regexp"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const eloquentQuery = `
(class_declaration name: (name) @class.name (base_clause (name) @class.base) body: (declaration_list) @class.body) @class
(property_declaration (property_element (variable_name (name) @prop.name) (property_initializer (string) @prop.value))) @prop
(method_declaration name: (name) @method.name body: (compound_statement) @method.body) @method
`

var eloquentRelationCall = regexp.MustCompile(`\$this->(hasMany|hasOne|belongsTo|belongsToMany)\(\s*([A-Za-z_][A-Za-z0-9_]*)::class`)

// EloquentAdapter is the ORM-Aware Adapter for Laravel's Eloquent models
// (spec.md §4.3). Eloquent has no annotations: table names and
// relationships are ordinary PHP properties and method bodies, so this
// walk reads `protected $table = '...'` and scans each method body's text
// for the `$this->hasMany(Target::class)` family of relationship calls.
type EloquentAdapter struct {
	lang *sitter.Language
}

func NewEloquentAdapter() (*EloquentAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_php.LanguagePHP())
	if _, err := sitter.NewQuery(lang, eloquentQuery); err != nil {
		return nil, err
	}
	return &EloquentAdapter{lang: lang}, nil
}

func (a *EloquentAdapter) ID() string           { return "eloquent" }
func (a *EloquentAdapter) Extensions() []string { return []string{".php"} }

func (a *EloquentAdapter) Parse(filePath string, content []byte) ([]types.Symbol, []types.RawReference) {
	matches, err := runORMQuery(a.lang, eloquentQuery, content)
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
		base := text(m["class.base"], content)
		if base != "Model" && base != "Authenticatable" {
			continue
		}
		entityName := text(classNode, content)
		body := m["class.body"]
		line := int(m["class"].StartPosition().Row) + 1

		tableName := ""
		for _, pm := range matches {
			propNode, ok := pm["prop.name"]
			if !ok || pm["prop"].StartByte() < body.StartByte() || pm["prop"].EndByte() > body.EndByte() {
				continue
			}
			if text(propNode, content) == "table" {
				tableName = trimQuotes(text(pm["prop.value"], content))
			}
		}

		sym := entitySymbol(filePath, entityName, "php", line, tableName, base)
		symbols = append(symbols, sym)

		for _, mm := range matches {
			methodBody, ok := mm["method.body"]
			if !ok || mm["method"].StartByte() < body.StartByte() || mm["method"].EndByte() > body.EndByte() {
				continue
			}
			bodyText := text(methodBody, content)
			for _, relMatch := range eloquentRelationCall.FindAllStringSubmatch(bodyText, -1) {
				fline := int(mm["method"].StartPosition().Row) + 1
				refs = append(refs, associationRef(filePath, entityName, relMatch[2], fline))
			}
		}
	}

	return symbols, refs
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') {
		return s[1 : len(s)-1]
	}
	return s
}
