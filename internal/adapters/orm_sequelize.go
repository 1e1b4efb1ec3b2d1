package adapters

import (
	"regexp"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const sequelizeQuery = `
(call_expression
  function: (member_expression object: (identifier) @model.name property: (property_identifier) @model.method)
  arguments: (arguments) @model.args) @model
`

var sequelizeFieldName = regexp.MustCompile(`(\w+)\s*:\s*\{`)
var sequelizeTableName = regexp.MustCompile(`tableName\s*:\s*['"]([^'"]+)['"]`)

// SequelizeAdapter is the ORM-Aware Adapter for Sequelize's
// `Model.init({ ...fields }, { ...options })` call form (spec.md §4.3).
// Unlike the annotation-driven families, Sequelize's schema is a pair of
// plain object literals passed to a single call, so this walk captures
// the whole `arguments` node and regex-scans its text for field and
// tableName keys rather than re-deriving an object-literal query.
type SequelizeAdapter struct {
	lang *sitter.Language
}

func NewSequelizeAdapter() (*SequelizeAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_javascript.Language())
	if _, err := sitter.NewQuery(lang, sequelizeQuery); err != nil {
		return nil, err
	}
	return &SequelizeAdapter{lang: lang}, nil
}

func (a *SequelizeAdapter) ID() string           { return "sequelize" }
func (a *SequelizeAdapter) Extensions() []string { return []string{".js"} }

func (a *SequelizeAdapter) Parse(filePath string, content []byte) ([]types.Symbol, []types.RawReference) {
	matches, err := runORMQuery(a.lang, sequelizeQuery, content)
	if err != nil || matches == nil {
		return nil, nil
	}

	var symbols []types.Symbol
	var refs []types.RawReference

	for _, m := range matches {
		if text(m["model.method"], content) != "init" {
			continue
		}
		entityName := text(m["model.name"], content)
		argsText := text(m["model.args"], content)
		line := int(m["model"].StartPosition().Row) + 1

		tableName := ""
		if mm := sequelizeTableName.FindStringSubmatch(argsText); mm != nil {
			tableName = mm[1]
		}
		sym := entitySymbol(filePath, entityName, "javascript", line, tableName, "")
		symbols = append(symbols, sym)
		tableName, _ = sym.Metadata["table_name"].(string)

		firstBrace := indexOfFirstObject(argsText)
		fieldsBlock := argsText
		if firstBrace >= 0 {
			fieldsBlock = argsText[:firstBrace]
		}
		seen := make(map[string]bool)
		for _, fm := range sequelizeFieldName.FindAllStringSubmatch(fieldsBlock, -1) {
			fieldName := fm[1]
			if seen[fieldName] || fieldName == "type" || fieldName == "allowNull" || fieldName == "defaultValue" || fieldName == "references" {
				continue
			}
			seen[fieldName] = true
			fsym, fref := entityFieldSymbol(filePath, entityName, fieldName, "javascript", line, "", tableName, true)
			symbols = append(symbols, fsym)
			refs = append(refs, fref)
		}
	}

	return symbols, refs
}

// indexOfFirstObject finds the end of the first top-level `{ ... }` object
// literal in a Sequelize.init(...) argument list, letting callers scan only
// the field-definitions object and ignore the trailing options object
// (which reuses the same `name: value` shape but isn't a column list).
func indexOfFirstObject(s string) int {
	depth := 0
	started := false
	for i, r := range s {
		switch r {
		case '{':
			depth++
			started = true
		case '}':
			depth--
			if started && depth == 0 {
				return i
			}
		}
	}
	return -1
}
