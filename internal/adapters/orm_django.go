package adapters

import (
	"regexp"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const djangoQuery = `
(class_definition
  name: (identifier) @class.name
  superclasses: (argument_list [(identifier) @class.base (attribute attribute: (identifier) @class.base)])
  body: (block) @class.body) @class
(assignment left: (identifier) @field.name right: (call function: (attribute attribute: (identifier) @field.call) arguments: (argument_list) @field.args)) @field
`

// djangoRelationCalls lists the Django field constructors this adapter
// treats as relations (depends_on edges); any other models.XField(...)
// call becomes a column.
var djangoRelationCalls = map[string]bool{"ForeignKey": true, "OneToOneField": true, "ManyToManyField": true}

// DjangoAdapter is the ORM-Aware Adapter for Django's models.Model
// (spec.md §4.3). It identifies classes subclassing models.Model and
// treats every `name = models.XField(...)` class-body assignment as an
// EntityField, mapping ForeignKey/OneToOneField/ManyToManyField calls to
// depends_on edges instead of columns.
type DjangoAdapter struct {
	lang *sitter.Language
}

func NewDjangoAdapter() (*DjangoAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_python.Language())
	if _, err := sitter.NewQuery(lang, djangoQuery); err != nil {
		return nil, err
	}
	return &DjangoAdapter{lang: lang}, nil
}

func (a *DjangoAdapter) ID() string           { return "django-orm" }
func (a *DjangoAdapter) Extensions() []string { return []string{".py"} }

var djangoMetaTable = regexp.MustCompile(`db_table\s*=\s*["']([^"']+)["']`)

func (a *DjangoAdapter) Parse(filePath string, content []byte) ([]types.Symbol, []types.RawReference) {
	matches, err := runORMQuery(a.lang, djangoQuery, content)
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
		if base != "Model" {
			continue
		}
		entityName := text(classNode, content)
		body := m["class.body"]
		bodyText := text(body, content)
		tableName := ""
		if mm := djangoMetaTable.FindStringSubmatch(bodyText); mm != nil {
			tableName = mm[1]
		}
		line := int(m["class"].StartPosition().Row) + 1
		sym := entitySymbol(filePath, entityName, "python", line, tableName, base)
		symbols = append(symbols, sym)
		tableName, _ = sym.Metadata["table_name"].(string)

		for _, fm := range matches {
			fieldNode, ok := fm["field.name"]
			if !ok || fm["field"].StartByte() < body.StartByte() || fm["field"].EndByte() > body.EndByte() {
				continue
			}
			fieldName := text(fieldNode, content)
			callName := text(fm["field.call"], content)
			argsText := text(fm["field.args"], content)
			fline := int(fm["field"].StartPosition().Row) + 1

			if djangoRelationCalls[callName] {
				if target := firstPositionalClassArg(argsText); target != "" {
					refs = append(refs, associationRef(filePath, entityName, target, fline))
				}
				continue
			}
			kw := annotationArgs(argsText)
			nullable := false
			if b := boolArgs(argsText); b != nil {
				nullable = b["null"]
			}
			fsym, fref := entityFieldSymbol(filePath, entityName, fieldName, "python", fline, kw["db_column"], tableName, nullable)
			symbols = append(symbols, fsym)
			refs = append(refs, fref)
		}
	}

	return symbols, refs
}

// firstPositionalClassArg extracts the first bare identifier or
// quoted-string positional argument from a Django relation field's call,
// e.g. ForeignKey(Author, on_delete=...) or ForeignKey("Author", ...).
var firstPositionalArgPattern = regexp.MustCompile(`\(\s*['"]?(\w+)['"]?`)

func firstPositionalClassArg(argsText string) string {
	m := firstPositionalArgPattern.FindStringSubmatch(argsText)
	if m == nil {
		return ""
	}
	return m[1]
}
