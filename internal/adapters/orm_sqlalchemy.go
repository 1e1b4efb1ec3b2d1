package adapters

import (
	"regexp"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const sqlalchemyQuery = `
(class_definition name: (identifier) @class.name body: (block) @class.body) @class
(assignment left: (identifier) @field.name right: (call function: (identifier) @field.call arguments: (argument_list) @field.args)) @field
`

var sqlalchemyTablename = regexp.MustCompile(`__tablename__\s*=\s*["']([^"']+)["']`)

// SQLAlchemyAdapter is the ORM-Aware Adapter for SQLAlchemy's declarative
// base (spec.md §4.3): every class body assigning `__tablename__` is an
// Entity; `name = Column(...)` assignments are EntityFields and
// `name = relationship(...)` assignments are depends_on edges.
type SQLAlchemyAdapter struct {
	lang *sitter.Language
}

func NewSQLAlchemyAdapter() (*SQLAlchemyAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_python.Language())
	if _, err := sitter.NewQuery(lang, sqlalchemyQuery); err != nil {
		return nil, err
	}
	return &SQLAlchemyAdapter{lang: lang}, nil
}

func (a *SQLAlchemyAdapter) ID() string           { return "sqlalchemy" }
func (a *SQLAlchemyAdapter) Extensions() []string { return []string{".py"} }

func (a *SQLAlchemyAdapter) Parse(filePath string, content []byte) ([]types.Symbol, []types.RawReference) {
	matches, err := runORMQuery(a.lang, sqlalchemyQuery, content)
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
		body := m["class.body"]
		bodyText := text(body, content)
		mm := sqlalchemyTablename.FindStringSubmatch(bodyText)
		if mm == nil {
			continue
		}
		entityName := text(classNode, content)
		line := int(m["class"].StartPosition().Row) + 1
		sym := entitySymbol(filePath, entityName, "python", line, mm[1], "")
		symbols = append(symbols, sym)
		tableName, _ := sym.Metadata["table_name"].(string)

		for _, fm := range matches {
			fieldNode, ok := fm["field.name"]
			if !ok || fm["field"].StartByte() < body.StartByte() || fm["field"].EndByte() > body.EndByte() {
				continue
			}
			fieldName := text(fieldNode, content)
			callName := text(fm["field.call"], content)
			argsText := text(fm["field.args"], content)
			fline := int(fm["field"].StartPosition().Row) + 1

			if callName == "relationship" {
				if target := firstPositionalClassArg(argsText); target != "" {
					refs = append(refs, associationRef(filePath, entityName, target, fline))
				}
				continue
			}
			if callName != "Column" {
				continue
			}
			kw := annotationArgs(argsText)
			nullable := true
			if b := boolArgs(argsText); b != nil {
				if v, ok := b["nullable"]; ok {
					nullable = v
				}
			}
			fsym, fref := entityFieldSymbol(filePath, entityName, fieldName, "python", fline, kw["name"], tableName, nullable)
			symbols = append(symbols, fsym)
			refs = append(refs, fref)
		}
	}

	return symbols, refs
}
