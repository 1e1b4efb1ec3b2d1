package adapters

import (
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

const gormQuery = `
(type_spec name: (type_identifier) @struct.name type: (struct_type (field_declaration_list) @struct.body)) @struct
(field_declaration name: (field_identifier) @field.name type: (_) @field.type tag: (raw_string_literal)? @field.tag) @field
`

var gormTagPart = regexp.MustCompile(`gorm:"([^"]*)"`)

// GORMAdapter is the ORM-Aware Adapter for GORM (spec.md §4.3): Go
// structs whose fields carry a `gorm:"..."` struct tag. column/not-null
// come straight out of the tag; embedded struct-typed fields without a
// tag default to a depends_on association the way GORM's belongs-to
// convention infers it from the field's type.
type GORMAdapter struct {
	lang *sitter.Language
}

func NewGORMAdapter() (*GORMAdapter, error) {
	lang := sitter.NewLanguage(tree_sitter_go.Language())
	if _, err := sitter.NewQuery(lang, gormQuery); err != nil {
		return nil, err
	}
	return &GORMAdapter{lang: lang}, nil
}

func (a *GORMAdapter) ID() string           { return "gorm" }
func (a *GORMAdapter) Extensions() []string { return []string{".go"} }

func (a *GORMAdapter) Parse(filePath string, content []byte) ([]types.Symbol, []types.RawReference) {
	matches, err := runORMQuery(a.lang, gormQuery, content)
	if err != nil || matches == nil {
		return nil, nil
	}

	var symbols []types.Symbol
	var refs []types.RawReference

	for _, m := range matches {
		structNode, ok := m["struct.name"]
		if !ok {
			continue
		}
		body, ok := m["struct.body"]
		if !ok {
			continue
		}
		entityName := text(structNode, content)

		var fieldSyms []types.Symbol
		var fieldRefs []types.RawReference
		tableName := pluralizeTable(entityName)
		hasGormTag := false

		for _, fm := range matches {
			fieldNode, ok := fm["field.name"]
			if !ok || fm["field"].StartByte() < body.StartByte() || fm["field"].EndByte() > body.EndByte() {
				continue
			}
			fieldName := text(fieldNode, content)
			fieldType := text(fm["field.type"], content)
			fline := int(fm["field"].StartPosition().Row) + 1

			tagNode, hasTag := fm["field.tag"]
			tag := ""
			if hasTag {
				tag = strings.Trim(text(tagNode, content), "`")
			}
			gm := gormTagPart.FindStringSubmatch(tag)
			if gm == nil {
				if strings.HasPrefix(fieldType, "[]") || (len(fieldType) > 0 && fieldType[0] >= 'A' && fieldType[0] <= 'Z') {
					target := strings.TrimPrefix(strings.TrimPrefix(fieldType, "[]"), "*")
					if target != "" && target != entityName {
						fieldRefs = append(fieldRefs, associationRef(filePath, entityName, target, fline))
						hasGormTag = true
					}
				}
				continue
			}
			hasGormTag = true
			parts := strings.Split(gm[1], ";")
			kv := make(map[string]string)
			var flags []string
			for _, p := range parts {
				if i := strings.Index(p, ":"); i != -1 {
					kv[strings.ToLower(p[:i])] = p[i+1:]
				} else {
					flags = append(flags, strings.ToLower(p))
				}
			}
			nullable := true
			for _, f := range flags {
				if f == "not null" || f == "notnull" {
					nullable = false
				}
			}
			fsym, fref := entityFieldSymbol(filePath, entityName, fieldName, "go", fline, kv["column"], tableName, nullable)
			fieldSyms = append(fieldSyms, fsym)
			fieldRefs = append(fieldRefs, fref)
		}

		if !hasGormTag {
			continue
		}
		line := int(m["struct"].StartPosition().Row) + 1
		sym := entitySymbol(filePath, entityName, "go", line, tableName, "")
		symbols = append(symbols, sym)
		symbols = append(symbols, fieldSyms...)
		refs = append(refs, fieldRefs...)
	}

	return symbols, refs
}
