package adapters

import (
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// ormMatch is one query match's captures keyed by capture name, the shape
// every ORM adapter below walks instead of re-deriving the flat
// per-capture dispatch TreeSitterAdapter.Parse uses: entity/field
// extraction needs several named nodes from the same match at once (e.g.
// both a property's name and its type), not one capture at a time.
type ormMatch map[string]sitter.Node

// runORMQuery parses content fresh (ORM adapters run as a second pass
// alongside the base language adapter, spec.md §4.3) and returns every
// match of query grouped by capture name. Construction errors (a typo'd
// query) are returned rather than panicking; callers' Parse methods treat
// an error as "no symbols". Each ORM constructor compiles its query up
// front, which is what lets RegisterBuiltins skip a single bad adapter.
func runORMQuery(lang *sitter.Language, query string, content []byte) ([]ormMatch, error) {
	parser := sitter.NewParser()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, err
	}
	defer parser.Close()

	q, err := sitter.NewQuery(lang, query)
	if err != nil {
		return nil, err
	}
	defer q.Close()

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()
	root := tree.RootNode()
	if root == nil {
		return nil, nil
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	captureNames := q.CaptureNames()

	var out []ormMatch
	matches := qc.Matches(q, root, content)
	for {
		m := matches.Next()
		if m == nil {
			break
		}
		mm := make(ormMatch, len(m.Captures))
		for _, c := range m.Captures {
			mm[captureNames[c.Index]] = c.Node
		}
		out = append(out, mm)
	}
	return out, nil
}

// annotationWindow scans backward from startByte over whole source lines
// that look like a decorator/annotation/attribute ("@Foo", "#[Foo]",
// "[Foo]"), stopping at the first line that doesn't. This lets every ORM
// family locate the markup attached to a declaration without depending on
// how each grammar nests decorator nodes relative to it.
func annotationWindow(content []byte, startByte uint) string {
	if int(startByte) > len(content) {
		startByte = uint(len(content))
	}
	lines := strings.Split(string(content[:startByte]), "\n")
	var collected []string
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "@") || strings.HasPrefix(line, "#[") || strings.HasPrefix(line, "[") {
			collected = append([]string{line}, collected...)
			continue
		}
		break
	}
	return strings.Join(collected, "\n")
}

// ORM-Aware Adapters (spec.md §4.3). Each of the eight supported ORM
// families below (JPA, Django, SQLAlchemy, Eloquent, TypeORM, EF Core,
// GORM, Sequelize) is a thin, family-specific tree-sitter walk that
// produces Entity/EntityField symbols annotated with table_name,
// column_name, base_class and nullable metadata, plus maps_to RawReferences
// to a pseudo-symbol "table::column". No adapter in this package defines
// table or column symbols, so the Call/Import Linker resolves these only
// against whatever symbols carry that name.
//
// The normalization rules are uniform across every family and live here so
// a new ORM adapter only has to find "this is a field/column declaration"
// and "this is a table/entity declaration" in its own grammar, then defer
// to these helpers for defaulting.

// snakeCase converts a camelCase/PascalCase field name into the
// snake_case column name ORMs default to absent an explicit mapping.
func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// pluralizeTable applies the conventional pluralization rule ORMs use to
// default an entity name to its table name absent an explicit @Table/Meta
// annotation, applied to the snake_cased name: trailing consonant+"y" ->
// "ies", trailing s/x/ch/sh -> "+es", else "+s".
func pluralizeTable(entityName string) string {
	base := snakeCase(entityName)
	switch {
	case strings.HasSuffix(base, "y") && len(base) > 1 && !isVowel(rune(base[len(base)-2])):
		return base[:len(base)-1] + "ies"
	case strings.HasSuffix(base, "s"), strings.HasSuffix(base, "x"),
		strings.HasSuffix(base, "ch"), strings.HasSuffix(base, "sh"):
		return base + "es"
	default:
		return base + "s"
	}
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return true
	}
	return false
}

// annotationArgPattern matches key="value", key='value' or key: "value"
// style arguments inside an annotation/decorator/attribute's captured
// text, the lowest-common-denominator shape across Java annotations,
// Python decorators/kwargs, PHP attributes and C# attributes.
var annotationArgPattern = regexp.MustCompile(`(\w+)\s*[:=]\s*["']([^"']+)["']`)

// annotationArgs extracts the key/value pairs out of an annotation's raw
// source text, e.g. `@Column(name="email", nullable=false)`.
func annotationArgs(text string) map[string]string {
	out := make(map[string]string)
	for _, m := range annotationArgPattern.FindAllStringSubmatch(text, -1) {
		out[m[1]] = m[2]
	}
	return out
}

// boolArgPattern matches key=true/false/True/False without quotes, used
// for nullable=false-style flags that aren't quoted strings.
var boolArgPattern = regexp.MustCompile(`(\w+)\s*=\s*(?i:(true|false))`)

func boolArgs(text string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range boolArgPattern.FindAllStringSubmatch(text, -1) {
		out[m[1]] = strings.EqualFold(m[2], "true")
	}
	return out
}

// hasAnnotation reports whether the decorator/annotation/attribute block
// returned by annotationWindow mentions name as a whole identifier, e.g.
// hasAnnotation(block, "Entity") matches "@Entity" but not "@EntityScan".
func hasAnnotation(block, name string) bool {
	for _, prefix := range []string{"@" + name, "#[" + name, "[" + name} {
		idx := strings.Index(block, prefix)
		for idx != -1 {
			after := idx + len(prefix)
			if after >= len(block) || !isIdentByte(block[after]) {
				return true
			}
			next := strings.Index(block[after:], prefix)
			if next == -1 {
				break
			}
			idx = after + next
		}
	}
	return false
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// annotationArgsFor extracts the parenthesized argument list belonging to
// one specific annotation/attribute inside a multi-line block, e.g. pulls
// `name="users"` out of a block containing both `@Entity` and
// `@Table(name="users")`.
func annotationArgsFor(block, name string) map[string]string {
	for _, prefix := range []string{"@" + name, "#[" + name, "[" + name} {
		idx := strings.Index(block, prefix)
		if idx == -1 {
			continue
		}
		rest := block[idx:]
		open := strings.Index(rest, "(")
		if open == -1 {
			continue
		}
		depth := 0
		end := -1
		for i := open; i < len(rest); i++ {
			switch rest[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = i
				}
			}
			if end != -1 {
				break
			}
		}
		if end == -1 {
			continue
		}
		return annotationArgs(rest[open : end+1])
	}
	return map[string]string{}
}

// genericArgPattern pulls the element type out of a collection-typed field
// declaration, e.g. "List<Comment>" or "ICollection<Comment>" -> "Comment".
var genericArgPattern = regexp.MustCompile(`<\s*(\w+)\s*>`)

func genericArgOf(declText string) string {
	m := genericArgPattern.FindStringSubmatch(declText)
	if m == nil {
		return ""
	}
	return m[1]
}

// capitalize titles the first letter of a field name to guess the
// associated entity's type name when no explicit target is declared,
// e.g. a ManyToOne field named "author" targets entity "Author".
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// entityFieldSymbol builds the EntityField symbol and its maps_to
// RawReference to "table::column" per the normalization rules shared by
// every ORM family.
func entityFieldSymbol(filePath, entityQName, fieldName, language string, line int, columnName, tableName string, nullable bool) (types.Symbol, types.RawReference) {
	if columnName == "" {
		columnName = snakeCase(fieldName)
	}
	qualified := entityQName + "." + fieldName
	sym := types.Symbol{
		ID:            types.BuildSymbolID(filePath, qualified, types.SymbolEntityField, line),
		Name:          fieldName,
		QualifiedName: qualified,
		Type:          types.SymbolEntityField,
		Layer:         types.LayerDatabase,
		FilePath:      filePath,
		LineStart:     line,
		LineEnd:       line,
		Language:      language,
		Domain:        types.DomainCode,
		Metadata: map[string]interface{}{
			"column_name": columnName,
			"nullable":    nullable,
		},
	}
	raw := types.RawReference{
		SourceQualifiedName: qualified,
		SourceSymbolID:      sym.ID,
		SourceFile:          filePath,
		TargetExpression:    tableName + "::" + columnName,
		RefTypeHint:         types.RefMapsTo,
		Line:                line,
	}
	return sym, raw
}

// entitySymbol builds the Entity symbol for a class/struct bound to a
// table, defaulting the table name via pluralizeTable when no explicit
// mapping is given.
func entitySymbol(filePath, entityName, language string, line int, tableName, baseClass string) types.Symbol {
	if tableName == "" {
		tableName = pluralizeTable(entityName)
	}
	return types.Symbol{
		ID:            types.BuildSymbolID(filePath, entityName, types.SymbolEntity, line),
		Name:          entityName,
		QualifiedName: entityName,
		Type:          types.SymbolEntity,
		Layer:         types.LayerDatabase,
		FilePath:      filePath,
		LineStart:     line,
		LineEnd:       line,
		Language:      language,
		Domain:        types.DomainCode,
		Metadata: map[string]interface{}{
			"table_name": tableName,
			"base_class": baseClass,
		},
	}
}

// associationRef emits the depends_on reference an ORM association
// (has_many, belongs_to, navigation property) contributes between two
// entities, per spec.md §4.3's normalization rules.
func associationRef(filePath, fromEntityQName, toEntityName string, line int) types.RawReference {
	return types.RawReference{
		SourceQualifiedName: fromEntityQName,
		SourceFile:          filePath,
		TargetExpression:    toEntityName,
		RefTypeHint:         types.RefDependsOn,
		Line:                line,
	}
}
