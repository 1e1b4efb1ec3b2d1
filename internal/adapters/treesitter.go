package adapters

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mikeparcewski/wicked-search/internal/obs"
	"github.com/mikeparcewski/wicked-search/internal/types"
)

// captureRule says what a primary capture name (e.g. "function", "class")
// produces: a Symbol of the given type, optionally treated as a container
// that later symbols can be nested under for qualified-name construction.
type captureRule struct {
	symbolType types.SymbolType
	container  bool // true for any capture whose span should attribute nested calls/refs to it: class/interface/struct-like AND function/method
}

// refRule says what a reference-shaped capture (e.g. "call", "import")
// produces: a RawReference of the given type, reading the target name from
// the named sub-capture (e.g. "call.name", "import.source").
type refRule struct {
	refType   types.RefType
	nameField string // sub-capture suffix holding the target text, e.g. "name" for "call.name"
}

// languageSpec binds a tree-sitter grammar and query to the generic walk
// below. Each concrete language file (lang_go.go, lang_python.go, ...) builds one of
// these and wraps it in a TreeSitterAdapter.
type languageSpec struct {
	id         string
	exts       []string
	language   *sitter.Language
	query      string
	symbols    map[string]captureRule
	references map[string]refRule
	layer      types.Layer // defaults to LayerBackend when unset
}

func (s languageSpec) layerOrDefault() types.Layer {
	if s.layer == "" {
		return types.LayerBackend
	}
	return s.layer
}

// TreeSitterAdapter is the generic Language Adapter Registry entry for any
// tree-sitter-backed grammar: it owns one parser+query pair and walks query
// matches into Symbols/RawReferences using the owning languageSpec's rules.
// Grounded on the teacher's internal/parser.TreeSitterParser and
// internal/symbollinker per-language extractors, collapsed into one
// data-driven engine instead of one handwritten walker per language.
type TreeSitterAdapter struct {
	spec   languageSpec
	parser *sitter.Parser
	q      *sitter.Query
}

func newTreeSitterAdapter(spec languageSpec) (*TreeSitterAdapter, error) {
	parser := sitter.NewParser()
	if err := parser.SetLanguage(spec.language); err != nil {
		return nil, err
	}
	q, qerr := sitter.NewQuery(spec.language, spec.query)
	if qerr != nil {
		return nil, qerr
	}
	return &TreeSitterAdapter{spec: spec, parser: parser, q: q}, nil
}

func (a *TreeSitterAdapter) ID() string           { return a.spec.id }
func (a *TreeSitterAdapter) Extensions() []string { return a.spec.exts }

// containerSpan tracks a captured container symbol's byte range so nested
// captures can be attributed to it for qualified-name/parent_id purposes.
type containerSpan struct {
	id    string
	name  string
	start uint
	end   uint
}

func (a *TreeSitterAdapter) Parse(filePath string, content []byte) ([]types.Symbol, []types.RawReference) {
	defer func() {
		if r := recover(); r != nil {
			obs.Warnf("adapter panic recovered", obs.F("adapter", a.spec.id), obs.F("file", filePath), obs.F("recover", r))
		}
	}()

	tree := a.parser.Parse(content, nil)
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
	matches := qc.Matches(a.q, root, content)
	captureNames := a.q.CaptureNames()

	var symbols []types.Symbol
	var refs []types.RawReference
	var containers []containerSpan

	for {
		m := matches.Next()
		if m == nil {
			break
		}

		named := make(map[string]sitter.Node, 4)
		for _, c := range m.Captures {
			name := captureNames[c.Index]
			if strings.Contains(name, ".") {
				named[name] = c.Node
			}
		}

		for _, c := range m.Captures {
			name := captureNames[c.Index]
			node := c.Node

			if rule, ok := a.spec.symbols[name]; ok {
				nameNode, hasName := named[name+".name"]
				symName := ""
				if hasName {
					symName = text(nameNode, content)
				}
				if symName == "" {
					continue
				}
				qualified, parentID := qualify(symName, node, containers)
				start := int(node.StartPosition().Row) + 1
				end := int(node.EndPosition().Row) + 1
				sym := types.Symbol{
					ID:            types.BuildSymbolID(filePath, qualified, rule.symbolType, start),
					Name:          symName,
					QualifiedName: qualified,
					Type:          rule.symbolType,
					Layer:         a.spec.layerOrDefault(),
					FilePath:      filePath,
					LineStart:     start,
					LineEnd:       end,
					ParentID:      parentID,
					Language:      a.spec.id,
					Domain:        types.DomainCode,
				}
				symbols = append(symbols, sym)
				if rule.container {
					containers = append(containers, containerSpan{
						id: sym.ID, name: qualified, start: node.StartByte(), end: node.EndByte(),
					})
				}
				continue
			}

			if rule, ok := a.spec.references[name]; ok {
				targetNode, hasTarget := named[name+"."+rule.nameField]
				target := ""
				if hasTarget {
					target = text(targetNode, content)
				} else {
					target = text(node, content)
				}
				target = strings.Trim(target, "\"'`")
				if target == "" {
					continue
				}
				sourceID, sourceQName := enclosing(node, containers)
				refs = append(refs, types.RawReference{
					SourceQualifiedName: sourceQName,
					SourceSymbolID:      sourceID,
					SourceFile:          filePath,
					TargetExpression:    target,
					RefTypeHint:         rule.refType,
					Line:                int(node.StartPosition().Row) + 1,
				})
			}
		}
	}

	return symbols, refs
}

func text(n sitter.Node, content []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(content) || start > end {
		return ""
	}
	return string(content[start:end])
}

// qualify builds a dotted qualified name and resolves parent_id by finding
// the innermost container whose byte span encloses node's start.
func qualify(name string, node sitter.Node, containers []containerSpan) (string, string) {
	_, enclosingName := enclosing(node, containers)
	if enclosingName == "" {
		return name, ""
	}
	for i := len(containers) - 1; i >= 0; i-- {
		c := containers[i]
		if node.StartByte() >= c.start && node.StartByte() < c.end {
			return c.name + "." + name, c.id
		}
	}
	return name, ""
}

func enclosing(node sitter.Node, containers []containerSpan) (string, string) {
	for i := len(containers) - 1; i >= 0; i-- {
		c := containers[i]
		if node.StartByte() >= c.start && node.StartByte() < c.end {
			return c.id, c.name
		}
	}
	return "", ""
}
