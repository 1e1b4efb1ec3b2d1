package adapters

import (
	"bufio"
	"bytes"
	"regexp"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// GenericAdapter is the regex-based fallback for the long tail of
// languages spec.md §4.2 gestures at without naming: any source file
// whose extension isn't claimed by a tree-sitter grammar still gets a
// best-effort top-level symbol/import pass instead of being silently
// skipped. It trades precision (no nesting, no call graph) for coverage.
type GenericAdapter struct {
	id   string
	exts []string
	defn *regexp.Regexp // capture group 1 is the declared name
	imp  *regexp.Regexp // capture group 1 is the imported path/module
}

func (a *GenericAdapter) ID() string           { return a.id }
func (a *GenericAdapter) Extensions() []string { return a.exts }

func (a *GenericAdapter) Parse(filePath string, content []byte) ([]types.Symbol, []types.RawReference) {
	var symbols []types.Symbol
	var refs []types.RawReference

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if a.defn != nil {
			if m := a.defn.FindStringSubmatch(text); m != nil {
				name := m[1]
				symbols = append(symbols, types.Symbol{
					ID:            types.BuildSymbolID(filePath, name, types.SymbolFunction, line),
					Name:          name,
					QualifiedName: name,
					Type:          types.SymbolFunction,
					Layer:         types.LayerBackend,
					FilePath:      filePath,
					LineStart:     line,
					LineEnd:       line,
					Language:      a.id,
					Domain:        types.DomainCode,
				})
			}
		}
		if a.imp != nil {
			if m := a.imp.FindStringSubmatch(text); m != nil {
				refs = append(refs, types.RawReference{
					SourceFile:       filePath,
					TargetExpression: m[1],
					RefTypeHint:      types.RefImports,
					Line:             line,
				})
			}
		}
	}

	return symbols, refs
}

// genericLanguages is the long-tail roster: extension, a loose
// function/method-declaration pattern and a loose import pattern, good
// enough for the Data API Gateway's search/blast-radius verbs to surface
// something rather than treating the file as opaque.
var genericLanguages = []struct {
	id, ext  string
	defnPat  string
	importPt string
}{
	{"ruby", ".rb", `^\s*def\s+([A-Za-z_][A-Za-z0-9_?!=]*)`, `^\s*require(?:_relative)?\s+['"]([^'"]+)['"]`},
	{"rust", ".rs", `^\s*(?:pub\s+)?fn\s+([A-Za-z_][A-Za-z0-9_]*)`, `^\s*use\s+([A-Za-z_:]+)`},
	{"kotlin", ".kt", `^\s*fun\s+([A-Za-z_][A-Za-z0-9_]*)`, `^\s*import\s+([A-Za-z_.]+)`},
	{"swift", ".swift", `^\s*func\s+([A-Za-z_][A-Za-z0-9_]*)`, `^\s*import\s+([A-Za-z_.]+)`},
	{"scala", ".scala", `^\s*def\s+([A-Za-z_][A-Za-z0-9_]*)`, `^\s*import\s+([A-Za-z_.]+)`},
	{"c", ".c", `^[A-Za-z_][A-Za-z0-9_ *]*\s+([A-Za-z_][A-Za-z0-9_]*)\s*\([^;]*\)\s*\{`, `^\s*#include\s*[<"]([^>"]+)[>"]`},
	{"cpp", ".cpp", `^[A-Za-z_][A-Za-z0-9_ *:<>]*\s+([A-Za-z_][A-Za-z0-9_]*)\s*\([^;]*\)\s*\{`, `^\s*#include\s*[<"]([^>"]+)[>"]`},
	{"shell", ".sh", `^\s*(?:function\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*\(\)\s*\{`, ``},
}

// NewGenericAdapters builds one GenericAdapter per long-tail language
// entry, skipping any whose patterns fail to compile (none should, they
// are fixed literals, but construction stays error-returning for
// consistency with every other adapter constructor).
func NewGenericAdapters() ([]*GenericAdapter, error) {
	out := make([]*GenericAdapter, 0, len(genericLanguages))
	for _, l := range genericLanguages {
		var defn, imp *regexp.Regexp
		var err error
		if l.defnPat != "" {
			defn, err = regexp.Compile(l.defnPat)
			if err != nil {
				return nil, err
			}
		}
		if l.importPt != "" {
			imp, err = regexp.Compile(l.importPt)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, &GenericAdapter{id: l.id, exts: []string{l.ext}, defn: defn, imp: imp})
	}
	return out, nil
}
