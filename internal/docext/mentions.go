package docext

import (
	"regexp"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// mentionPattern finds candidate symbol-name tokens in prose: backtick-quoted
// identifiers, CamelCase/PascalCase words, and snake_case words. It is
// intentionally permissive; the Linker Registry's resolution step (exact-name
// lookup against the indexed symbol table) is what turns a candidate into a
// real "documents" Reference, so false positives here just become orphans,
// never wrong edges.
var mentionPattern = regexp.MustCompile(
	"`([A-Za-z_][A-Za-z0-9_.]*)`" + // backtick-quoted
		`|\b([A-Z][a-z0-9]+(?:[A-Z][a-z0-9]*)+)\b` + // PascalCase/CamelCase
		`|\b([a-z][a-z0-9]*(?:_[a-z0-9]+)+)\b`, // snake_case
)

// ScanMentions walks a Document's text for symbol-shaped tokens and emits
// one RawReference per match, typed RefDocuments; repeated mentions are
// not deduplicated.
// doc.Path is not a Symbol.ID or a real Symbol.QualifiedName — a document's
// own sections are keyed "path#heading", not "path" — so the Linker
// Registry's resolveSourceID can't turn this into a real source_id; it is
// kept as the best available provenance rather than left blank, and stored
// as-is on the Reference so the mention is still queryable by file even
// though it won't join against symbols.id.

func ScanMentions(doc types.Document) []types.RawReference {
	var refs []types.RawReference
	lineStart := 0
	line := 1
	text := doc.Text

	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			lineText := text[lineStart:i]
			for _, m := range mentionPattern.FindAllStringSubmatch(lineText, -1) {
				token := firstNonEmpty(m[1], m[2], m[3])
				if token == "" {
					continue
				}
				refs = append(refs, types.RawReference{
					SourceQualifiedName: doc.Path,
					SourceFile:          doc.Path,
					TargetExpression:    token,
					RefTypeHint:         types.RefDocuments,
					Line:                line,
				})
			}
			lineStart = i + 1
			line++
		}
	}
	return refs
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
