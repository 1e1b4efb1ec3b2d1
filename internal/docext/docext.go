// Package docext implements the Document Extractor Adapter (spec.md
// §4.3's document-layer counterpart to the code adapters): it turns a
// prose file into a Document with Sections and an optional frontmatter
// map, and separately scans that text for symbol mentions the Linker
// Registry resolves into "documents" References.
package docext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/russross/blackfriday/v2"
	"gopkg.in/yaml.v3"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// Extractor turns raw document bytes into structured text plus section
// boundaries. Implementations never error on malformed input: a file that
// doesn't parse as the expected format still gets a single whole-file
// Section, the prose equivalent of Adapter's fail-soft Parse contract.
// Extractors set Size from len(content) and leave MTime zero; the
// orchestrator's document pass stamps MTime.
type Extractor interface {
	ID() string
	Extensions() []string
	Extract(filePath string, content []byte) types.Document
}

// MarkdownExtractor is the concrete Extractor for Markdown/MDX sources.
// Frontmatter (a leading "---" YAML block) is parsed with yaml.v3;
// headings are walked out of blackfriday's AST into Sections, the same
// library go-md2man uses to render urfave/cli's generated man pages, here
// repurposed to read structure instead of to render it.
type MarkdownExtractor struct{}

func NewMarkdownExtractor() *MarkdownExtractor { return &MarkdownExtractor{} }

func (MarkdownExtractor) ID() string           { return "markdown" }
func (MarkdownExtractor) Extensions() []string { return []string{".md", ".mdx", ".markdown"} }

func (MarkdownExtractor) Extract(filePath string, content []byte) types.Document {
	body, frontmatter := splitFrontmatter(content)

	doc := types.Document{
		Path:        filePath,
		Text:        string(body),
		Frontmatter: frontmatter,
		Size:        int64(len(content)),
	}

	parser := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions))
	root := parser.Parse(body)

	offset := len(content) - len(body)
	var firstTitle string

	root.Walk(func(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if node.Type == blackfriday.Heading && entering {
			heading := headingText(node)
			if firstTitle == "" {
				firstTitle = heading
			}
			doc.Sections = append(doc.Sections, types.Section{
				Heading: heading,
				Level:   node.Level,
				Offset:  offset,
			})
		}
		return blackfriday.GoToNext
	})

	if len(doc.Sections) == 0 {
		doc.Sections = append(doc.Sections, types.Section{Heading: "", Level: 0, Offset: offset})
	}
	doc.Title = firstTitle
	return doc
}

func headingText(node *blackfriday.Node) string {
	var b strings.Builder
	child := node.FirstChild
	for child != nil {
		if child.Type == blackfriday.Text {
			b.Write(child.Literal)
		}
		child = child.Next
	}
	return b.String()
}

// splitFrontmatter separates a leading "---\n...\n---\n" YAML block from
// the rest of the document. Absence of a well-formed block (or a YAML
// parse error) is not an error: the whole file is returned as body and
// frontmatter is nil. Frontmatter values are flattened to strings since
// that is the shape types.Document.Frontmatter carries.
func splitFrontmatter(content []byte) ([]byte, map[string]string) {
	const delim = "---"
	if !bytes.HasPrefix(content, []byte(delim)) {
		return content, nil
	}
	rest := content[len(delim):]
	rest = bytes.TrimPrefix(rest, []byte("\n"))
	end := bytes.Index(rest, []byte("\n"+delim))
	if end == -1 {
		return content, nil
	}
	raw := rest[:end]
	body := rest[end+1+len(delim):]
	body = bytes.TrimPrefix(body, []byte("\n"))

	var parsed map[string]interface{}
	if err := yaml.Unmarshal(raw, &parsed); err != nil || parsed == nil {
		return content, nil
	}
	fm := make(map[string]string, len(parsed))
	for k, v := range parsed {
		fm[k] = fmt.Sprint(v)
	}
	return body, fm
}

// TextExtractor is the extension-agnostic fallback for plain prose: the
// whole file is one Section, no frontmatter.
type TextExtractor struct{ exts []string }

func NewTextExtractor(exts ...string) *TextExtractor { return &TextExtractor{exts: exts} }

func (t *TextExtractor) ID() string           { return "text" }
func (t *TextExtractor) Extensions() []string { return t.exts }

func (t *TextExtractor) Extract(filePath string, content []byte) types.Document {
	return types.Document{
		Path:     filePath,
		Text:     string(content),
		Size:     int64(len(content)),
		Sections: []types.Section{{Heading: "", Level: 0, Offset: 0}},
	}
}
