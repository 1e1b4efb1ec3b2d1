package docext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

func TestMarkdownExtractor_ParsesFrontmatterAndHeadings(t *testing.T) {
	e := NewMarkdownExtractor()
	content := []byte("---\ntitle: Widgets\nowner: team-x\n---\n# Widgets\n\nSome prose.\n\n## Usage\n\nMore prose.\n")

	doc := e.Extract("docs/widgets.md", content)

	require.Equal(t, "Widgets", doc.Frontmatter["title"])
	require.Equal(t, "team-x", doc.Frontmatter["owner"])
	require.Equal(t, "Widgets", doc.Title)
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "Widgets", doc.Sections[0].Heading)
	assert.Equal(t, 1, doc.Sections[0].Level)
	assert.Equal(t, "Usage", doc.Sections[1].Heading)
	assert.Equal(t, 2, doc.Sections[1].Level)
}

func TestMarkdownExtractor_NoFrontmatterStillExtracts(t *testing.T) {
	e := NewMarkdownExtractor()
	content := []byte("# Just a title\n\nbody text\n")

	doc := e.Extract("README.md", content)

	assert.Nil(t, doc.Frontmatter)
	assert.Equal(t, "Just a title", doc.Title)
	require.Len(t, doc.Sections, 1)
}

func TestMarkdownExtractor_MalformedFrontmatterFallsBackToWholeFile(t *testing.T) {
	e := NewMarkdownExtractor()
	content := []byte("---\nnot: [valid: yaml\n# heading\n")

	doc := e.Extract("broken.md", content)

	assert.Nil(t, doc.Frontmatter)
	assert.Contains(t, doc.Text, "not: [valid: yaml")
}

func TestMarkdownExtractor_NoHeadingsYieldsOneWholeFileSection(t *testing.T) {
	e := NewMarkdownExtractor()
	doc := e.Extract("plain.md", []byte("just prose, no headings at all\n"))

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "", doc.Sections[0].Heading)
}

func TestTextExtractor_WholeFileIsOneSection(t *testing.T) {
	e := NewTextExtractor(".txt", ".rst")
	doc := e.Extract("notes.txt", []byte("hello\nworld\n"))

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "hello\nworld\n", doc.Text)
	assert.ElementsMatch(t, []string{".txt", ".rst"}, e.Extensions())
}

func TestRegistry_RegisterBuiltinsCoversMarkdownAndText(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltins(r)

	md, ok := r.For(".md")
	require.True(t, ok)
	assert.Equal(t, "markdown", md.ID())

	txt, ok := r.For(".txt")
	require.True(t, ok)
	assert.Equal(t, "text", txt.ID())

	_, ok = r.For(".unknown")
	assert.False(t, ok)
}

func TestScanMentions_FindsBacktickedAndCamelCaseTokens(t *testing.T) {
	doc := newDoc("guide.md", "Call `make_widget` from WidgetFactory on line one.\nAnother line about snake_case_name.\n")

	refs := ScanMentions(doc)

	var tokens []string
	for _, r := range refs {
		tokens = append(tokens, r.TargetExpression)
		assert.Equal(t, "guide.md", r.SourceFile)
		assert.Equal(t, "guide.md", r.SourceQualifiedName)
	}
	assert.Contains(t, tokens, "make_widget")
	assert.Contains(t, tokens, "WidgetFactory")
	assert.Contains(t, tokens, "snake_case_name")
}

func TestScanMentions_LineNumbersAreOneIndexedAndSequential(t *testing.T) {
	doc := newDoc("guide.md", "no mentions here\n`TokenOne`\n`TokenTwo`\n")

	refs := ScanMentions(doc)

	require.Len(t, refs, 2)
	assert.Equal(t, 2, refs[0].Line)
	assert.Equal(t, 3, refs[1].Line)
}

func TestScanMentions_NoMentionsReturnsEmpty(t *testing.T) {
	doc := newDoc("guide.md", "just ordinary lowercase words here\n")
	assert.Empty(t, ScanMentions(doc))
}

func newDoc(path, text string) types.Document {
	return types.Document{Path: path, Text: text}
}
