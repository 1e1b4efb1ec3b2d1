package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

func TestSnakeCase_ConvertsCamelAndPascalCase(t *testing.T) {
	assert.Equal(t, "first_name", snakeCase("FirstName"))
	assert.Equal(t, "id", snakeCase("id"))
	assert.Equal(t, "user_id", snakeCase("userId"))
}

func TestPluralizeTable_AppliesConventionalSuffixRules(t *testing.T) {
	assert.Equal(t, "users", pluralizeTable("User"))
	assert.Equal(t, "categories", pluralizeTable("Category"))
	assert.Equal(t, "addresses", pluralizeTable("Address"))
	assert.Equal(t, "boxes", pluralizeTable("Box"))
	assert.Equal(t, "days", pluralizeTable("Day")) // trailing "y" preceded by vowel: not pluralized to "ies"
}

func TestAnnotationWindow_CollectsContiguousDecoratorLines(t *testing.T) {
	content := []byte("package foo\n\n@Entity\n@Table(name=\"users\")\npublic class User {\n")
	// startByte at the start of "public class User"
	idx := []byte("public class User")
	start := indexOf(content, idx)
	require.GreaterOrEqual(t, start, 0)

	window := annotationWindow(content, uint(start))
	assert.Contains(t, window, "@Entity")
	assert.Contains(t, window, "@Table(name=\"users\")")
}

func TestAnnotationWindow_StopsAtFirstNonDecoratorLine(t *testing.T) {
	content := []byte("import foo.Bar;\n@Entity\npublic class User {\n")
	start := indexOf(content, []byte("public class User"))
	require.GreaterOrEqual(t, start, 0)

	window := annotationWindow(content, uint(start))
	assert.NotContains(t, window, "import")
	assert.Contains(t, window, "@Entity")
}

func TestAnnotationArgs_ExtractsQuotedKeyValuePairs(t *testing.T) {
	args := annotationArgs(`@Column(name="email", type='varchar')`)
	assert.Equal(t, "email", args["name"])
	assert.Equal(t, "varchar", args["type"])
}

func TestBoolArgs_ExtractsUnquotedBooleans(t *testing.T) {
	args := boolArgs(`nullable=false, unique=True`)
	assert.Equal(t, false, args["nullable"])
	assert.Equal(t, true, args["unique"])
}

func TestHasAnnotation_MatchesWholeIdentifierOnly(t *testing.T) {
	assert.True(t, hasAnnotation("@Entity\n@Table(name=\"x\")", "Entity"))
	assert.False(t, hasAnnotation("@EntityScan", "Entity"))
}

func TestAnnotationArgsFor_ExtractsOneAnnotationsArgsFromMultiLineBlock(t *testing.T) {
	block := "@Entity\n@Table(name=\"users\", schema=\"public\")"
	args := annotationArgsFor(block, "Table")
	assert.Equal(t, "users", args["name"])
	assert.Equal(t, "public", args["schema"])

	empty := annotationArgsFor(block, "Missing")
	assert.Empty(t, empty)
}

func TestGenericArgOf_ExtractsCollectionElementType(t *testing.T) {
	assert.Equal(t, "Comment", genericArgOf("List<Comment>"))
	assert.Equal(t, "Comment", genericArgOf("ICollection<Comment>"))
	assert.Equal(t, "", genericArgOf("string"))
}

func TestCapitalize_TitlesFirstLetterOnly(t *testing.T) {
	assert.Equal(t, "Author", capitalize("author"))
	assert.Equal(t, "", capitalize(""))
}

func TestEntityFieldSymbol_DefaultsColumnNameToSnakeCase(t *testing.T) {
	sym, raw := entityFieldSymbol("models/user.py", "User", "firstName", "python", 10, "", "users", true)

	assert.Equal(t, "firstName", sym.Name)
	assert.Equal(t, "User.firstName", sym.QualifiedName)
	assert.Equal(t, types.SymbolEntityField, sym.Type)
	assert.Equal(t, types.LayerDatabase, sym.Layer)
	assert.Equal(t, "first_name", sym.Metadata["column_name"])
	assert.Equal(t, true, sym.Metadata["nullable"])

	assert.Equal(t, "User.firstName", raw.SourceQualifiedName)
	assert.Equal(t, sym.ID, raw.SourceSymbolID)
	assert.Equal(t, "models/user.py", raw.SourceFile)
	assert.Equal(t, "users::first_name", raw.TargetExpression)
	assert.Equal(t, types.RefMapsTo, raw.RefTypeHint)
}

func TestEntitySymbol_DefaultsTableNameViaPluralization(t *testing.T) {
	sym := entitySymbol("models/user.py", "User", "python", 1, "", "Model")
	assert.Equal(t, "users", sym.Metadata["table_name"])
	assert.Equal(t, "Model", sym.Metadata["base_class"])

	explicit := entitySymbol("models/user.py", "User", "python", 1, "app_users", "Model")
	assert.Equal(t, "app_users", explicit.Metadata["table_name"])
}

func TestAssociationRef_BuildsDependsOnReference(t *testing.T) {
	raw := associationRef("models/user.py", "User", "Profile", 12)
	assert.Equal(t, "User", raw.SourceQualifiedName)
	assert.Equal(t, "models/user.py", raw.SourceFile)
	assert.Equal(t, "Profile", raw.TargetExpression)
	assert.Equal(t, types.RefDependsOn, raw.RefTypeHint)
	assert.Equal(t, 12, raw.Line)
}

func indexOf(haystack, needle []byte) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
