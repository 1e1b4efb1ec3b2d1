package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterBuiltins_CoversStructuralAndGenericExtensions(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltins(r)

	for _, ext := range []string{".go", ".py", ".js", ".ts", ".tsx", ".java", ".php", ".cs"} {
		assert.NotEmpty(t, r.For(ext), "expected a structural adapter for %s", ext)
	}
	for _, ext := range []string{".rb", ".rs", ".kt", ".swift", ".scala", ".c", ".cpp", ".sh"} {
		assert.NotEmpty(t, r.For(ext), "expected a generic-fallback adapter for %s", ext)
	}
}

func TestRegisterBuiltins_GoExtensionCarriesBothStructuralAndORMAdapters(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltins(r)

	goAdapters := r.For(".go")
	var ids []string
	for _, a := range goAdapters {
		ids = append(ids, a.ID())
	}
	assert.Contains(t, ids, "go")
	assert.Contains(t, ids, "gorm")
}
