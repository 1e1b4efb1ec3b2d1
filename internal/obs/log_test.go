package obs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withCapturedOutput(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	prev := out
	SetOutput(&buf)
	defer SetOutput(prev)
	fn()
	return buf.String()
}

func TestPrintf_SilentByDefault(t *testing.T) {
	prevVerbose := EnableVerbose
	EnableVerbose = false
	defer func() { EnableVerbose = prevVerbose }()

	got := withCapturedOutput(t, func() {
		Printf("some diagnostic %d", 42)
	})
	assert.Empty(t, got)
}

func TestPrintf_EmitsWhenVerboseEnabled(t *testing.T) {
	prevVerbose := EnableVerbose
	EnableVerbose = true
	defer func() { EnableVerbose = prevVerbose }()

	got := withCapturedOutput(t, func() {
		Printf("scanning %s", "repo")
	})
	assert.Contains(t, got, "[wicked-search] scanning repo")
}

func TestWarnf_FormatsStructuredFields(t *testing.T) {
	got := withCapturedOutput(t, func() {
		Warnf("adapter unavailable", F("adapter", "go"), F("error", "boom"))
	})
	assert.Contains(t, got, "WARN adapter unavailable")
	assert.Contains(t, got, "adapter=go")
	assert.Contains(t, got, "error=boom")
}

func TestInfof_WithNoFieldsHasNoTrailingSpace(t *testing.T) {
	got := withCapturedOutput(t, func() {
		Infof("index run complete")
	})
	lines := strings.TrimRight(got, "\n")
	assert.True(t, strings.HasSuffix(lines, "index run complete"))
}

func TestErrorf_IncludesErrorLevel(t *testing.T) {
	got := withCapturedOutput(t, func() {
		Errorf("storage failure", F("project", "demo"))
	})
	assert.Contains(t, got, "ERROR storage failure")
	assert.Contains(t, got, "project=demo")
}

func TestF_BuildsFieldPair(t *testing.T) {
	f := F("count", 7)
	assert.Equal(t, "count", f.Key)
	assert.Equal(t, 7, f.Value)
}
