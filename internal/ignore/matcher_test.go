package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsIgnored_DefaultExclusions(t *testing.T) {
	m := New("/repo")
	require.True(t, m.IsIgnored("node_modules/left-pad/index.js", false))
	require.True(t, m.IsIgnored(".git/HEAD", false))
	require.False(t, m.IsIgnored("src/main.go", false))
}

func TestIsIgnored_NestedIgnoreFileScopedToItsSubtree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", ".wsignore"), []byte("*.log\n"), 0o644))

	m := New(root)
	m.EnterDir(root, "")
	m.EnterDir(filepath.Join(root, "sub"), "sub")

	require.True(t, m.IsIgnored("sub/debug.log", false))
	require.False(t, m.IsIgnored("other/debug.log", false))
}

func TestIsIgnored_NegationReincludes(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".wsignore"), []byte("*.log\n!important.log\n"), 0o644))

	m := New(root)
	m.EnterDir(root, "")

	require.True(t, m.IsIgnored("debug.log", false))
	require.False(t, m.IsIgnored("important.log", false))
}

func TestLeaveDir_PopsScopedRules(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, ".wsignore"), []byte("*.tmp\n"), 0o644))

	m := New(root)
	m.EnterDir(root, "")
	m.EnterDir(sub, "sub")
	require.True(t, m.IsIgnored("sub/scratch.tmp", false))

	m.LeaveDir()
	require.False(t, m.IsIgnored("sub/scratch.tmp", false), "popped rule set must no longer apply")
}
