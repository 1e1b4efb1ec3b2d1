// Package ignore implements the Ignore Matcher (spec.md §4.1): a
// hierarchical, per-directory exclusion list honoring nested ignore files
// and built-in defaults. Adapted from the teacher's single-root
// GitignoreParser (internal/config/gitignore.go), generalized to a stack
// of rule sets collected while walking so a nested .wsignore/.gitignore
// only affects paths under its own directory.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Rule is a single compiled ignore pattern.
type Rule struct {
	Pattern   string
	Negate    bool
	Directory bool
	Absolute  bool
}

// RuleSet is the patterns loaded from one directory's ignore file(s).
type RuleSet struct {
	Dir   string // directory the rules are anchored to, relative to the matcher root
	Rules []Rule
}

// defaultExclusions are built-in defaults: VCS metadata, build outputs,
// virtualenvs, OS junk, and the indexer's own cache directory.
var defaultExclusions = []string{
	".git/**", ".hg/**", ".svn/**",
	"node_modules/**", "vendor/**", "dist/**", "build/**", "target/**", "out/**",
	".venv/**", "venv/**", "__pycache__/**", "*.pyc",
	".DS_Store", "Thumbs.db",
	".wicked-search/**", ".wicked-search-cache/**",
}

// IgnoreFileNames are the files consulted at each directory, most specific
// project convention first.
var IgnoreFileNames = []string{".wsignore", ".gitignore"}

// Matcher evaluates is_ignored(path, is_dir) against a stack of per-directory
// RuleSets built up during a walk, honoring the "most-nested rule wins,
// negations can re-include" semantics of spec.md §4.1.
type Matcher struct {
	root    string
	stacks  []RuleSet // ordered root -> leaf; later entries are more specific
	visited map[string]bool
}

// New creates a Matcher rooted at root, seeded with the built-in defaults.
func New(root string) *Matcher {
	m := &Matcher{root: root, visited: make(map[string]bool)}
	m.stacks = append(m.stacks, RuleSet{Dir: "", Rules: parsePatterns(defaultExclusions)})
	return m
}

// EnterDir loads any ignore files present in dir (a path relative to root)
// and pushes a new RuleSet onto the stack. Call LeaveDir to pop it when the
// walk backs out of that directory. Canonicalizes dir so its ignore files
// are loaded at most once per Matcher lifetime: a repeat visit pushes an
// empty RuleSet to keep LeaveDir balanced. It does not stop the caller's
// walk from descending; loop avoidance is the walker's job.
func (m *Matcher) EnterDir(absDir, relDir string) {
	canon, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		canon = absDir
	}
	if m.visited[canon] {
		m.stacks = append(m.stacks, RuleSet{Dir: relDir})
		return
	}
	m.visited[canon] = true

	var rules []Rule
	for _, name := range IgnoreFileNames {
		lines, err := readLines(filepath.Join(absDir, name))
		if err != nil {
			continue
		}
		rules = append(rules, parsePatterns(lines)...)
	}
	m.stacks = append(m.stacks, RuleSet{Dir: relDir, Rules: rules})
}

// LeaveDir pops the RuleSet pushed by the matching EnterDir.
func (m *Matcher) LeaveDir() {
	if len(m.stacks) > 1 {
		m.stacks = m.stacks[:len(m.stacks)-1]
	}
}

// IsIgnored decides whether relPath (forward-slash, relative to root)
// should be excluded. The most-nested matching rule wins; negations can
// re-include a path an ancestor excluded.
func (m *Matcher) IsIgnored(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	ignored := false
	for _, set := range m.stacks {
		for _, rule := range set.Rules {
			if matches(rule, relPath, isDir, set.Dir) {
				ignored = !rule.Negate
			}
		}
	}
	return ignored
}

func parsePatterns(lines []string) []Rule {
	rules := make([]Rule, 0, len(lines))
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var r Rule
		if strings.HasPrefix(line, "!") {
			r.Negate = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			r.Directory = true
			line = strings.TrimSuffix(line, "/")
		}
		if strings.HasPrefix(line, "/") {
			r.Absolute = true
			line = line[1:]
		}
		r.Pattern = line
		rules = append(rules, r)
	}
	return rules
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// matches evaluates a single Rule against relPath, anchoring relative
// patterns at the ignore file's own directory (anchorDir) the way a nested
// .gitignore only governs its subtree.
func matches(rule Rule, relPath string, isDir bool, anchorDir string) bool {
	target := relPath
	if anchorDir != "" {
		prefix := anchorDir + "/"
		if !strings.HasPrefix(relPath, prefix) {
			return false
		}
		target = strings.TrimPrefix(relPath, prefix)
	}

	pattern := rule.Pattern
	if rule.Directory {
		if isDir {
			if ok, _ := doublestar.Match(pattern, target); ok {
				return true
			}
			return strings.HasPrefix(target, pattern+"/")
		}
		return strings.HasPrefix(target, pattern+"/")
	}

	if rule.Absolute {
		ok, _ := doublestar.Match(pattern, target)
		return ok
	}

	if ok, _ := doublestar.Match(pattern, target); ok {
		return true
	}
	// Relative, non-anchored patterns may also match any path component,
	// same as gitignore's "matches anywhere in the tree" rule.
	parts := strings.Split(target, "/")
	for i := range parts {
		suffix := strings.Join(parts[i:], "/")
		if ok, _ := doublestar.Match(pattern, suffix); ok {
			return true
		}
	}
	if !strings.Contains(pattern, "/") {
		if ok, _ := doublestar.Match("**/"+pattern, target); ok {
			return true
		}
	}
	return false
}
