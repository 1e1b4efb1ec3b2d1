package discovery

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/mikeparcewski/wicked-search/internal/config"
	"github.com/mikeparcewski/wicked-search/internal/ignore"
	"github.com/mikeparcewski/wicked-search/internal/obs"
	"github.com/mikeparcewski/wicked-search/internal/workspacehash"
)

// binaryPreCheckThreshold and binaryPreCheckBytes bound the slow-path
// magic-number probe to files above this size, mirroring the
// teacher's types.BinaryPreCheckSizeThreshold/BinaryPreCheckBytes split
// between a cheap extension check and an expensive content read.
const (
	binaryPreCheckThreshold = 64 * 1024
	binaryPreCheckBytes     = 512
)

// File is one discovered, non-ignored, non-binary file with its content
// hash, ready for the Parsing Pool or for diffing against a prior snapshot.
type File struct {
	AbsPath     string
	RelPath     string // forward-slash, relative to the project root
	Size        int64
	ContentHash string
}

// ChangeSet is the minimal diff the Incremental Orchestrator needs: which
// files are new, modified by content hash, removed since the last
// IndexSnapshot, or unchanged (and therefore skippable).
type ChangeSet struct {
	Added     []File
	Modified  []File
	Removed   []string // relative paths no longer present
	Unchanged []File
}

// Scanner walks a project root applying the Ignore Matcher and binary
// detector, grounded on the teacher's FileScanner (internal/indexing/pipeline_scanner.go)
// collapsed from os.FileInfo-era filepath.Walk into a recursive
// os.ReadDir walk that visits each canonical directory at most once, so
// symlink loops are never traversed.
type Scanner struct {
	cfg     *config.Config
	binary  *BinaryDetector
	matcher *ignore.Matcher
}

func NewScanner(cfg *config.Config) *Scanner {
	return &Scanner{cfg: cfg, binary: NewBinaryDetector(), matcher: ignore.New(cfg.Project.Root)}
}

// Walk discovers every eligible file under the project root in
// deterministic (lexical) order, required so two runs over an unchanged
// tree produce byte-identical ChangeSets and therefore identical
// downstream workspace hashes.
func (s *Scanner) Walk() ([]File, error) {
	var files []File
	root := s.cfg.Project.Root

	visited := make(map[string]bool)
	var walk func(absDir, relDir string) error
	walk = func(absDir, relDir string) error {
		if canon, err := filepath.EvalSymlinks(absDir); err == nil {
			if visited[canon] {
				return nil
			}
			visited[canon] = true
		}
		s.matcher.EnterDir(absDir, relDir)
		defer s.matcher.LeaveDir()

		entries, err := os.ReadDir(absDir)
		if err != nil {
			obs.Warnf("cannot read directory", obs.F("dir", absDir), obs.F("error", err.Error()))
			return nil
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, entry := range entries {
			absPath := filepath.Join(absDir, entry.Name())
			relPath := entry.Name()
			if relDir != "" {
				relPath = relDir + "/" + entry.Name()
			}

			info, err := entry.Info()
			if err != nil {
				continue
			}
			isDir := entry.IsDir()
			if !isDir && info.Mode()&os.ModeSymlink != 0 {
				if !s.cfg.Index.FollowSymlinks {
					continue
				}
				resolved, err := os.Stat(absPath)
				if err != nil {
					continue
				}
				isDir = resolved.IsDir()
			}

			if s.cfg.Index.RespectGitignore && s.matcher.IsIgnored(relPath, isDir) {
				continue
			}

			if isDir {
				if err := walk(absPath, relPath); err != nil {
					return err
				}
				continue
			}

			if !s.shouldProcessFile(absPath, info) {
				continue
			}
			f, err := s.readFile(absPath, relPath, info.Size())
			if err != nil {
				obs.Warnf("unreadable file, skipping", obs.F("path", absPath), obs.F("error", err.Error()))
				continue
			}
			files = append(files, f)
		}
		return nil
	}

	if err := walk(root, ""); err != nil {
		return nil, err
	}
	return files, nil
}

func (s *Scanner) shouldProcessFile(path string, info os.FileInfo) bool {
	if s.binary.IsBinaryByExtension(path) {
		return false
	}
	if info.Size() > s.cfg.Index.MaxFileSize {
		return false
	}
	if info.Size() > binaryPreCheckThreshold && s.preCheckBinary(path) {
		return false
	}
	return true
}

// preCheckBinary reads only the first binaryPreCheckBytes of a large file
// to decide if it's binary, avoiding loading the whole thing into memory
// just to throw it away.
func (s *Scanner) preCheckBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()
	buf := make([]byte, binaryPreCheckBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return true
	}
	return s.binary.IsBinaryByMagicNumber(buf[:n])
}

func (s *Scanner) readFile(absPath, relPath string, size int64) (File, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return File{}, err
	}
	if s.binary.IsBinaryByMagicNumber(content) {
		return File{}, os.ErrInvalid
	}
	return File{
		AbsPath:     absPath,
		RelPath:     filepath.ToSlash(relPath),
		Size:        size,
		ContentHash: workspacehash.ContentHash(content),
	}, nil
}

// Diff compares a fresh Walk result against the (relpath -> content_hash)
// map recorded in the prior IndexSnapshot, producing the minimal change
// set the Incremental Orchestrator needs to avoid re-parsing unchanged
// files (spec.md §4.4, §4.9's fast-path-on-empty-change-set).
func Diff(current []File, previous map[string]string) ChangeSet {
	var cs ChangeSet
	seen := make(map[string]bool, len(current))

	for _, f := range current {
		seen[f.RelPath] = true
		prevHash, existed := previous[f.RelPath]
		switch {
		case !existed:
			cs.Added = append(cs.Added, f)
		case prevHash != f.ContentHash:
			cs.Modified = append(cs.Modified, f)
		default:
			cs.Unchanged = append(cs.Unchanged, f)
		}
	}
	for relPath := range previous {
		if !seen[relPath] {
			cs.Removed = append(cs.Removed, relPath)
		}
	}
	sort.Strings(cs.Removed)
	return cs
}

// WorkspaceHash computes the canonical workspace hash over every
// currently-discovered file, independent of incremental state.
func WorkspaceHash(files []File) string {
	digests := make([]workspacehash.FileDigest, 0, len(files))
	for _, f := range files {
		digests = append(digests, workspacehash.FileDigest{RelPath: f.RelPath, ContentHash: f.ContentHash})
	}
	return workspacehash.Workspace(digests)
}
