package store

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Content implements the `content(id)` verb: the source text slice for a
// symbol, read fresh from disk at query time rather than cached in the
// store, since the indexed tree is expected to still be on disk when a
// client calls content() — the store only ever persisted locations, not
// bodies.
func (s *Store) Content(ctx context.Context, project, id, workspaceRoot string) (string, error) {
	sym, ok, err := s.GetSymbol(ctx, project, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("content: symbol %s not found", id)
	}

	abs := sym.FilePath
	if !filepath.IsAbs(abs) && workspaceRoot != "" {
		abs = filepath.Join(workspaceRoot, sym.FilePath)
	}
	f, err := os.Open(abs)
	if err != nil {
		return "", fmt.Errorf("content: open %s: %w", abs, err)
	}
	defer f.Close()

	var b strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if line < sym.LineStart {
			continue
		}
		if line > sym.LineEnd {
			break
		}
		b.WriteString(scanner.Text())
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("content: scan %s: %w", abs, err)
	}
	return b.String(), nil
}
