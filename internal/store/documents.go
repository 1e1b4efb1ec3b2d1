package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// PutDocument upserts a Document row and, in the same transaction, the
// doc_section Symbols its Sections emit — spec.md §4.8's "sections as
// child symbols" note, which lets a document heading participate in the
// reference graph (e.g. a `documents` edge from a doc section to the code
// symbol it names) on equal footing with code.
func (s *Store) PutDocument(ctx context.Context, project string, doc types.Document, sectionSymbols []types.Symbol) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		fmJSON, err := json.Marshal(doc.Frontmatter)
		if err != nil {
			return fmt.Errorf("marshal frontmatter: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO documents (project, path, title, frontmatter_json, mtime, size)
			VALUES (?,?,?,?,?,?)
			ON CONFLICT(project, path) DO UPDATE SET
				title = excluded.title, frontmatter_json = excluded.frontmatter_json,
				mtime = excluded.mtime, size = excluded.size
		`, project, doc.Path, doc.Title, string(fmJSON), doc.MTime, doc.Size); err != nil {
			return fmt.Errorf("upsert document %s: %w", doc.Path, err)
		}
		return putSymbolsTx(ctx, tx, project, doc.Path, sectionSymbols)
	})
}

// GetDocument looks up a document by path.
func (s *Store) GetDocument(ctx context.Context, project, path string) (types.Document, bool, error) {
	var doc types.Document
	var fmJSON string
	row := s.db.QueryRowContext(ctx, `SELECT path, title, frontmatter_json, mtime, size FROM documents WHERE project = ? AND path = ?`, project, path)
	if err := row.Scan(&doc.Path, &doc.Title, &fmJSON, &doc.MTime, &doc.Size); err != nil {
		if err == sql.ErrNoRows {
			return types.Document{}, false, nil
		}
		return types.Document{}, false, fmt.Errorf("get document: %w", err)
	}
	if fmJSON != "" {
		_ = json.Unmarshal([]byte(fmJSON), &doc.Frontmatter)
	}
	return doc, true, nil
}

// DeleteDocument removes a document row and its section symbols.
func (s *Store) DeleteDocument(ctx context.Context, project, path string) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE project = ? AND path = ?`, project, path); err != nil {
			return fmt.Errorf("delete document %s: %w", path, err)
		}
		return putSymbolsTx(ctx, tx, project, path, nil)
	})
}
