package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// UpsertProjectMeta writes project's summary row, called at the end of an
// index run (spec.md §4.11 step 5: "update project_meta.indexed_at").
func (s *Store) UpsertProjectMeta(ctx context.Context, p types.Project) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO project_meta (name, root_path, schema_version, indexed_at, file_count, symbol_count, ref_count, workspace_hash)
			VALUES (?,?,?,?,?,?,?,?)
			ON CONFLICT(name) DO UPDATE SET
				root_path = excluded.root_path, schema_version = excluded.schema_version,
				indexed_at = excluded.indexed_at, file_count = excluded.file_count,
				symbol_count = excluded.symbol_count, ref_count = excluded.ref_count,
				workspace_hash = excluded.workspace_hash
		`, p.Name, p.RootPath, schemaVersion, p.IndexedAt, p.FileCount, p.SymbolCount, p.RefCount, p.WorkspaceHash)
		if err != nil {
			return fmt.Errorf("upsert project_meta %s: %w", p.Name, err)
		}
		return nil
	})
}

// GetProjectMeta looks up a project's summary row. defaultProject is
// created lazily: a miss for types.DefaultProject is not an error.
func (s *Store) GetProjectMeta(ctx context.Context, name string) (types.Project, bool, error) {
	var p types.Project
	row := s.db.QueryRowContext(ctx, `
		SELECT name, root_path, schema_version, indexed_at, file_count, symbol_count, ref_count, workspace_hash
		FROM project_meta WHERE name = ?
	`, name)
	if err := row.Scan(&p.Name, &p.RootPath, &p.SchemaVersion, &p.IndexedAt, &p.FileCount, &p.SymbolCount, &p.RefCount, &p.WorkspaceHash); err != nil {
		if err == sql.ErrNoRows {
			return types.Project{}, false, nil
		}
		return types.Project{}, false, fmt.Errorf("get project_meta: %w", err)
	}
	return p, true, nil
}

// ListProjects enumerates every indexed project, ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]types.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, root_path, schema_version, indexed_at, file_count, symbol_count, ref_count, workspace_hash
		FROM project_meta ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []types.Project
	for rows.Next() {
		var p types.Project
		if err := rows.Scan(&p.Name, &p.RootPath, &p.SchemaVersion, &p.IndexedAt, &p.FileCount, &p.SymbolCount, &p.RefCount, &p.WorkspaceHash); err != nil {
			return nil, fmt.Errorf("list projects scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
