package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// Snapshots loads every per-file snapshot for project, for the
// orchestrator to diff against the current filesystem walk (spec.md
// §4.11 step 1: "load prior snapshots... compute change set").
func (s *Store) Snapshots(ctx context.Context, project string) (map[string]types.IndexSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, content_hash, mtime, size, parsed_ok, symbol_count, adapter_id FROM snapshots WHERE project = ?
	`, project)
	if err != nil {
		return nil, fmt.Errorf("snapshots: %w", err)
	}
	defer rows.Close()

	out := make(map[string]types.IndexSnapshot)
	for rows.Next() {
		var snap types.IndexSnapshot
		var parsedOK int
		if err := rows.Scan(&snap.Path, &snap.ContentHash, &snap.MTime, &snap.Size, &parsedOK, &snap.SymbolCount, &snap.AdapterID); err != nil {
			return nil, fmt.Errorf("snapshots scan: %w", err)
		}
		snap.ParsedOK = parsedOK != 0
		out[snap.Path] = snap
	}
	return out, rows.Err()
}

// PutSnapshot upserts a single file's snapshot row in its own
// transaction. ApplyFileUpdate is the variant that writes the snapshot in
// the same per-file transaction as the file's symbols/refs.
func (s *Store) PutSnapshot(ctx context.Context, project string, snap types.IndexSnapshot) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		return putSnapshotTx(ctx, tx, project, snap)
	})
}

func putSnapshotTx(ctx context.Context, tx *sql.Tx, project string, snap types.IndexSnapshot) error {
	parsedOK := 0
	if snap.ParsedOK {
		parsedOK = 1
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (project, path, content_hash, mtime, size, parsed_ok, symbol_count, adapter_id)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(project, path) DO UPDATE SET
			content_hash = excluded.content_hash, mtime = excluded.mtime, size = excluded.size,
			parsed_ok = excluded.parsed_ok, symbol_count = excluded.symbol_count, adapter_id = excluded.adapter_id
	`, project, snap.Path, snap.ContentHash, snap.MTime, snap.Size, parsedOK, snap.SymbolCount, snap.AdapterID)
	if err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", snap.Path, err)
	}
	return nil
}

// DeleteSnapshot removes a file's snapshot row, for the "removed" leg of
// an incremental change set.
func (s *Store) DeleteSnapshot(ctx context.Context, project, path string) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE project = ? AND path = ?`, project, path)
		if err != nil {
			return fmt.Errorf("delete snapshot %s: %w", path, err)
		}
		return nil
	})
}

// ApplyFileUpdate is the one-transaction unit of work the orchestrator
// runs per changed file (spec.md §5: "one transaction per file for
// incremental updates"): delete-then-insert of that file's symbols and
// refs, plus its snapshot row, committed or rolled back together.
func (s *Store) ApplyFileUpdate(ctx context.Context, project string, snap types.IndexSnapshot, symbols []types.Symbol, refs []types.Reference) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		if err := putSymbolsTx(ctx, tx, project, snap.Path, symbols); err != nil {
			return err
		}
		if err := putRefsTx(ctx, tx, project, snap.Path, refs); err != nil {
			return err
		}
		return putSnapshotTx(ctx, tx, project, snap)
	})
}

// RemoveFile is the one-transaction unit of work for a file the change
// set marks Removed: its symbols, refs and snapshot row all disappear
// together.
func (s *Store) RemoveFile(ctx context.Context, project, path string) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		return deleteFileTx(ctx, tx, project, path)
	})
}
