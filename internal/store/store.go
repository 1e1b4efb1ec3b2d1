// Package store implements the Unified Store (spec.md §4.8): a single
// project-scoped SQLite database holding symbols, references, documents,
// lineage paths, service nodes, per-file snapshots and project metadata,
// with an FTS5 index backing multi-tier search. Grounded on the teacher's
// preference for hand-rolled data access over an ORM (internal/core's
// *_store.go files are all plain structs over slices/maps, never a query
// builder), translated here to database/sql over modernc.org/sqlite — the
// pack's only CGO-free SQLite driver (see DESIGN.md).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mikeparcewski/wicked-search/internal/obs"
)

// Store is the single-writer handle onto one project's SQLite database.
// Per spec.md §5's shared-resource policy, writes run against one shared
// *sql.DB serialized by writeMu. The *sql.DB is capped at one open
// connection (see Open), so reads through this handle wait for any
// in-flight write transaction; WAL is enabled but does not give
// concurrent readers here.
type Store struct {
	db      *sql.DB
	path    string
	writeMu sync.Mutex
}

// Open opens (creating if absent) the SQLite database at path, enables
// WAL and foreign keys, and runs migrate. An empty path opens an
// in-memory database, used by tests.
func Open(path string) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	dsn += "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// SQLite only tolerates one writer; modernc's driver doesn't pool
	// physical connections the way a server database would benefit from,
	// so capping at 1 avoids "database is locked" races across goroutines
	// sharing this *sql.DB.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the schema version this build of the store
// writes into project_meta, for callers (the gateway envelope) that need
// to surface it without reaching into an unexported constant.
func SchemaVersion() string {
	return schemaVersion
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}
	return nil
}

// CheckSchemaVersion reports whether project's recorded schema_version
// matches the current one. A project with no project_meta row yet is
// treated as matching (first index). Callers decide rebuild-or-refuse
// per spec.md §4.8.
func (s *Store) CheckSchemaVersion(ctx context.Context, project string) (matches bool, recorded string, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT schema_version FROM project_meta WHERE name = ?`, project)
	if err := row.Scan(&recorded); err != nil {
		if err == sql.ErrNoRows {
			return true, "", nil
		}
		return false, "", fmt.Errorf("check schema version: %w", err)
	}
	return recorded == schemaVersion, recorded, nil
}

// Rebuild drops every project-scoped row for project, leaving the schema
// itself intact, for the "refuse-or-rebuild" path on a schema mismatch.
func (s *Store) Rebuild(ctx context.Context, project string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rebuild: begin: %w", err)
	}
	defer tx.Rollback()

	tables := []string{"symbols", "refs", "symbols_fts", "documents", "lineage_paths", "services", "snapshots"}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE project = ?`, quoteIdent(t)), project); err != nil {
			return fmt.Errorf("rebuild: clear %s: %w", t, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM project_meta WHERE name = ?`, project); err != nil {
		return fmt.Errorf("rebuild: clear project_meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rebuild: commit: %w", err)
	}
	obs.Infof("project rebuilt", obs.F("project", project))
	return nil
}

// withWriteTx serializes writers across the Store: SQLite's own file lock
// would already block them, but serializing inside the process first
// avoids churning on SQLITE_BUSY retries under write-heavy incremental
// reindex bursts.
func (s *Store) withWriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// quoteIdent quotes a SQL identifier built from internal constants (never
// raw user input) per spec.md §4.8's "all dynamic column identifiers...
// are quoted for schema safety".
func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
