package store

// schemaVersion is bumped whenever schemaDDL changes shape in a way that
// invalidates existing data. Stored in project_meta and checked by
// CheckSchemaVersion, which the orchestrator calls at the start of each
// Index run (Open itself does not check it).
const schemaVersion = "1"

// schemaDDL creates every Unified Store table and index idempotently.
// Grounded on the teacher's preference for hand-written SQL over an ORM
// (see DESIGN.md) and on the other_examples store.go's table-per-concern
// layout, generalized to wicked-search's project-scoped schema (§4.8: all
// entities keyed by project, with a reserved "default" project).
const schemaDDL = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS project_meta (
	name            TEXT PRIMARY KEY,
	root_path       TEXT NOT NULL DEFAULT '',
	schema_version  TEXT NOT NULL,
	indexed_at      INTEGER NOT NULL DEFAULT 0,
	file_count      INTEGER NOT NULL DEFAULT 0,
	symbol_count    INTEGER NOT NULL DEFAULT 0,
	ref_count       INTEGER NOT NULL DEFAULT 0,
	workspace_hash  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS symbols (
	project         TEXT NOT NULL,
	id              TEXT NOT NULL,
	name            TEXT NOT NULL,
	qualified_name  TEXT NOT NULL,
	type            TEXT NOT NULL,
	layer           TEXT NOT NULL,
	file_path       TEXT NOT NULL,
	line_start      INTEGER NOT NULL,
	line_end        INTEGER NOT NULL,
	parent_id       TEXT NOT NULL DEFAULT '',
	language        TEXT NOT NULL DEFAULT '',
	domain          TEXT NOT NULL DEFAULT 'code',
	inferred_type   TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	domains_json    TEXT NOT NULL DEFAULT '[]',
	metadata_json   TEXT NOT NULL DEFAULT '{}',
	in_degree       INTEGER NOT NULL DEFAULT 0,
	out_degree      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (project, id)
);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(project, name);
CREATE INDEX IF NOT EXISTS idx_symbols_qname_lower ON symbols(project, qualified_name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(project, file_path);
CREATE INDEX IF NOT EXISTS idx_symbols_type ON symbols(project, type);
CREATE INDEX IF NOT EXISTS idx_symbols_layer ON symbols(project, layer);
CREATE INDEX IF NOT EXISTS idx_symbols_degree ON symbols(project, in_degree, out_degree);

CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
	project UNINDEXED,
	id UNINDEXED,
	name,
	qualified_name,
	description,
	tokenize = 'porter unicode61'
);

CREATE TABLE IF NOT EXISTS refs (
	project         TEXT NOT NULL,
	source_id       TEXT NOT NULL,
	target_id       TEXT NOT NULL DEFAULT '',
	type            TEXT NOT NULL,
	confidence      TEXT NOT NULL,
	file_path       TEXT NOT NULL DEFAULT '',
	line            INTEGER NOT NULL DEFAULT 0,
	metadata_json   TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_refs_source ON refs(project, source_id);
CREATE INDEX IF NOT EXISTS idx_refs_target ON refs(project, target_id);
CREATE INDEX IF NOT EXISTS idx_refs_type ON refs(project, type);
CREATE INDEX IF NOT EXISTS idx_refs_file ON refs(project, file_path);

CREATE TABLE IF NOT EXISTS documents (
	project         TEXT NOT NULL,
	path            TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	frontmatter_json TEXT NOT NULL DEFAULT '{}',
	mtime           INTEGER NOT NULL DEFAULT 0,
	size            INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (project, path)
);

CREATE TABLE IF NOT EXISTS lineage_paths (
	project         TEXT NOT NULL,
	root_id         TEXT NOT NULL,
	sink_id         TEXT NOT NULL,
	steps_json      TEXT NOT NULL,
	confidence      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lineage_root ON lineage_paths(project, root_id);
CREATE INDEX IF NOT EXISTS idx_lineage_sink ON lineage_paths(project, sink_id);

CREATE TABLE IF NOT EXISTS services (
	project         TEXT NOT NULL,
	name            TEXT NOT NULL,
	kind            TEXT NOT NULL DEFAULT '',
	ports_json      TEXT NOT NULL DEFAULT '[]',
	depends_on_json TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (project, name)
);

CREATE TABLE IF NOT EXISTS snapshots (
	project         TEXT NOT NULL,
	path            TEXT NOT NULL,
	content_hash    TEXT NOT NULL DEFAULT '',
	mtime           INTEGER NOT NULL DEFAULT 0,
	size            INTEGER NOT NULL DEFAULT 0,
	parsed_ok       INTEGER NOT NULL DEFAULT 1,
	symbol_count    INTEGER NOT NULL DEFAULT 0,
	adapter_id      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (project, path)
);
`
