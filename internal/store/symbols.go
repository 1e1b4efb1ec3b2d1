package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// PutSymbols replaces filePath's symbols within project in one transaction:
// delete-then-insert, matching spec.md §4.11 step 3's per-file incremental
// model. The FTS shadow table is kept in lockstep by hand since
// modernc.org/sqlite's fts5 module doesn't wire external-content triggers
// for us automatically in this schema (the content table isn't declared
// as fts5's external content source).
func (s *Store) PutSymbols(ctx context.Context, project, filePath string, symbols []types.Symbol) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		return putSymbolsTx(ctx, tx, project, filePath, symbols)
	})
}

func putSymbolsTx(ctx context.Context, tx *sql.Tx, project, filePath string, symbols []types.Symbol) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM symbols_fts WHERE project = ? AND id IN (
		SELECT id FROM symbols WHERE project = ? AND file_path = ?
	)`, project, project, filePath); err != nil {
		return fmt.Errorf("delete fts for %s: %w", filePath, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM symbols WHERE project = ? AND file_path = ?`, project, filePath); err != nil {
		return fmt.Errorf("delete symbols for %s: %w", filePath, err)
	}

	insertSym, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols (
			project, id, name, qualified_name, type, layer, file_path,
			line_start, line_end, parent_id, language, domain, inferred_type,
			description, domains_json, metadata_json
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		return fmt.Errorf("prepare symbol insert: %w", err)
	}
	defer insertSym.Close()

	insertFTS, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols_fts (project, id, name, qualified_name, description) VALUES (?,?,?,?,?)
	`)
	if err != nil {
		return fmt.Errorf("prepare fts insert: %w", err)
	}
	defer insertFTS.Close()

	for _, sym := range symbols {
		if err := sym.Validate(); err != nil {
			return fmt.Errorf("invalid symbol: %w", err)
		}
		domainsJSON, err := json.Marshal(sym.Domains)
		if err != nil {
			return fmt.Errorf("marshal domains for %s: %w", sym.ID, err)
		}
		metaJSON, err := json.Marshal(sym.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", sym.ID, err)
		}
		if _, err := insertSym.ExecContext(ctx,
			project, sym.ID, sym.Name, sym.QualifiedName, string(sym.Type), string(sym.Layer), sym.FilePath,
			sym.LineStart, sym.LineEnd, sym.ParentID, sym.Language, string(sym.Domain), string(sym.InferredType),
			sym.Description, string(domainsJSON), string(metaJSON),
		); err != nil {
			return fmt.Errorf("insert symbol %s: %w", sym.ID, err)
		}
		if _, err := insertFTS.ExecContext(ctx, project, sym.ID, sym.Name, sym.QualifiedName, sym.Description); err != nil {
			return fmt.Errorf("insert fts %s: %w", sym.ID, err)
		}
	}
	return nil
}

// DeleteFile removes every symbol and ref rooted at filePath, for the
// "removed" leg of an incremental change set.
func (s *Store) DeleteFile(ctx context.Context, project, filePath string) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		return deleteFileTx(ctx, tx, project, filePath)
	})
}

func deleteFileTx(ctx context.Context, tx *sql.Tx, project, filePath string) error {
	if err := putSymbolsTx(ctx, tx, project, filePath, nil); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM refs WHERE project = ? AND file_path = ?`, project, filePath); err != nil {
		return fmt.Errorf("delete refs for %s: %w", filePath, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE project = ? AND path = ?`, project, filePath); err != nil {
		return fmt.Errorf("delete snapshot for %s: %w", filePath, err)
	}
	return nil
}

func scanSymbol(row interface{ Scan(...interface{}) error }) (types.Symbol, error) {
	var sym types.Symbol
	var typ, layer, domain, inferred, domainsJSON, metaJSON string
	if err := row.Scan(
		&sym.ID, &sym.Name, &sym.QualifiedName, &typ, &layer, &sym.FilePath,
		&sym.LineStart, &sym.LineEnd, &sym.ParentID, &sym.Language, &domain, &inferred,
		&sym.Description, &domainsJSON, &metaJSON,
	); err != nil {
		return sym, err
	}
	sym.Type = types.SymbolType(typ)
	sym.Layer = types.Layer(layer)
	sym.Domain = types.Domain(domain)
	sym.InferredType = types.InferredType(inferred)
	if domainsJSON != "" {
		_ = json.Unmarshal([]byte(domainsJSON), &sym.Domains)
	}
	if metaJSON != "" {
		_ = json.Unmarshal([]byte(metaJSON), &sym.Metadata)
	}
	return sym, nil
}

const symbolColumns = `id, name, qualified_name, type, layer, file_path,
	line_start, line_end, parent_id, language, domain, inferred_type,
	description, domains_json, metadata_json`

// GetSymbol implements the O(1) `get` verb (spec.md §4.9) by primary key.
func (s *Store) GetSymbol(ctx context.Context, project, id string) (types.Symbol, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE project = ? AND id = ?`, project, id)
	sym, err := scanSymbol(row)
	if err == sql.ErrNoRows {
		return types.Symbol{}, false, nil
	}
	if err != nil {
		return types.Symbol{}, false, fmt.Errorf("get symbol: %w", err)
	}
	return sym, true, nil
}

// ByID satisfies linker.SymbolTable with a best-effort, context-less
// lookup against the default project.
func (s *Store) ByID(id string) (types.Symbol, bool) {
	sym, ok, err := s.GetSymbol(context.Background(), types.DefaultProject, id)
	if err != nil {
		return types.Symbol{}, false
	}
	return sym, ok
}

// ByQualifiedName satisfies linker.SymbolTable: exact, case-sensitive match.
func (s *Store) ByQualifiedName(name string) (types.Symbol, bool) {
	row := s.db.QueryRow(`SELECT `+symbolColumns+` FROM symbols WHERE project = ? AND qualified_name = ? LIMIT 1`,
		types.DefaultProject, name)
	sym, err := scanSymbol(row)
	if err != nil {
		return types.Symbol{}, false
	}
	return sym, true
}

// ByName satisfies linker.SymbolTable: every symbol sharing a simple name.
func (s *Store) ByName(name string) []types.Symbol {
	rows, err := s.db.Query(`SELECT `+symbolColumns+` FROM symbols WHERE project = ? AND name = ? ORDER BY id`,
		types.DefaultProject, name)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []types.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			continue
		}
		out = append(out, sym)
	}
	return out
}

// List implements the `list(source)` verb: paginated, stable-ordered
// enumeration.
func (s *Store) List(ctx context.Context, project string, limit, offset int) ([]types.Symbol, int, error) {
	limit, offset = clampPage(limit, offset)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM symbols WHERE project = ?`, project).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("list: count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE project = ?
		ORDER BY file_path, line_start, id LIMIT ? OFFSET ?`, project, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var out []types.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list: scan: %w", err)
		}
		out = append(out, sym)
	}
	return out, total, rows.Err()
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Search implements the five-tier ranked search described in spec.md §4.9.
// Each tier is tried in order; the first tier to produce any hits wins —
// tiers are not merged, matching "exact id match" through "substring on
// qualified_name" being strictly ordered fallbacks, not a blended score.
func (s *Store) Search(ctx context.Context, project, query string, limit int) ([]types.Symbol, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if query == "" {
		return nil, nil
	}

	tiers := []func(context.Context, string, string, int) ([]types.Symbol, error){
		s.searchByID, s.searchByExactName, s.searchByNamePrefix, s.searchFTS, s.searchByQualifiedSubstring,
	}
	for _, tier := range tiers {
		syms, err := tier(ctx, project, query, limit)
		if err != nil {
			return nil, err
		}
		if len(syms) > 0 {
			return rankSymbols(ctx, s.db, syms), nil
		}
	}
	return nil, nil
}

func (s *Store) searchTierQuery(ctx context.Context, q string, args ...interface{}) ([]types.Symbol, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search tier: %w", err)
	}
	defer rows.Close()
	var out []types.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("search tier: scan: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *Store) searchByID(ctx context.Context, project, query string, limit int) ([]types.Symbol, error) {
	return s.searchTierQuery(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE project = ? AND id = ? LIMIT ?`,
		project, query, limit)
}

func (s *Store) searchByExactName(ctx context.Context, project, query string, limit int) ([]types.Symbol, error) {
	return s.searchTierQuery(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE project = ? AND name = ? LIMIT ?`,
		project, query, limit)
}

func (s *Store) searchByNamePrefix(ctx context.Context, project, query string, limit int) ([]types.Symbol, error) {
	return s.searchTierQuery(ctx,
		`SELECT `+symbolColumns+` FROM symbols WHERE project = ? AND name LIKE ? ESCAPE '\' COLLATE NOCASE LIMIT ?`,
		project, likePrefix(query), limit)
}

func (s *Store) searchFTS(ctx context.Context, project, query string, limit int) ([]types.Symbol, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.`+strings.ReplaceAll(symbolColumns, ", ", ", s.")+`
		FROM symbols_fts f
		JOIN symbols s ON s.project = f.project AND s.id = f.id
		WHERE f.project = ? AND symbols_fts MATCH ?
		ORDER BY rank LIMIT ?
	`, project, ftsQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search fts: %w", err)
	}
	defer rows.Close()
	var out []types.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("search fts: scan: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *Store) searchByQualifiedSubstring(ctx context.Context, project, query string, limit int) ([]types.Symbol, error) {
	return s.searchTierQuery(ctx,
		`SELECT `+symbolColumns+` FROM symbols WHERE project = ? AND qualified_name LIKE ? ESCAPE '\' COLLATE NOCASE LIMIT ?`,
		project, likeContains(query), limit)
}

func likePrefix(q string) string  { return escapeLike(q) + "%" }
func likeContains(q string) string { return "%" + escapeLike(q) + "%" }

func escapeLike(q string) string {
	q = strings.ReplaceAll(q, `\`, `\\`)
	q = strings.ReplaceAll(q, "%", `\%`)
	q = strings.ReplaceAll(q, "_", `\_`)
	return q
}

// ftsQuery quotes the user's query as a single FTS5 phrase so punctuation
// in symbol names (generics' angle brackets, qualified-name dots) can't be
// misread as FTS5 query-syntax operators.
func ftsQuery(q string) string {
	return `"` + strings.ReplaceAll(q, `"`, `""`) + `"`
}

// rankSymbols applies spec.md §4.9's tie-break: fewer symbols in the
// owning file ranks higher (a less noisy file), then lexicographic by
// qualified name.
func rankSymbols(ctx context.Context, db *sql.DB, syms []types.Symbol) []types.Symbol {
	counts := make(map[string]int, len(syms))
	for _, sym := range syms {
		if _, ok := counts[sym.FilePath]; ok {
			continue
		}
		var n int
		_ = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM symbols WHERE file_path = ?`, sym.FilePath).Scan(&n)
		counts[sym.FilePath] = n
	}
	sort.SliceStable(syms, func(i, j int) bool {
		if counts[syms[i].FilePath] != counts[syms[j].FilePath] {
			return counts[syms[i].FilePath] < counts[syms[j].FilePath]
		}
		return syms[i].QualifiedName < syms[j].QualifiedName
	})
	return syms
}

// Stats implements the `stats(source)` verb's aggregate counts and
// histograms.
type Stats struct {
	Total    int            `json:"total"`
	ByType   map[string]int `json:"by_type"`
	ByLayer  map[string]int `json:"by_layer"`
	ByLang   map[string]int `json:"by_language"`
	ByDomain map[string]int `json:"by_domain"`
}

func (s *Store) Stats(ctx context.Context, project string) (Stats, error) {
	st := Stats{ByType: map[string]int{}, ByLayer: map[string]int{}, ByLang: map[string]int{}, ByDomain: map[string]int{}}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM symbols WHERE project = ?`, project).Scan(&st.Total); err != nil {
		return st, fmt.Errorf("stats: total: %w", err)
	}

	histograms := []struct {
		column string
		dst    map[string]int
	}{
		{"type", st.ByType},
		{"layer", st.ByLayer},
		{"language", st.ByLang},
		{"domain", st.ByDomain},
	}
	for _, h := range histograms {
		rows, err := s.db.QueryContext(ctx, `SELECT `+quoteIdent(h.column)+`, COUNT(*) FROM symbols WHERE project = ? GROUP BY `+quoteIdent(h.column), project)
		if err != nil {
			return st, fmt.Errorf("stats: %s histogram: %w", h.column, err)
		}
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return st, fmt.Errorf("stats: %s scan: %w", h.column, err)
			}
			h.dst[key] = n
		}
		rows.Close()
	}
	return st, nil
}

// RefreshDegrees recomputes in_degree/out_degree for every symbol in
// project from the current refs table, per spec.md §4.9's note that
// hotspots runs against a materialized view "refreshed at index end".
func (s *Store) RefreshDegrees(ctx context.Context, project string) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE symbols SET in_degree = 0, out_degree = 0 WHERE project = ?`, project); err != nil {
			return fmt.Errorf("reset degrees: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE symbols SET out_degree = (
				SELECT COUNT(*) FROM refs WHERE refs.project = symbols.project AND refs.source_id = symbols.id
			) WHERE project = ?`, project); err != nil {
			return fmt.Errorf("out_degree: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE symbols SET in_degree = (
				SELECT COUNT(*) FROM refs WHERE refs.project = symbols.project AND refs.target_id = symbols.id AND refs.target_id != ''
			) WHERE project = ?`, project); err != nil {
			return fmt.Errorf("in_degree: %w", err)
		}
		return nil
	})
}

// Hotspots implements the `hotspots(limit, filters)` verb.
func (s *Store) Hotspots(ctx context.Context, project string, limit int, layer, symType string) ([]types.Symbol, error) {
	if limit <= 0 || limit > 500 {
		limit = 20
	}
	q := `SELECT ` + symbolColumns + ` FROM symbols WHERE project = ?`
	args := []interface{}{project}
	if layer != "" {
		q += ` AND layer = ?`
		args = append(args, layer)
	}
	if symType != "" {
		q += ` AND type = ?`
		args = append(args, symType)
	}
	q += ` ORDER BY (in_degree + out_degree) DESC, qualified_name LIMIT ?`
	args = append(args, limit)

	return s.searchTierQuery(ctx, q, args...)
}

// SymbolsByLayer returns every symbol in project whose Layer is one of
// layers, used to seed lineage computation's UI/DB anchor sets (§4.11
// step 5).
func (s *Store) SymbolsByLayer(ctx context.Context, project string, layers ...types.Layer) ([]types.Symbol, error) {
	if len(layers) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(layers))
	args := make([]interface{}, 0, len(layers)+1)
	args = append(args, project)
	for i, l := range layers {
		placeholders[i] = "?"
		args = append(args, string(l))
	}
	q := `SELECT ` + symbolColumns + ` FROM symbols WHERE project = ? AND layer IN (` + strings.Join(placeholders, ",") + `) ORDER BY id`
	return s.searchTierQuery(ctx, q, args...)
}
