package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// PutRefs replaces filePath's references within project, mirroring
// PutSymbols' delete-then-insert contract. References are keyed on the
// owning file because a reference's source symbol always lives in the
// file it was parsed from, even though its target may live anywhere.
func (s *Store) PutRefs(ctx context.Context, project, filePath string, refs []types.Reference) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		return putRefsTx(ctx, tx, project, filePath, refs)
	})
}

func putRefsTx(ctx context.Context, tx *sql.Tx, project, filePath string, refs []types.Reference) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM refs WHERE project = ? AND file_path = ?`, project, filePath); err != nil {
		return fmt.Errorf("delete refs for %s: %w", filePath, err)
	}
	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO refs (project, source_id, target_id, type, confidence, file_path, line, metadata_json)
		VALUES (?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		return fmt.Errorf("prepare ref insert: %w", err)
	}
	defer insert.Close()

	for _, ref := range refs {
		metaJSON, err := json.Marshal(ref.Metadata)
		if err != nil {
			return fmt.Errorf("marshal ref metadata: %w", err)
		}
		loc := ref.Location
		if loc.FilePath == "" {
			loc.FilePath = filePath
		}
		if _, err := insert.ExecContext(ctx, project, ref.SourceID, ref.TargetID, string(ref.Type),
			string(ref.Confidence), loc.FilePath, loc.Line, string(metaJSON)); err != nil {
			return fmt.Errorf("insert ref %s->%s: %w", ref.SourceID, ref.TargetID, err)
		}
	}
	return nil
}

func scanRef(row interface{ Scan(...interface{}) error }) (types.Reference, error) {
	var ref types.Reference
	var typ, conf, metaJSON string
	if err := row.Scan(&ref.SourceID, &ref.TargetID, &typ, &conf, &ref.Location.FilePath, &ref.Location.Line, &metaJSON); err != nil {
		return ref, err
	}
	ref.Type = types.RefType(typ)
	ref.Confidence = types.Confidence(conf)
	if metaJSON != "" {
		_ = json.Unmarshal([]byte(metaJSON), &ref.Metadata)
	}
	return ref, nil
}

const refColumns = `source_id, target_id, type, confidence, file_path, line, metadata_json`

// RefGroup is a `refs(id)` verb result: a (forward, reverse) pair of typed
// edges, e.g. "calls"/"called_by" (spec.md §4.9).
type RefGroup struct {
	Forward []types.Reference `json:"forward"`
	Reverse []types.Reference `json:"reverse"`
}

// refLabels maps each RefType to the (forward, reverse) label pair the
// Query Engine surfaces, per spec.md §4.9's enumerated list.
var refLabels = map[types.RefType][2]string{
	types.RefCalls:      {"calls", "called_by"},
	types.RefImports:    {"imports", "imported_by"},
	types.RefDependsOn:  {"depends_on", "depended_on_by"},
	types.RefExtends:    {"extends", "extended_by"},
	types.RefImplements: {"implements", "implemented_by"},
	types.RefDocuments:  {"documents", "documented_by"},
	types.RefBindsTo:    {"binds_to", "bound_by"},
	types.RefMapsTo:     {"maps_to", "mapped_by"},
	types.RefReturnsView: {"returns_view", "returned_by"},
	types.RefRenders:    {"renders", "rendered_by"},
	types.RefReadsFrom:  {"reads_from", "read_by"},
	types.RefWritesTo:   {"writes_to", "written_by"},
}

// Refs implements the `refs(id)` verb: every reference where id is either
// endpoint, grouped and labeled by direction per type.
func (s *Store) Refs(ctx context.Context, project, id string) (map[string]RefGroup, error) {
	groups := make(map[string]RefGroup)

	outRows, err := s.db.QueryContext(ctx, `SELECT `+refColumns+` FROM refs WHERE project = ? AND source_id = ?`, project, id)
	if err != nil {
		return nil, fmt.Errorf("refs: outbound: %w", err)
	}
	defer outRows.Close()
	for outRows.Next() {
		ref, err := scanRef(outRows)
		if err != nil {
			return nil, fmt.Errorf("refs: outbound scan: %w", err)
		}
		label := refLabels[ref.Type][0]
		if label == "" {
			label = string(ref.Type)
		}
		g := groups[label]
		g.Forward = append(g.Forward, ref)
		groups[label] = g
	}

	inRows, err := s.db.QueryContext(ctx, `SELECT `+refColumns+` FROM refs WHERE project = ? AND target_id = ? AND target_id != ''`, project, id)
	if err != nil {
		return nil, fmt.Errorf("refs: inbound: %w", err)
	}
	defer inRows.Close()
	for inRows.Next() {
		ref, err := scanRef(inRows)
		if err != nil {
			return nil, fmt.Errorf("refs: inbound scan: %w", err)
		}
		pair := refLabels[ref.Type]
		label := pair[1]
		if label == "" {
			label = string(ref.Type) + "_by"
		}
		g := groups[label]
		g.Reverse = append(g.Reverse, ref)
		groups[label] = g
	}

	return groups, nil
}

// TraverseDirection selects which edge endpoint BFS expands from.
type TraverseDirection string

const (
	DirectionIn   TraverseDirection = "in"
	DirectionOut  TraverseDirection = "out"
	DirectionBoth TraverseDirection = "both"
)

// TraverseNode is one reachable node in a `traverse`/`blast_radius` result.
type TraverseNode struct {
	Symbol types.Symbol `json:"symbol"`
	Depth  int          `json:"depth"`
	Path   []string     `json:"path"`
}

// TraverseEdge is a typed edge surfaced alongside a TraverseNode.
type TraverseEdge struct {
	SourceID string        `json:"source_id"`
	TargetID string        `json:"target_id"`
	Type     types.RefType `json:"type"`
	Depth    int           `json:"depth"`
}

// Traverse implements the `traverse(id, depth, direction)` verb: BFS from
// id, cycle-safe via a visited set keyed by id, never descending past
// depth (clamped to [1,3] per spec.md §4.9).
func (s *Store) Traverse(ctx context.Context, project, id string, depth int, direction TraverseDirection) ([]TraverseNode, []TraverseEdge, error) {
	if depth < 1 {
		depth = 1
	}
	if depth > 3 {
		depth = 3
	}

	visited := map[string]bool{id: true}
	frontier := []TraverseNode{{Depth: 0, Path: []string{id}}}
	if sym, ok, err := s.GetSymbol(ctx, project, id); err == nil && ok {
		frontier[0].Symbol = sym
	}

	var nodes []TraverseNode
	var edges []TraverseEdge

	for d := 1; d <= depth && len(frontier) > 0; d++ {
		var next []TraverseNode
		for _, n := range frontier {
			neighbors, err := s.neighborEdges(ctx, project, n.Path[len(n.Path)-1], direction)
			if err != nil {
				return nil, nil, err
			}
			for _, e := range neighbors {
				other := e.TargetID
				if other == n.Path[len(n.Path)-1] {
					other = e.SourceID
				}
				if other == "" || visited[other] {
					edges = append(edges, TraverseEdge{SourceID: e.SourceID, TargetID: e.TargetID, Type: e.Type, Depth: d})
					continue
				}
				visited[other] = true
				edges = append(edges, TraverseEdge{SourceID: e.SourceID, TargetID: e.TargetID, Type: e.Type, Depth: d})

				sym, ok, err := s.GetSymbol(ctx, project, other)
				if err != nil {
					return nil, nil, err
				}
				if !ok {
					continue
				}
				path := append(append([]string(nil), n.Path...), other)
				tn := TraverseNode{Symbol: sym, Depth: d, Path: path}
				nodes = append(nodes, tn)
				next = append(next, tn)
			}
		}
		frontier = next
	}

	return nodes, edges, nil
}

func (s *Store) neighborEdges(ctx context.Context, project, id string, direction TraverseDirection) ([]types.Reference, error) {
	var out []types.Reference
	if direction == DirectionOut || direction == DirectionBoth {
		rows, err := s.db.QueryContext(ctx, `SELECT `+refColumns+` FROM refs WHERE project = ? AND source_id = ?`, project, id)
		if err != nil {
			return nil, fmt.Errorf("neighbors out: %w", err)
		}
		for rows.Next() {
			ref, err := scanRef(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("neighbors out scan: %w", err)
			}
			out = append(out, ref)
		}
		rows.Close()
	}
	if direction == DirectionIn || direction == DirectionBoth {
		rows, err := s.db.QueryContext(ctx, `SELECT `+refColumns+` FROM refs WHERE project = ? AND target_id = ? AND target_id != ''`, project, id)
		if err != nil {
			return nil, fmt.Errorf("neighbors in: %w", err)
		}
		for rows.Next() {
			ref, err := scanRef(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("neighbors in scan: %w", err)
			}
			out = append(out, ref)
		}
		rows.Close()
	}
	return out, nil
}

// BlastRadiusGroup is one depth tier of a blast_radius result.
type BlastRadiusGroup struct {
	Depth      int            `json:"depth"`
	Dependents []types.Symbol `json:"dependents"`
}

// BlastRadius implements `blast_radius(id, depth)`: upstream dependents,
// grouped by depth, via Traverse(direction=in).
func (s *Store) BlastRadius(ctx context.Context, project, id string, depth int) ([]BlastRadiusGroup, error) {
	nodes, _, err := s.Traverse(ctx, project, id, depth, DirectionIn)
	if err != nil {
		return nil, err
	}
	byDepth := make(map[int][]types.Symbol)
	var depths []int
	for _, n := range nodes {
		if _, ok := byDepth[n.Depth]; !ok {
			depths = append(depths, n.Depth)
		}
		byDepth[n.Depth] = append(byDepth[n.Depth], n.Symbol)
	}
	sortInts(depths)

	out := make([]BlastRadiusGroup, 0, len(depths))
	for _, d := range depths {
		out = append(out, BlastRadiusGroup{Depth: d, Dependents: byDepth[d]})
	}
	return out, nil
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}
