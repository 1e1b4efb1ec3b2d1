package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// ReplaceLineagePaths replaces every lineage_paths row for project in one
// transaction, since lineage is recomputed wholesale at the end of every
// index run (spec.md §4.11 step 5), never incrementally patched.
func (s *Store) ReplaceLineagePaths(ctx context.Context, project string, paths []types.LineagePath) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM lineage_paths WHERE project = ?`, project); err != nil {
			return fmt.Errorf("clear lineage: %w", err)
		}
		insert, err := tx.PrepareContext(ctx, `
			INSERT INTO lineage_paths (project, root_id, sink_id, steps_json, confidence) VALUES (?,?,?,?,?)
		`)
		if err != nil {
			return fmt.Errorf("prepare lineage insert: %w", err)
		}
		defer insert.Close()

		for _, p := range paths {
			stepsJSON, err := json.Marshal(p.Steps)
			if err != nil {
				return fmt.Errorf("marshal lineage steps: %w", err)
			}
			if _, err := insert.ExecContext(ctx, project, p.RootID, p.SinkID, string(stepsJSON), string(p.Confidence)); err != nil {
				return fmt.Errorf("insert lineage %s->%s: %w", p.RootID, p.SinkID, err)
			}
		}
		return nil
	})
}

// maxLineageDepth bounds the outbound walk ComputeLineagePaths performs
// from each UI anchor. S1's cross-layer scenario (JSP -> controller ->
// entity -> column) is 5 steps; 8 gives headroom for a service layer or
// repository hop in between without letting a cyclic graph run unbounded.
const maxLineageDepth = 8

// ComputeLineagePaths walks the reference graph outbound from every
// frontend/view-layer anchor symbol until it reaches a database-layer
// symbol, recording each root->sink walk as a LineagePath (spec.md §4.11
// step 5's "lineage paths"). The walk is a per-root BFS so the first path
// found to a given sink is shortest; it never continues past a sink, and a
// visited set bounds it against the reference graph's cycles (services
// depending on each other, self-referencing entities) per spec.md's
// "lineage computation is restricted to acyclic subgraphs by direction
// typing" note — walking strictly outbound already excludes the reverse
// half of any cycle.
func (s *Store) ComputeLineagePaths(ctx context.Context, project string) ([]types.LineagePath, error) {
	anchors, err := s.SymbolsByLayer(ctx, project, types.LayerFrontend, types.LayerView)
	if err != nil {
		return nil, fmt.Errorf("lineage: load anchors: %w", err)
	}
	sinkSyms, err := s.SymbolsByLayer(ctx, project, types.LayerDatabase)
	if err != nil {
		return nil, fmt.Errorf("lineage: load sinks: %w", err)
	}
	if len(anchors) == 0 || len(sinkSyms) == 0 {
		return nil, nil
	}
	sinks := make(map[string]bool, len(sinkSyms))
	for _, sym := range sinkSyms {
		sinks[sym.ID] = true
	}

	type frontierEntry struct {
		id         string
		steps      []string
		confidence types.Confidence
	}

	var paths []types.LineagePath
	seenPair := make(map[string]bool)

	for _, anchor := range anchors {
		visited := map[string]bool{anchor.ID: true}
		frontier := []frontierEntry{{id: anchor.ID, steps: []string{anchor.ID}, confidence: types.ConfidenceHigh}}

		for depth := 0; depth < maxLineageDepth && len(frontier) > 0; depth++ {
			var next []frontierEntry
			for _, f := range frontier {
				edges, err := s.neighborEdges(ctx, project, f.id, DirectionOut)
				if err != nil {
					return nil, fmt.Errorf("lineage: edges for %s: %w", f.id, err)
				}
				for _, e := range edges {
					if e.TargetID == "" || visited[e.TargetID] {
						continue
					}
					visited[e.TargetID] = true

					conf := f.confidence
					if types.HigherConfidence(conf, e.Confidence) {
						conf = e.Confidence
					}
					steps := append(append([]string(nil), f.steps...), e.TargetID)

					if sinks[e.TargetID] {
						pairKey := anchor.ID + "->" + e.TargetID
						if !seenPair[pairKey] {
							seenPair[pairKey] = true
							paths = append(paths, types.LineagePath{
								Project:    project,
								RootID:     anchor.ID,
								SinkID:     e.TargetID,
								Steps:      steps,
								Confidence: conf,
							})
						}
						continue
					}
					next = append(next, frontierEntry{id: e.TargetID, steps: steps, confidence: conf})
				}
			}
			frontier = next
		}
	}
	return paths, nil
}

// Lineage implements the `lineage(symbol_name)` verb: every recorded path
// with a step whose symbol name matches. Steps are matched in Go rather
// than in SQL: a lineage_paths row holds its steps as a JSON array of
// symbol ids, and a small per-project path count makes a full scan
// cheaper than reinventing JSON array membership in SQLite's dialect.
func (s *Store) Lineage(ctx context.Context, project, symbolName string) ([]types.LineagePath, error) {
	matchingIDs, err := s.symbolIDsByName(ctx, project, symbolName)
	if err != nil {
		return nil, err
	}
	if len(matchingIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT root_id, sink_id, steps_json, confidence FROM lineage_paths WHERE project = ?`, project)
	if err != nil {
		return nil, fmt.Errorf("lineage: %w", err)
	}
	defer rows.Close()

	var out []types.LineagePath
	for rows.Next() {
		var p types.LineagePath
		var stepsJSON, conf string
		if err := rows.Scan(&p.RootID, &p.SinkID, &stepsJSON, &conf); err != nil {
			return nil, fmt.Errorf("lineage scan: %w", err)
		}
		var steps []string
		_ = json.Unmarshal([]byte(stepsJSON), &steps)
		if !anyStepMatches(steps, matchingIDs) {
			continue
		}
		p.Project = project
		p.Confidence = types.Confidence(conf)
		p.Steps = steps
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) symbolIDsByName(ctx context.Context, project, name string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM symbols WHERE project = ? AND name = ?`, project, name)
	if err != nil {
		return nil, fmt.Errorf("lineage: symbol lookup: %w", err)
	}
	defer rows.Close()
	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("lineage: symbol lookup scan: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func anyStepMatches(steps []string, ids map[string]bool) bool {
	for _, step := range steps {
		if ids[step] {
			return true
		}
	}
	return false
}
