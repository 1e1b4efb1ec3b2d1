package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// ReplaceServices replaces every services row for project with nodes
// (spec.md §4.9 `service_map()`). Nothing in this module calls it: index
// runs neither read infrastructure manifests nor derive services from
// code calls, so the services table holds only what a caller stores here.
func (s *Store) ReplaceServices(ctx context.Context, project string, nodes []types.ServiceNode) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM services WHERE project = ?`, project); err != nil {
			return fmt.Errorf("clear services: %w", err)
		}
		insert, err := tx.PrepareContext(ctx, `
			INSERT INTO services (project, name, kind, ports_json, depends_on_json) VALUES (?,?,?,?,?)
		`)
		if err != nil {
			return fmt.Errorf("prepare service insert: %w", err)
		}
		defer insert.Close()

		for _, n := range nodes {
			portsJSON, err := json.Marshal(n.Ports)
			if err != nil {
				return fmt.Errorf("marshal ports for %s: %w", n.Name, err)
			}
			dependsJSON, err := json.Marshal(n.DependsOn)
			if err != nil {
				return fmt.Errorf("marshal depends_on for %s: %w", n.Name, err)
			}
			if _, err := insert.ExecContext(ctx, project, n.Name, n.Kind, string(portsJSON), string(dependsJSON)); err != nil {
				return fmt.Errorf("insert service %s: %w", n.Name, err)
			}
		}
		return nil
	})
}

// ServiceMap implements the `service_map()` verb: every service node and
// the directed edges its depends_on list implies.
func (s *Store) ServiceMap(ctx context.Context, project string) ([]types.ServiceNode, []types.ServiceConnection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, kind, ports_json, depends_on_json FROM services WHERE project = ? ORDER BY name`, project)
	if err != nil {
		return nil, nil, fmt.Errorf("service map: %w", err)
	}
	defer rows.Close()

	var nodes []types.ServiceNode
	var edges []types.ServiceConnection
	for rows.Next() {
		var n types.ServiceNode
		var portsJSON, dependsJSON string
		if err := rows.Scan(&n.Name, &n.Kind, &portsJSON, &dependsJSON); err != nil {
			return nil, nil, fmt.Errorf("service map scan: %w", err)
		}
		_ = json.Unmarshal([]byte(portsJSON), &n.Ports)
		_ = json.Unmarshal([]byte(dependsJSON), &n.DependsOn)
		nodes = append(nodes, n)
		for _, dep := range n.DependsOn {
			edges = append(edges, types.ServiceConnection{From: n.Name, To: dep, Kind: "depends_on"})
		}
	}
	return nodes, edges, rows.Err()
}

// Categories implements the `categories()` verb: symbols grouped by their
// folksonomy `domains` tag, plus a count of edges crossing between each
// pair of categories.
type Category struct {
	Name        string         `json:"name"`
	SymbolCount int            `json:"symbol_count"`
	CrossEdges  map[string]int `json:"cross_edges"`
}

func (s *Store) Categories(ctx context.Context, project string) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, domains_json FROM symbols WHERE project = ?`, project)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	symbolDomains := make(map[string][]string)
	domainCounts := make(map[string]int)
	for rows.Next() {
		var id, domainsJSON string
		if err := rows.Scan(&id, &domainsJSON); err != nil {
			rows.Close()
			return nil, fmt.Errorf("categories scan: %w", err)
		}
		var domains []string
		_ = json.Unmarshal([]byte(domainsJSON), &domains)
		symbolDomains[id] = domains
		for _, d := range domains {
			domainCounts[d]++
		}
	}
	rows.Close()

	cross := make(map[string]map[string]int)
	refRows, err := s.db.QueryContext(ctx, `SELECT source_id, target_id FROM refs WHERE project = ? AND target_id != ''`, project)
	if err != nil {
		return nil, fmt.Errorf("categories: refs: %w", err)
	}
	defer refRows.Close()
	for refRows.Next() {
		var src, dst string
		if err := refRows.Scan(&src, &dst); err != nil {
			return nil, fmt.Errorf("categories: refs scan: %w", err)
		}
		for _, sd := range symbolDomains[src] {
			for _, dd := range symbolDomains[dst] {
				if sd == dd {
					continue
				}
				if cross[sd] == nil {
					cross[sd] = make(map[string]int)
				}
				cross[sd][dd]++
			}
		}
	}

	out := make([]Category, 0, len(domainCounts))
	for name, count := range domainCounts {
		out = append(out, Category{Name: name, SymbolCount: count, CrossEdges: cross[name]})
	}
	return out, nil
}
