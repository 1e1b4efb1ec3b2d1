package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/hbollon/go-edlib"
)

// Suggest returns up to limit symbol names in project most similar to
// query by Jaro-Winkler distance, for a NotFound error's suggestion list
// (spec.md §7). Grounded on the teacher's internal/semantic.FuzzyMatcher,
// which uses go-edlib the same way: compute similarity against every
// candidate, keep the closest, since the corpus of symbol names is small
// enough per project that no approximate-index structure is warranted.
func (s *Store) Suggest(ctx context.Context, project, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT name FROM symbols WHERE project = ?`, project)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	defer rows.Close()

	type scored struct {
		name  string
		score float64
	}
	var candidates []scored
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("suggest: scan: %w", err)
		}
		score, err := edlib.StringsSimilarity(query, name, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		candidates = append(candidates, scored{name: name, score: float64(score)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].name < candidates[j].name
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}
	return out, nil
}
