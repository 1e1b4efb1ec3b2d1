package orchestrator

import (
	"context"
	"fmt"

	"github.com/mikeparcewski/wicked-search/internal/store"
	"github.com/mikeparcewski/wicked-search/internal/types"
)

// projectSymbolTable is an in-memory snapshot of every symbol in one
// project, built fresh before each relink pass. The Store's own
// ByID/ByQualifiedName/ByName methods only ever look at the reserved
// default project (they exist purely so *store.Store can satisfy
// linker.SymbolTable for single-project callers); a real multi-project
// orchestrator needs a table scoped to the project actually being
// indexed, loaded once per run rather than re-querying the database for
// every raw reference.
type projectSymbolTable struct {
	byID            map[string]types.Symbol
	byQualifiedName map[string]types.Symbol
	byName          map[string][]types.Symbol
}

func newProjectSymbolTable(ctx context.Context, st *store.Store, project string) (*projectSymbolTable, error) {
	t := &projectSymbolTable{
		byID:            make(map[string]types.Symbol),
		byQualifiedName: make(map[string]types.Symbol),
		byName:          make(map[string][]types.Symbol),
	}

	const pageSize = 1000
	offset := 0
	for {
		page, total, err := st.List(ctx, project, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("load symbol table page at offset %d: %w", offset, err)
		}
		for _, sym := range page {
			t.byID[sym.ID] = sym
			t.byQualifiedName[sym.QualifiedName] = sym
			t.byName[sym.Name] = append(t.byName[sym.Name], sym)
		}
		offset += len(page)
		if offset >= total || len(page) == 0 {
			break
		}
	}
	return t, nil
}

func (t *projectSymbolTable) ByID(id string) (types.Symbol, bool) {
	sym, ok := t.byID[id]
	return sym, ok
}

func (t *projectSymbolTable) ByQualifiedName(name string) (types.Symbol, bool) {
	sym, ok := t.byQualifiedName[name]
	return sym, ok
}

func (t *projectSymbolTable) ByName(name string) []types.Symbol {
	return t.byName[name]
}
