package adapters

import (
	"github.com/mikeparcewski/wicked-search/internal/obs"
)

// builtinTreeSitter constructs every grammar-backed Adapter this module
// ships with. A grammar that fails to initialize (missing binding, query
// typo) is logged and skipped rather than aborting the whole registry,
// the same fail-soft policy Adapter.Parse itself follows.
var builtinTreeSitter = []struct {
	name string
	new  func() (Adapter, error)
}{
	{"go", func() (Adapter, error) { return NewGoAdapter() }},
	{"python", func() (Adapter, error) { return NewPythonAdapter() }},
	{"javascript", func() (Adapter, error) { return NewJavaScriptAdapter() }},
	{"typescript", func() (Adapter, error) { return NewTypeScriptAdapter() }},
	{"tsx", func() (Adapter, error) { return NewTSXAdapter() }},
	{"java", func() (Adapter, error) { return NewJavaAdapter() }},
	{"php", func() (Adapter, error) { return NewPHPAdapter() }},
	{"csharp", func() (Adapter, error) { return NewCSharpAdapter() }},
}

// builtinORM constructs the eight ORM-Aware Adapters (spec.md §4.3). Each
// is registered under the same extension as its base language adapter;
// Registry.For returns both and the Parsing Pool runs every matching
// adapter over the file, merging their symbols/refs.
var builtinORM = []struct {
	name string
	new  func() (Adapter, error)
}{
	{"jpa", func() (Adapter, error) { return NewJPAAdapter() }},
	{"django-orm", func() (Adapter, error) { return NewDjangoAdapter() }},
	{"sqlalchemy", func() (Adapter, error) { return NewSQLAlchemyAdapter() }},
	{"eloquent", func() (Adapter, error) { return NewEloquentAdapter() }},
	{"typeorm", func() (Adapter, error) { return NewTypeORMAdapter() }},
	{"efcore", func() (Adapter, error) { return NewEFCoreAdapter() }},
	{"gorm", func() (Adapter, error) { return NewGORMAdapter() }},
	{"sequelize", func() (Adapter, error) { return NewSequelizeAdapter() }},
}

// RegisterBuiltins populates r with every structural, ORM-aware and
// generic-fallback adapter this module ships. Call order matters: base
// language adapters are tried first so Registry.For("X").[0] is always
// the structural extractor, with ORM adapters layered on afterward.
func RegisterBuiltins(r *Registry) {
	for _, b := range builtinTreeSitter {
		a, err := b.new()
		if err != nil {
			obs.Warnf("adapter unavailable, skipping", obs.F("adapter", b.name), obs.F("error", err.Error()))
			continue
		}
		r.Register(a)
	}
	for _, b := range builtinORM {
		a, err := b.new()
		if err != nil {
			obs.Warnf("orm adapter unavailable, skipping", obs.F("adapter", b.name), obs.F("error", err.Error()))
			continue
		}
		r.Register(a)
	}
	generics, err := NewGenericAdapters()
	if err != nil {
		obs.Warnf("generic adapters unavailable", obs.F("error", err.Error()))
		return
	}
	for _, g := range generics {
		r.Register(g)
	}
}
