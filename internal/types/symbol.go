// Package types holds the unified symbol-and-reference data model shared by
// every component in wicked-search: adapters emit Symbols and RawReferences,
// linkers turn RawReferences into References, and the store persists all of
// it keyed by project.
package types

import "fmt"

// Layer is the coarse architectural bucket a Symbol belongs to.
type Layer string

const (
	LayerBackend  Layer = "backend"
	LayerView     Layer = "view"
	LayerFrontend Layer = "frontend"
	LayerDatabase Layer = "database"
	LayerDocument Layer = "document"
	LayerConfig   Layer = "config"
)

// Domain distinguishes source code symbols from document symbols.
type Domain string

const (
	DomainCode Domain = "code"
	DomainDoc  Domain = "doc"
)

// SymbolType is the fine-grained tag on a Symbol. The enum is closed but
// adapters are free to add new members as languages are registered.
type SymbolType string

const (
	SymbolFunction       SymbolType = "function"
	SymbolClass          SymbolType = "class"
	SymbolMethod         SymbolType = "method"
	SymbolInterface      SymbolType = "interface"
	SymbolType_          SymbolType = "type" // named "type" in the glossary; trailing underscore avoids shadowing the Go keyword
	SymbolVariable       SymbolType = "variable"
	SymbolConstant       SymbolType = "constant"
	SymbolField          SymbolType = "field"
	SymbolEnum           SymbolType = "enum"
	SymbolEntity         SymbolType = "entity"
	SymbolEntityField    SymbolType = "entity_field"
	SymbolController     SymbolType = "controller"
	SymbolControllerFunc SymbolType = "controller_method"
	SymbolService        SymbolType = "service"
	SymbolDAO            SymbolType = "dao"
	SymbolJSPPage        SymbolType = "jsp_page"
	SymbolELExpression   SymbolType = "el_expression"
	SymbolComponent      SymbolType = "component"
	SymbolDataBinding    SymbolType = "data_binding"
	SymbolTable          SymbolType = "table"
	SymbolColumn         SymbolType = "column"
	SymbolDocSection     SymbolType = "doc_section"
	SymbolServiceNode    SymbolType = "service_node"
	SymbolImport         SymbolType = "import"
	SymbolView           SymbolType = "view"
	SymbolConfigManifest SymbolType = "config_manifest"
)

// InferredType is a heuristic category layered on top of SymbolType, e.g.
// to flag a class as a "test" or "controller" from naming and annotations.
type InferredType string

const (
	InferredTest       InferredType = "test"
	InferredController InferredType = "controller"
	InferredService    InferredType = "service"
	InferredUtility    InferredType = "utility"
	InferredEntryPoint InferredType = "entry_point"
	InferredRepository InferredType = "repository"
)

// Symbol is the unified structural unit indexed across code and documents.
// Identity is computed with BuildSymbolID and is content-independent: it
// survives trivial reformatting because it is derived from path, name,
// type and the symbol's starting line, never from a content hash.
type Symbol struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	QualifiedName string                 `json:"qualified_name"`
	Type          SymbolType             `json:"type"`
	Layer         Layer                  `json:"layer"`
	FilePath      string                 `json:"file_path"`
	LineStart     int                    `json:"line_start"`
	LineEnd       int                    `json:"line_end"`
	ParentID      string                 `json:"parent_id,omitempty"`
	Language      string                 `json:"language"`
	Domain        Domain                 `json:"domain"`
	InferredType  InferredType           `json:"inferred_type,omitempty"`
	Description   string                 `json:"description,omitempty"`
	Domains       []string               `json:"domains,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// BuildSymbolID computes the stable identity described in the data model:
// file_path + "::" + qualified_name + "::" + symbol_type + "@" + line_start.
func BuildSymbolID(filePath, qualifiedName string, symType SymbolType, lineStart int) string {
	return fmt.Sprintf("%s::%s::%s@%d", filePath, qualifiedName, symType, lineStart)
}

// Validate checks the Symbol invariants that don't require store access:
// line_start <= line_end and a non-empty file_path. Project-scoped ID
// uniqueness comes from the store's primary key; parent_id is not checked.
func (s Symbol) Validate() error {
	if s.LineStart > s.LineEnd {
		return fmt.Errorf("symbol %s: line_start %d > line_end %d", s.ID, s.LineStart, s.LineEnd)
	}
	if s.FilePath == "" {
		return fmt.Errorf("symbol %s: empty file_path", s.ID)
	}
	return nil
}
