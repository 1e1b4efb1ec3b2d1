package types

// Section is a heading-anchored span of a Document's extracted text.
type Section struct {
	Heading string `json:"heading"`
	Level   int    `json:"level"`
	Offset  int    `json:"offset"`
}

// Document is an indexed textual or binary document. Its sections emit
// Symbols of type doc_section that participate in the reference graph on
// equal footing with code symbols.
type Document struct {
	Path         string            `json:"path"`
	Title        string            `json:"title"`
	Frontmatter  map[string]string `json:"frontmatter,omitempty"`
	Text         string            `json:"text"`
	Sections     []Section         `json:"sections,omitempty"`
	MTime        int64             `json:"mtime"`
	Size         int64             `json:"size"`
}

// LineagePath is a precomputed, immutable source->sink walk through the
// reference graph, e.g. UI binding -> controller field -> service
// parameter -> repository method -> entity field -> database column.
type LineagePath struct {
	Project    string     `json:"project"`
	RootID     string     `json:"root_id"`
	SinkID     string     `json:"sink_id"`
	Steps      []string   `json:"steps"`
	Confidence Confidence `json:"confidence"`
}

// ServiceNode is a coarse architecture node inferred from infrastructure
// manifests merged with code-level HTTP/RPC usage.
type ServiceNode struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Ports     []int    `json:"ports,omitempty"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// ServiceConnection is a directed edge in the service map.
type ServiceConnection struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// Project is the metadata record for an isolated, named index.
type Project struct {
	Name          string `json:"name"`
	RootPath      string `json:"root_path"`
	IndexedAt     int64  `json:"indexed_at"`
	FileCount     int    `json:"file_count"`
	SymbolCount   int    `json:"symbol_count"`
	RefCount      int    `json:"ref_count"`
	WorkspaceHash string `json:"workspace_hash"`
	SchemaVersion string `json:"schema_version"`
}

// DefaultProject is the reserved name for the legacy flat, un-namespaced
// index (spec.md §3, §6).
const DefaultProject = "default"

// IndexSnapshot is the per-file record the orchestrator diffs against the
// filesystem to compute the change set on incremental re-index.
type IndexSnapshot struct {
	Path         string `json:"path"`
	ContentHash  string `json:"content_hash"`
	MTime        int64  `json:"mtime"`
	Size         int64  `json:"size"`
	ParsedOK     bool   `json:"parsed_ok"`
	SymbolCount  int    `json:"symbol_count"`
	AdapterID    string `json:"adapter_id"`
}
