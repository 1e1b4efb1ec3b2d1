// Package gateway implements the Data API Gateway (spec.md §4.10): a
// uniform HTTP surface over the Query Engine at
// /api/v1/data/{plugin}/{source}/{verb}, plus the plugin-manifest
// discovery that lets wicked-garden's other plugins advertise their own
// sources through the same envelope.
package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/mikeparcewski/wicked-search/internal/store"
)

// Envelope is the stable response shape every successful verb call
// returns (spec.md §4.10, §7's "Gateway envelope" invariant).
type Envelope struct {
	Items interface{} `json:"items"`
	Meta  Meta        `json:"meta"`
}

// Meta carries pagination and freshness information alongside Items.
type Meta struct {
	Total         int    `json:"total"`
	Limit         int    `json:"limit"`
	Offset        int    `json:"offset"`
	SchemaVersion string `json:"schema_version"`
	Freshness     Freshness `json:"freshness"`
}

// Freshness lets a client detect a stale cached result without re-querying.
// Stale is true when the workspace on disk has changed since IndexedAt/
// WorkspaceHash were recorded, per spec.md §7's StaleIndex behavior
// ("surfaced in response metadata, freshness.stale=true" rather than
// blocking the request).
type Freshness struct {
	IndexedAt     int64  `json:"indexed_at"`
	WorkspaceHash string `json:"workspace_hash"`
	Stale         bool   `json:"stale"`
}

// ErrorResponse is the standard error envelope (spec.md §6: "{error:
// {code, message, details}}").
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

func writeItems(w http.ResponseWriter, items interface{}, total, limit, offset int, freshness Freshness) {
	writeJSON(w, http.StatusOK, Envelope{
		Items: items,
		Meta: Meta{
			Total:         total,
			Limit:         limit,
			Offset:        offset,
			SchemaVersion: store.SchemaVersion(),
			Freshness:     freshness,
		},
	})
}
