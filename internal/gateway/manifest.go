package gateway

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mikeparcewski/wicked-search/internal/obs"
)

// PluginManifest is the declarative file a wicked-garden plugin drops
// alongside itself so the gateway can list its sources without importing
// the plugin's own code (spec.md §4.10: "reads a declarative manifest per
// plugin listing available sources and capabilities").
type PluginManifest struct {
	Plugin       string   `json:"plugin"`
	Sources      []string `json:"sources"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// PluginStatus is what /api/v1/data/plugins reports for each discovered
// plugin. List reports only plugins whose manifest was found (plus
// wicked-search), all with Available true; a plugin without a manifest is
// not listed.
type PluginStatus struct {
	Plugin       string   `json:"plugin"`
	Available    bool     `json:"available"`
	Reason       string   `json:"reason,omitempty"`
	Sources      []string `json:"sources,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// PluginRegistry discovers manifests under a directory tree (one
// manifest.json per plugin directory) and answers discovery/status
// queries. wicked-search itself is always registered, regardless of
// what's found on disk, since it's the one source the gateway always
// serves directly.
type PluginRegistry struct {
	dir string

	mu      sync.RWMutex
	plugins map[string]PluginManifest
}

func NewPluginRegistry(dir string) *PluginRegistry {
	return &PluginRegistry{dir: dir, plugins: make(map[string]PluginManifest)}
}

// Refresh re-scans dir for manifest.json files, implementing the `POST
// /api/v1/data/refresh` endpoint's "re-scan plugin manifests" behavior.
// A plugin whose manifest fails to parse is logged and skipped rather
// than aborting discovery for every other plugin, matching the gateway's
// graceful-degradation mandate.
func (pr *PluginRegistry) Refresh() error {
	found := make(map[string]PluginManifest)

	if pr.dir != "" {
		entries, err := os.ReadDir(pr.dir)
		if err == nil {
			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				manifestPath := filepath.Join(pr.dir, entry.Name(), "manifest.json")
				data, err := os.ReadFile(manifestPath)
				if err != nil {
					continue
				}
				var m PluginManifest
				if err := json.Unmarshal(data, &m); err != nil {
					obs.Warnf("malformed plugin manifest, skipping", obs.F("path", manifestPath), obs.F("error", err.Error()))
					continue
				}
				if m.Plugin == "" {
					m.Plugin = entry.Name()
				}
				found[m.Plugin] = m
			}
		}
	}

	found["wicked-search"] = PluginManifest{
		Plugin:       "wicked-search",
		Sources:      []string{"wicked-search"},
		Capabilities: []string{"list", "get", "search", "stats", "refs", "traverse", "blast_radius", "hotspots", "lineage", "service_map", "categories", "impact", "content"},
	}

	pr.mu.Lock()
	pr.plugins = found
	pr.mu.Unlock()
	return nil
}

// List returns every known plugin's status, sorted by name for a stable
// response.
func (pr *PluginRegistry) List() []PluginStatus {
	pr.mu.RLock()
	defer pr.mu.RUnlock()

	out := make([]PluginStatus, 0, len(pr.plugins))
	for _, m := range pr.plugins {
		out = append(out, PluginStatus{
			Plugin:       m.Plugin,
			Available:    true,
			Sources:      m.Sources,
			Capabilities: m.Capabilities,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plugin < out[j].Plugin })
	return out
}

// Lookup reports whether plugin is known and, if so, its manifest.
func (pr *PluginRegistry) Lookup(plugin string) (PluginManifest, bool) {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	m, ok := pr.plugins[plugin]
	return m, ok
}
