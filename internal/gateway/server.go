package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mikeparcewski/wicked-search/internal/config"
	"github.com/mikeparcewski/wicked-search/internal/discovery"
	"github.com/mikeparcewski/wicked-search/internal/obs"
	"github.com/mikeparcewski/wicked-search/internal/query"
	"github.com/mikeparcewski/wicked-search/internal/store"
)

// Server is the HTTP Gateway described in spec.md §6: default port 18889,
// routes under /api/v1/data, a uniform JSON envelope, and graceful
// degradation when a requested plugin source isn't installed.
type Server struct {
	engine  *query.Engine
	cfg     *config.Config
	plugins *PluginRegistry
	mux     *http.ServeMux
}

// NewServer wires a Gateway over engine. cfg may be nil (e.g. in tests
// that only exercise verbs on an empty store): every response still gets
// a well-formed Freshness, just with Stale always false since there's no
// workspace root to re-walk.
func NewServer(engine *query.Engine, cfg *config.Config, pluginDir string) *Server {
	pr := NewPluginRegistry(pluginDir)
	_ = pr.Refresh()

	s := &Server{engine: engine, cfg: cfg, plugins: pr, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/v1/data/plugins", s.handlePlugins)
	s.mux.HandleFunc("POST /api/v1/data/refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /api/v1/data/{plugin}/{source}/{verb}", s.handleVerb)
}

func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"plugins": s.plugins.List()})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.plugins.Refresh(); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"refreshed": true})
}

// handleVerb dispatches /api/v1/data/{plugin}/{source}/{verb}. Only the
// wicked-search plugin is answered directly (by invoking the Query
// Engine). Any other plugin with a manifest gets 200 with
// {available: false, reason}, since this process does not proxy; a plugin
// with no manifest gets 404 unknown_plugin.
func (s *Server) handleVerb(w http.ResponseWriter, r *http.Request) {
	plugin := r.PathValue("plugin")
	source := r.PathValue("source")
	verb := r.PathValue("verb")

	if plugin != "wicked-search" {
		if _, ok := s.plugins.Lookup(plugin); !ok {
			writeError(w, http.StatusNotFound, "unknown_plugin", "plugin "+plugin+" is not installed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"available": false,
			"reason":    "plugin " + plugin + " does not proxy through this gateway instance",
		})
		return
	}
	if source != "wicked-search" {
		writeError(w, http.StatusNotFound, "unknown_source", "source "+source+" is not known to this plugin")
		return
	}

	q := r.URL.Query()
	project := q.Get("project")
	limit := atoiDefault(q.Get("limit"), 50)
	offset := atoiDefault(q.Get("offset"), 0)
	query_ := q.Get("query")
	depth := atoiDefault(q.Get("depth"), 2)
	direction := store.TraverseDirection(firstNonEmptyStr(q.Get("direction"), "both"))
	layer := q.Get("layer")
	symType := q.Get("type")

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	freshness := s.freshness(ctx, project)

	switch verb {
	case "list":
		items, total, err := s.engine.List(ctx, project, limit, offset)
		s.respondList(w, items, total, limit, offset, freshness, err)

	case "get":
		id := q.Get("id")
		sym, ok, err := s.engine.Get(ctx, project, id)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		if !ok {
			writeEngineError(w, obs.NotFound("no symbol with id %s", id))
			return
		}
		writeItems(w, sym, 1, limit, offset, freshness)

	case "search":
		items, err := s.engine.Search(ctx, project, query_, limit)
		s.respondList(w, items, len(items), limit, offset, freshness, err)

	case "stats":
		stats, err := s.engine.Stats(ctx, project)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeItems(w, stats, 1, limit, offset, freshness)

	case "refs":
		groups, err := s.engine.Refs(ctx, project, q.Get("id"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeItems(w, groups, len(groups), limit, offset, freshness)

	case "traverse":
		nodes, edges, err := s.engine.Traverse(ctx, project, q.Get("id"), depth, direction)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeItems(w, map[string]interface{}{"nodes": nodes, "edges": edges}, len(nodes), limit, offset, freshness)

	case "blast_radius":
		groups, err := s.engine.BlastRadius(ctx, project, q.Get("id"), depth)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeItems(w, groups, len(groups), limit, offset, freshness)

	case "hotspots":
		items, err := s.engine.Hotspots(ctx, project, limit, layer, symType)
		s.respondList(w, items, len(items), limit, offset, freshness, err)

	case "lineage":
		items, err := s.engine.Lineage(ctx, project, q.Get("symbol"))
		s.respondList(w, items, len(items), limit, offset, freshness, err)

	case "service_map":
		nodes, edges, err := s.engine.ServiceMap(ctx, project)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeItems(w, map[string]interface{}{"nodes": nodes, "edges": edges}, len(nodes), limit, offset, freshness)

	case "categories":
		items, err := s.engine.Categories(ctx, project)
		s.respondList(w, items, len(items), limit, offset, freshness, err)

	case "impact":
		report, err := s.engine.Impact(ctx, project, q.Get("symbol"), depth)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeItems(w, report, 1, limit, offset, freshness)

	case "content":
		text, err := s.engine.Content(ctx, project, q.Get("id"), q.Get("workspace_root"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeItems(w, map[string]string{"content": text}, 1, limit, offset, freshness)

	default:
		writeError(w, http.StatusBadRequest, "unknown_verb", "no such verb: "+verb)
	}
}

func (s *Server) respondList(w http.ResponseWriter, items interface{}, total, limit, offset int, freshness Freshness, err error) {
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeItems(w, items, total, limit, offset, freshness)
}

// freshness looks up project's project_meta row and, when the Gateway was
// given a Config to re-walk the workspace with, compares a fresh
// discovery.WorkspaceHash against the recorded one to flag Stale — spec.md
// §7's StaleIndex behavior surfaces this in response metadata rather than
// blocking the request. A missing project_meta row (never indexed yet)
// yields a zero Freshness, not an error.
func (s *Server) freshness(ctx context.Context, project string) Freshness {
	meta, ok, err := s.engine.ProjectMeta(ctx, project)
	if err != nil || !ok {
		return Freshness{}
	}
	fr := Freshness{IndexedAt: meta.IndexedAt, WorkspaceHash: meta.WorkspaceHash}
	if s.cfg == nil {
		return fr
	}
	files, err := discovery.NewScanner(s.cfg).Walk()
	if err != nil {
		return fr
	}
	fr.Stale = discovery.WorkspaceHash(files) != meta.WorkspaceHash
	return fr
}

// writeEngineError translates a Query Engine error into the gateway's
// standard envelope, using the error's Kind for the HTTP status and code
// when it's an *obs.Error, falling back to 500 for anything else.
func writeEngineError(w http.ResponseWriter, err error) {
	var oerr *obs.Error
	if errors.As(err, &oerr) {
		status := oerr.Kind.HTTPStatus()
		writeJSON(w, status, ErrorResponse{Error: ErrorBody{
			Code:    string(oerr.Kind),
			Message: oerr.Message,
			Details: suggestionsDetail(oerr.Suggestions),
		}})
		return
	}
	writeError(w, http.StatusInternalServerError, "internal", err.Error())
}

func suggestionsDetail(suggestions []string) string {
	if len(suggestions) == 0 {
		return ""
	}
	return "did you mean: " + strings.Join(suggestions, ", ")
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func firstNonEmptyStr(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
