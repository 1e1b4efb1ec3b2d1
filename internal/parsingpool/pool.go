// Package parsingpool implements the Parsing Pool (spec.md §4.5): a
// bounded worker pool that runs every matching Adapter over each
// discovered file concurrently, then hands results back in deterministic,
// file-path order so two runs over the same tree produce byte-identical
// symbol/reference batches regardless of goroutine scheduling.
package parsingpool

import (
	"context"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/mikeparcewski/wicked-search/internal/adapters"
	"github.com/mikeparcewski/wicked-search/internal/discovery"
	"github.com/mikeparcewski/wicked-search/internal/obs"
	"github.com/mikeparcewski/wicked-search/internal/types"
)

// Result is one file's parse outcome, mirroring the IndexSnapshot row the
// Incremental Orchestrator persists alongside the symbols/refs themselves.
type Result struct {
	File      discovery.File
	AdapterID string
	Symbols   []types.Symbol
	Refs      []types.RawReference
	ParsedOK  bool
}

// Pool runs a Registry's adapters over a file set with bounded
// concurrency. Grounded on the teacher's channel-based FileScanner
// pipeline (internal/indexing/pipeline.go), rebuilt on golang.org/x/sync's
// errgroup+semaphore instead of hand-rolled channels/WaitGroup — the
// cancellation and first-error propagation errgroup gives for free is
// exactly what per-file parse timeouts need.
type Pool struct {
	registry    *adapters.Registry
	workers     int
	perFileWait time.Duration
}

func New(registry *adapters.Registry, workers int, perFileTimeout time.Duration) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{registry: registry, workers: workers, perFileWait: perFileTimeout}
}

// Run parses every file in files, respecting ctx cancellation at file
// granularity: a canceled context stops dispatching new files, and files
// already in flight return at once with ParsedOK=false. Results are
// returned sorted by RelPath so downstream persistence is deterministic.
func (p *Pool) Run(ctx context.Context, files []discovery.File) ([]Result, error) {
	sem := semaphore.NewWeighted(int64(p.workers))
	g, gctx := errgroup.WithContext(ctx)

	results := make([]Result, len(files))
	for i, f := range files {
		i, f := i, f
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			results[i] = p.parseOne(gctx, f)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(a, b int) bool { return results[a].File.RelPath < results[b].File.RelPath })
	return results, nil
}

func (p *Pool) parseOne(ctx context.Context, f discovery.File) Result {
	content, err := os.ReadFile(f.AbsPath)
	if err != nil {
		obs.Warnf("parse failed: unreadable", obs.F("path", f.AbsPath), obs.F("error", err.Error()))
		return Result{File: f, ParsedOK: false}
	}

	ext := extOf(f.RelPath)
	matching := p.registry.For(ext)
	if len(matching) == 0 {
		return Result{File: f, ParsedOK: true}
	}

	done := make(chan Result, 1)
	go func() {
		var symbols []types.Symbol
		var refs []types.RawReference
		adapterID := matching[0].ID()
		parsedOK := true
		for _, a := range matching {
			syms, rs, ok := safeParse(a, f.RelPath, content)
			if !ok {
				parsedOK = false
			}
			symbols = append(symbols, syms...)
			refs = append(refs, rs...)
		}
		done <- Result{File: f, AdapterID: adapterID, Symbols: symbols, Refs: refs, ParsedOK: parsedOK}
	}()

	timeout := p.perFileWait
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	select {
	case r := <-done:
		return r
	case <-time.After(timeout):
		obs.Warnf("parse timed out, marking stale", obs.F("path", f.AbsPath), obs.F("timeout", timeout.String()))
		return Result{File: f, ParsedOK: false}
	case <-ctx.Done():
		return Result{File: f, ParsedOK: false}
	}
}

// safeParse isolates a single adapter invocation: a panicking adapter
// yields an empty result and ok=false for that adapter, which marks the
// file parsed_ok=false, rather than crashing the whole file's parse
// (spec.md §4.2/§4.5 failure policy: remove stale symbols/refs for the
// file, never the whole run).
func safeParse(a adapters.Adapter, relPath string, content []byte) (syms []types.Symbol, refs []types.RawReference, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			obs.Warnf("adapter panicked", obs.F("adapter", a.ID()), obs.F("path", relPath), obs.F("recover", r))
			syms, refs, ok = nil, nil, false
		}
	}()
	syms, refs = a.Parse(relPath, content)
	return syms, refs, true
}

func extOf(relPath string) string {
	for i := len(relPath) - 1; i >= 0; i-- {
		if relPath[i] == '.' {
			return relPath[i:]
		}
		if relPath[i] == '/' {
			break
		}
	}
	return ""
}
