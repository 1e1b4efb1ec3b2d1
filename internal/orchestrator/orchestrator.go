// Package orchestrator implements the Incremental Orchestrator (spec.md
// §4.11): it wires File Discovery, the Parsing Pool, the Document
// Extractor, the Linker Registry and the Unified Store into one
// index(root, project, incremental) operation, plus the --watch loop that
// re-runs it on a debounce.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mikeparcewski/wicked-search/internal/adapters"
	"github.com/mikeparcewski/wicked-search/internal/config"
	"github.com/mikeparcewski/wicked-search/internal/discovery"
	"github.com/mikeparcewski/wicked-search/internal/docext"
	"github.com/mikeparcewski/wicked-search/internal/linker"
	"github.com/mikeparcewski/wicked-search/internal/obs"
	"github.com/mikeparcewski/wicked-search/internal/parsingpool"
	"github.com/mikeparcewski/wicked-search/internal/store"
	"github.com/mikeparcewski/wicked-search/internal/types"
)

// Orchestrator holds the long-lived components an index run threads
// together: a shared adapter/extractor/linker registry and the Store
// those runs persist into. One Orchestrator is reused across repeated
// --watch-triggered reindexes.
type Orchestrator struct {
	cfg      *config.Config
	store    *store.Store
	adapters *adapters.Registry
	docs     *docext.Registry
	linkers  *linker.Registry
}

// New builds an Orchestrator with every built-in adapter, extractor and
// linker registered, per spec.md §4.11's component wiring.
func New(cfg *config.Config, st *store.Store) *Orchestrator {
	ar := adapters.NewRegistry()
	adapters.RegisterBuiltins(ar)

	dr := docext.NewRegistry()
	docext.RegisterBuiltins(dr)

	lr := linker.NewRegistry()
	lr.Register(linker.NewCallImportLinker())
	lr.Register(linker.NewELResolver())
	lr.Register(linker.NewControllerLinker())
	lr.Register(linker.NewFrontendLinker())

	return &Orchestrator{cfg: cfg, store: st, adapters: ar, docs: dr, linkers: lr}
}

// Result summarizes one index run for the caller (CLI / gateway) to report.
type Result struct {
	Project       string
	FilesWalked   int
	FilesAdded    int
	FilesModified int
	FilesRemoved  int
	FilesSkipped  int // fast path: unchanged
	Symbols       int
	Refs          int
	Duration      time.Duration
	WorkspaceHash string
}

// Index runs one full index(root, project, incremental) operation per
// spec.md §4.11's six steps. incremental=false forces a full reindex even
// if prior snapshots exist (step 1's "no snapshots" path, taken
// unconditionally).
func (o *Orchestrator) Index(ctx context.Context, project string, incremental bool) (Result, error) {
	start := time.Now()
	if project == "" {
		project = types.DefaultProject
	}

	// Step 1: load prior snapshots; schema mismatch forces a full index.
	matches, _, err := o.store.CheckSchemaVersion(ctx, project)
	if err != nil {
		return Result{}, fmt.Errorf("index: schema check: %w", err)
	}
	if !matches {
		obs.Warnf("schema version mismatch, rebuilding project", obs.F("project", project))
		if err := o.store.Rebuild(ctx, project); err != nil {
			return Result{}, fmt.Errorf("index: rebuild: %w", err)
		}
		incremental = false
	}

	prevSnapshots := map[string]types.IndexSnapshot{}
	if incremental {
		prevSnapshots, err = o.store.Snapshots(ctx, project)
		if err != nil {
			return Result{}, fmt.Errorf("index: load snapshots: %w", err)
		}
	}
	if len(prevSnapshots) == 0 {
		incremental = false
	}

	// Step 2: walk root, compute change set.
	scanner := discovery.NewScanner(o.cfg)
	files, err := scanner.Walk()
	if err != nil {
		return Result{}, fmt.Errorf("index: walk: %w", err)
	}

	prevHashes := make(map[string]string, len(prevSnapshots))
	for path, snap := range prevSnapshots {
		prevHashes[path] = snap.ContentHash
	}
	changes := discovery.Diff(files, prevHashes)

	result := Result{
		Project:       project,
		FilesWalked:   len(files),
		FilesAdded:    len(changes.Added),
		FilesModified: len(changes.Modified),
		FilesRemoved:  len(changes.Removed),
		FilesSkipped:  len(changes.Unchanged),
		WorkspaceHash: discovery.WorkspaceHash(files),
	}

	// Fast path: nothing changed, skip steps 3-5 entirely (spec.md §4.11:
	// "the orchestrator returns <=1s").
	if incremental && len(changes.Added) == 0 && len(changes.Modified) == 0 && len(changes.Removed) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	// Step 3: remove stale files, then parse only added/changed files
	// (full index: changes.Added holds every file, Removed/Modified empty).
	for _, relPath := range changes.Removed {
		if err := o.store.RemoveFile(ctx, project, relPath); err != nil {
			return result, fmt.Errorf("index: remove %s: %w", relPath, err)
		}
	}

	toParse := append(append([]discovery.File(nil), changes.Added...), changes.Modified...)
	timeout := time.Duration(o.cfg.Index.ParseTimeoutSec) * time.Second
	pool := parsingpool.New(o.adapters, o.cfg.Performance.Workers(), timeout)
	parseResults, err := pool.Run(ctx, toParse)
	if err != nil {
		return result, fmt.Errorf("index: parse: %w", err)
	}

	var rawBySource []types.RawReference
	for _, pr := range parseResults {
		snap := types.IndexSnapshot{
			Path:        pr.File.RelPath,
			ContentHash: pr.File.ContentHash,
			Size:        pr.File.Size,
			ParsedOK:    pr.ParsedOK,
			SymbolCount: len(pr.Symbols),
			AdapterID:   pr.AdapterID,
		}
		if info, statErr := os.Stat(pr.File.AbsPath); statErr == nil {
			snap.MTime = info.ModTime().Unix()
		}

		if err := o.store.ApplyFileUpdate(ctx, project, snap, pr.Symbols, nil); err != nil {
			return result, fmt.Errorf("index: apply %s: %w", pr.File.RelPath, err)
		}
		rawBySource = append(rawBySource, pr.Refs...)
		result.Symbols += len(pr.Symbols)
	}

	if err := o.extractDocuments(ctx, project, toParse, &rawBySource); err != nil {
		return result, fmt.Errorf("index: documents: %w", err)
	}

	// Step 4: re-run linkers over the FULL symbol set of the project, not
	// just the changed files, since cross-file references anywhere can be
	// invalidated by edits elsewhere (spec.md §4.11 step 4).
	if err := o.relinkProject(ctx, project, rawBySource, &result); err != nil {
		return result, err
	}

	// Step 5: recompute degrees, lineage paths, workspace hash, project_meta.
	if err := o.store.RefreshDegrees(ctx, project); err != nil {
		return result, fmt.Errorf("index: refresh degrees: %w", err)
	}

	lineagePaths, err := o.store.ComputeLineagePaths(ctx, project)
	if err != nil {
		return result, fmt.Errorf("index: compute lineage: %w", err)
	}
	if err := o.store.ReplaceLineagePaths(ctx, project, lineagePaths); err != nil {
		return result, fmt.Errorf("index: replace lineage: %w", err)
	}

	meta := types.Project{
		Name:          project,
		RootPath:      o.cfg.Project.Root,
		IndexedAt:     time.Now().Unix(),
		FileCount:     len(files),
		SymbolCount:   result.Symbols,
		RefCount:      result.Refs,
		WorkspaceHash: result.WorkspaceHash,
	}
	if err := o.store.UpsertProjectMeta(ctx, meta); err != nil {
		return result, fmt.Errorf("index: upsert project meta: %w", err)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// relinkProject re-links the raw references produced by this run's parse
// pass, but resolves them against every symbol currently in the project
// (loaded a page at a time), per spec.md §4.11 step 4.
func (o *Orchestrator) relinkProject(ctx context.Context, project string, raws []types.RawReference, result *Result) error {
	table, err := newProjectSymbolTable(ctx, o.store, project)
	if err != nil {
		return fmt.Errorf("relink: load symbol table: %w", err)
	}

	refs := o.linkers.LinkAll(raws, table)
	byFile := make(map[string][]types.Reference, len(refs))
	for _, ref := range refs {
		byFile[ref.Location.FilePath] = append(byFile[ref.Location.FilePath], ref)
	}
	for path, fileRefs := range byFile {
		if err := o.store.PutRefs(ctx, project, path, fileRefs); err != nil {
			return fmt.Errorf("relink: put refs %s: %w", path, err)
		}
	}
	result.Refs = len(refs)
	return nil
}

// extractDocuments runs the Document Extractor Adapter over files whose
// extension has a registered docext.Extractor, attaches their section
// symbols, and folds ScanMentions' candidate references in with the
// code-adapter output so the Linker Registry resolves both in one pass.
func (o *Orchestrator) extractDocuments(ctx context.Context, project string, files []discovery.File, raws *[]types.RawReference) error {
	for _, f := range files {
		ext := filepath.Ext(f.RelPath)
		extractor, ok := o.docs.For(ext)
		if !ok {
			continue
		}
		content, err := os.ReadFile(f.AbsPath)
		if err != nil {
			obs.Warnf("document unreadable, skipping", obs.F("path", f.AbsPath), obs.F("error", err.Error()))
			continue
		}
		doc := extractor.Extract(f.RelPath, content)
		if info, statErr := os.Stat(f.AbsPath); statErr == nil {
			doc.MTime = info.ModTime().Unix()
		}

		sectionSymbols := make([]types.Symbol, 0, len(doc.Sections))
		for _, sec := range doc.Sections {
			sectionSymbols = append(sectionSymbols, types.Symbol{
				ID:            types.BuildSymbolID(doc.Path, sec.Heading, types.SymbolDocSection, sec.Offset),
				Name:          sec.Heading,
				QualifiedName: doc.Path + "#" + sec.Heading,
				Type:          types.SymbolDocSection,
				Layer:         types.LayerDocument,
				FilePath:      doc.Path,
				LineStart:     sec.Offset,
				LineEnd:       sec.Offset,
				Domain:        types.DomainDoc,
			})
		}
		if err := o.store.PutDocument(ctx, project, doc, sectionSymbols); err != nil {
			return fmt.Errorf("put document %s: %w", doc.Path, err)
		}
		*raws = append(*raws, docext.ScanMentions(doc)...)
	}
	return nil
}
