// Package config loads indexer and gateway configuration. Mirrors the
// teacher's internal/config package: a struct of plain Go types with
// sensible defaults, overlaid by a declarative file format (KDL, with a
// TOML fallback) and then by CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

type Config struct {
	Project     Project
	Index       Index
	Performance Performance
	Search      Search
	Gateway     Gateway
	Include     []string
	Exclude     []string
}

type Project struct {
	Root string
	Name string
}

type Index struct {
	MaxFileSize      int64 // bytes; files larger are skipped to protect memory
	FollowSymlinks   bool
	RespectGitignore bool
	WatchMode        bool
	WatchDebounceMs  int
	ParseTimeoutSec  int // per-file parse timeout, spec.md §5 default 30s
}

type Performance struct {
	ParallelFileWorkers int // 0 = auto-detect (min(NumCPU, configurable max))
	MaxWorkers          int // hard ceiling on ParallelFileWorkers
	BatchSize           int // symbols/refs flushed to the store per batch
}

type Search struct {
	MinConfidence string // default confidence floor for ref queries: "low"
}

type Gateway struct {
	Addr string // default ":18889" per spec.md §6
}

// Default returns the configuration baseline before any file or flag
// overrides are applied.
func Default() *Config {
	return &Config{
		Project: Project{Root: "."},
		Index: Index{
			MaxFileSize:      5 * 1024 * 1024,
			FollowSymlinks:   false,
			RespectGitignore: true,
			WatchMode:        false,
			WatchDebounceMs:  300,
			ParseTimeoutSec:  30,
		},
		Performance: Performance{
			ParallelFileWorkers: 0,
			MaxWorkers:          runtime.NumCPU(),
			BatchSize:           500,
		},
		Search: Search{MinConfidence: "low"},
		Gateway: Gateway{Addr: ":18889"},
	}
}

// Load resolves configuration for projectRoot: defaults, overlaid by
// .wicked-search.kdl if present, overlaid by .wicked-search.toml if the KDL
// file is absent. Either file is optional; absence is not an error.
func Load(projectRoot string) (*Config, error) {
	cfg := Default()
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	cfg.Project.Root = absRoot

	kdlPath := filepath.Join(absRoot, ".wicked-search.kdl")
	if _, err := os.Stat(kdlPath); err == nil {
		if err := loadKDL(kdlPath, cfg); err != nil {
			return nil, fmt.Errorf("loading %s: %w", kdlPath, err)
		}
		return cfg, nil
	}

	tomlPath := filepath.Join(absRoot, ".wicked-search.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		if err := loadTOML(tomlPath, cfg); err != nil {
			return nil, fmt.Errorf("loading %s: %w", tomlPath, err)
		}
	}
	return cfg, nil
}

func (p Performance) Workers() int {
	if p.ParallelFileWorkers > 0 {
		if p.MaxWorkers > 0 && p.ParallelFileWorkers > p.MaxWorkers {
			return p.MaxWorkers
		}
		return p.ParallelFileWorkers
	}
	n := runtime.NumCPU()
	if p.MaxWorkers > 0 && n > p.MaxWorkers {
		return p.MaxWorkers
	}
	return n
}
