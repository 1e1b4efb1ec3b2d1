package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// tomlDoc mirrors the subset of Config exposed through the TOML fallback
// format (used when no .wicked-search.kdl is present).
type tomlDoc struct {
	Project struct {
		Root string `toml:"root"`
		Name string `toml:"name"`
	} `toml:"project"`
	Index struct {
		MaxFileSize      int64 `toml:"max_file_size"`
		FollowSymlinks   bool  `toml:"follow_symlinks"`
		RespectGitignore bool  `toml:"respect_gitignore"`
		WatchMode        bool  `toml:"watch_mode"`
		WatchDebounceMs  int   `toml:"watch_debounce_ms"`
		ParseTimeoutSec  int   `toml:"parse_timeout_sec"`
	} `toml:"index"`
	Performance struct {
		ParallelFileWorkers int `toml:"parallel_file_workers"`
		MaxWorkers          int `toml:"max_workers"`
		BatchSize           int `toml:"batch_size"`
	} `toml:"performance"`
	Search struct {
		MinConfidence string `toml:"min_confidence"`
	} `toml:"search"`
	Gateway struct {
		Addr string `toml:"addr"`
	} `toml:"gateway"`
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

func loadTOML(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc tomlDoc
	doc.Index.FollowSymlinks = cfg.Index.FollowSymlinks
	doc.Index.RespectGitignore = cfg.Index.RespectGitignore
	doc.Index.WatchMode = cfg.Index.WatchMode
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return err
	}

	if doc.Project.Root != "" {
		cfg.Project.Root = doc.Project.Root
	}
	if doc.Project.Name != "" {
		cfg.Project.Name = doc.Project.Name
	}
	if doc.Index.MaxFileSize > 0 {
		cfg.Index.MaxFileSize = doc.Index.MaxFileSize
	}
	cfg.Index.FollowSymlinks = doc.Index.FollowSymlinks
	cfg.Index.RespectGitignore = doc.Index.RespectGitignore
	cfg.Index.WatchMode = doc.Index.WatchMode
	if doc.Index.WatchDebounceMs > 0 {
		cfg.Index.WatchDebounceMs = doc.Index.WatchDebounceMs
	}
	if doc.Index.ParseTimeoutSec > 0 {
		cfg.Index.ParseTimeoutSec = doc.Index.ParseTimeoutSec
	}
	if doc.Performance.ParallelFileWorkers > 0 {
		cfg.Performance.ParallelFileWorkers = doc.Performance.ParallelFileWorkers
	}
	if doc.Performance.MaxWorkers > 0 {
		cfg.Performance.MaxWorkers = doc.Performance.MaxWorkers
	}
	if doc.Performance.BatchSize > 0 {
		cfg.Performance.BatchSize = doc.Performance.BatchSize
	}
	if doc.Search.MinConfidence != "" {
		cfg.Search.MinConfidence = doc.Search.MinConfidence
	}
	if doc.Gateway.Addr != "" {
		cfg.Gateway.Addr = doc.Gateway.Addr
	}
	cfg.Include = append(cfg.Include, doc.Include...)
	cfg.Exclude = append(cfg.Exclude, doc.Exclude...)
	return nil
}
