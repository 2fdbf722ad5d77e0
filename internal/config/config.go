// Package config loads the daemon's project configuration from a
// `.prism.kdl` file, falling back to documented defaults when absent.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds every knob the core components (C1-C10) read at startup.
// Everything has a safe default; a project without a `.prism.kdl` runs
// off defaults alone.
type Config struct {
	Version     int
	Project     Project
	Index       Index
	Performance Performance
	Search      Search
	Watch       Watch
	Include     []string
	Exclude     []string
}

type Project struct {
	Root string
	Name string
}

// Index controls the File Scanner (C2). The Path Filter's (C1)
// allow/deny sets are fixed compile-time constants per spec and are
// deliberately not exposed here.
type Index struct {
	MaxFileSize    int64 // per-file byte cap (C2 §4.2, default 1 MiB)
	FollowSymlinks bool  // C2 always skips symlinks regardless of this; reserved for a future relaxation
}

// Performance controls the File Scanner's (C2) parallel worker pool.
type Performance struct {
	ParallelFileWorkers int // 0 = auto-detect (NumCPU)
}

// Search controls the Search Engine (C8).
type Search struct {
	DefaultLimit         int // §4.8.1 default 10
	MaxLimit             int // §4.8.1 max 100
	MaxQueryLength       int // §4.8.1 cap 10,000
	ResultCacheCapacity  int // §4.8.9 default 100
	CandidateBoundFactor int // §4.8.7 stop collecting at factor*limit
}

// Watch controls the Watcher Integrator (C9).
type Watch struct {
	Enabled              bool
	DebounceMs           int           // §4.9 default 500ms
	SaveEveryDispatches  int           // emit a snapshot save at most once per N dispatches
	SaveEveryInterval    time.Duration // ...or per time window, whichever is smaller
}

// Default returns the documented default configuration, rooted at root.
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Index: Index{
			MaxFileSize:    1 << 20, // 1 MiB
			FollowSymlinks: false,
		},
		Performance: Performance{
			ParallelFileWorkers: runtime.NumCPU(),
		},
		Search: Search{
			DefaultLimit:         10,
			MaxLimit:             100,
			MaxQueryLength:       10000,
			ResultCacheCapacity:  100,
			CandidateBoundFactor: 3,
		},
		Watch: Watch{
			Enabled:             true,
			DebounceMs:          500,
			SaveEveryDispatches: 20,
			SaveEveryInterval:   5 * time.Second,
		},
		Include: []string{},
		Exclude: []string{},
	}
}

// Load reads `<root>/.prism.kdl` if present and overlays it onto the
// documented defaults. A missing file is not an error: Load returns the
// defaults unchanged.
func Load(root string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	cfg := Default(absRoot)

	kdlPath := filepath.Join(absRoot, ".prism.kdl")
	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return cfg, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, err
	}

	if err := applyKDL(cfg, string(content)); err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
