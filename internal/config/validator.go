package config

import (
	"errors"
	"fmt"
	"runtime"

	prismerrors "github.com/standardbeagle/prismd/internal/errors"
)

// Validator checks a loaded Config for values the core cannot run with and
// fills in anything Load left at its zero value but that needs a real
// default (e.g. auto-detected worker counts).
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates cfg section by section and applies
// smart defaults for anything left unset. The first invalid section is
// returned wrapped in a *prismerrors.ConfigError.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProject(&cfg.Project); err != nil {
		return prismerrors.NewConfigError("project", "", err)
	}
	if err := v.validateIndex(&cfg.Index); err != nil {
		return prismerrors.NewConfigError("index", "", err)
	}
	if err := v.validatePerformance(&cfg.Performance); err != nil {
		return prismerrors.NewConfigError("performance", "", err)
	}
	if err := v.validateSearch(&cfg.Search); err != nil {
		return prismerrors.NewConfigError("search", "", err)
	}
	if err := v.validateWatch(&cfg.Watch); err != nil {
		return prismerrors.NewConfigError("watch", "", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProject(p *Project) error {
	if p.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateIndex(idx *Index) error {
	if idx.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", idx.MaxFileSize)
	}
	if idx.MaxFileSize > 100*1024*1024 {
		return fmt.Errorf("max_file_size should not exceed 100MB, got %d", idx.MaxFileSize)
	}
	return nil
}

func (v *Validator) validatePerformance(perf *Performance) error {
	if perf.ParallelFileWorkers < 0 {
		return fmt.Errorf("parallel_file_workers cannot be negative, got %d", perf.ParallelFileWorkers)
	}
	return nil
}

func (v *Validator) validateSearch(s *Search) error {
	if s.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", s.DefaultLimit)
	}
	if s.MaxLimit < s.DefaultLimit {
		return fmt.Errorf("max_limit (%d) cannot be below default_limit (%d)", s.MaxLimit, s.DefaultLimit)
	}
	if s.MaxQueryLength <= 0 {
		return fmt.Errorf("max_query_length must be positive, got %d", s.MaxQueryLength)
	}
	if s.ResultCacheCapacity < 0 {
		return fmt.Errorf("result_cache_capacity cannot be negative, got %d", s.ResultCacheCapacity)
	}
	if s.CandidateBoundFactor < 1 {
		return fmt.Errorf("candidate_bound_factor must be at least 1, got %d", s.CandidateBoundFactor)
	}
	return nil
}

func (v *Validator) validateWatch(w *Watch) error {
	if w.DebounceMs < 0 {
		return fmt.Errorf("debounce_ms cannot be negative, got %d", w.DebounceMs)
	}
	if w.SaveEveryDispatches < 0 {
		return fmt.Errorf("save_every_dispatches cannot be negative, got %d", w.SaveEveryDispatches)
	}
	return nil
}

// setSmartDefaults fills in auto-detected values a `.prism.kdl` left at
// zero (distinct from Default(), which seeds the struct before the file
// is even read).
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Performance.ParallelFileWorkers == 0 {
		cfg.Performance.ParallelFileWorkers = max(1, runtime.NumCPU())
	}
}

// ValidateConfig is a convenience wrapper for callers that don't need a
// Validator instance of their own.
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
