// Package errors defines the typed error kinds the core surfaces to its
// callers, and the ones it absorbs internally and only reflects in stats
// counters.
package errors

import (
	"fmt"
	"time"
)

// Kind identifies one of the error kinds enumerated for the daemon core.
type Kind string

const (
	KindInvalidQuery      Kind = "invalid_query"
	KindNotFound          Kind = "not_found"
	KindReadError         Kind = "read_error"
	KindSnapshotCorrupt   Kind = "snapshot_corrupt"
	KindSnapshotStale     Kind = "snapshot_stale"
	KindWatcherInitFailed Kind = "watcher_init_failed"
	KindRootInaccessible  Kind = "root_inaccessible"
	KindConfigInvalid     Kind = "config_invalid"
)

// ConfigError is returned when a loaded `.prism.kdl` fails validation.
// Section names the top-level block (e.g. "index"), Field the offending
// key within it when known.
type ConfigError struct {
	Section    string
	Field      string
	Underlying error
}

func NewConfigError(section, field string, err error) *ConfigError {
	return &ConfigError{Section: section, Field: field, Underlying: err}
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config %s.%s: %v", e.Section, e.Field, e.Underlying)
	}
	return fmt.Sprintf("config %s: %v", e.Section, e.Underlying)
}

func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// InvalidQueryError is returned when a query is rejected by validation
// (too long). Surfaced to the caller.
type InvalidQueryError struct {
	Query     string
	Reason    string
	Timestamp time.Time
}

func NewInvalidQueryError(query, reason string) *InvalidQueryError {
	return &InvalidQueryError{Query: query, Reason: reason, Timestamp: time.Now()}
}

func (e *InvalidQueryError) Error() string {
	q := e.Query
	if len(q) > 64 {
		q = q[:64] + "..."
	}
	return fmt.Sprintf("invalid query %q: %s", q, e.Reason)
}

// NotFoundError is returned when a requested path or symbol is absent from
// the IndexStore. Callers that can tolerate it should prefer an empty
// result over this error (see get_file_context vs. search).
type NotFoundError struct {
	Path      string
	Timestamp time.Time
}

func NewNotFoundError(path string) *NotFoundError {
	return &NotFoundError{Path: path, Timestamp: time.Now()}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}

// ReadError represents a per-file I/O failure. Logged, file skipped, the
// overall operation continues.
type ReadError struct {
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

func NewReadError(op, path string, err error) *ReadError {
	return &ReadError{Operation: op, Path: path, Underlying: err, Timestamp: time.Now()}
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

func (e *ReadError) Unwrap() error {
	return e.Underlying
}

// SnapshotCorruptError means the snapshot file failed to parse. Recovered
// by discarding the snapshot and performing a full rebuild.
type SnapshotCorruptError struct {
	Path       string
	Underlying error
	Timestamp  time.Time
}

func NewSnapshotCorruptError(path string, err error) *SnapshotCorruptError {
	return &SnapshotCorruptError{Path: path, Underlying: err, Timestamp: time.Now()}
}

func (e *SnapshotCorruptError) Error() string {
	return fmt.Sprintf("snapshot at %s is corrupt: %v", e.Path, e.Underlying)
}

func (e *SnapshotCorruptError) Unwrap() error {
	return e.Underlying
}

// SnapshotStaleError means the snapshot's version tag does not match the
// current code's expected version. Recovered the same way as corruption:
// discard and rebuild.
type SnapshotStaleError struct {
	Path            string
	FoundVersion    string
	ExpectedVersion string
	Timestamp       time.Time
}

func NewSnapshotStaleError(path, found, expected string) *SnapshotStaleError {
	return &SnapshotStaleError{Path: path, FoundVersion: found, ExpectedVersion: expected, Timestamp: time.Now()}
}

func (e *SnapshotStaleError) Error() string {
	return fmt.Sprintf("snapshot at %s has version %q, expected %q", e.Path, e.FoundVersion, e.ExpectedVersion)
}

// WatcherInitFailedError is non-fatal; the daemon runs without incremental
// updates and logs the condition.
type WatcherInitFailedError struct {
	Root       string
	Underlying error
	Timestamp  time.Time
}

func NewWatcherInitFailedError(root string, err error) *WatcherInitFailedError {
	return &WatcherInitFailedError{Root: root, Underlying: err, Timestamp: time.Now()}
}

func (e *WatcherInitFailedError) Error() string {
	return fmt.Sprintf("watcher init failed for %s: %v", e.Root, e.Underlying)
}

func (e *WatcherInitFailedError) Unwrap() error {
	return e.Underlying
}

// RootInaccessibleError is the only fatal error: initialization aborts.
type RootInaccessibleError struct {
	Root       string
	Underlying error
	Timestamp  time.Time
}

func NewRootInaccessibleError(root string, err error) *RootInaccessibleError {
	return &RootInaccessibleError{Root: root, Underlying: err, Timestamp: time.Now()}
}

func (e *RootInaccessibleError) Error() string {
	return fmt.Sprintf("project root %s is not accessible: %v", e.Root, e.Underlying)
}

func (e *RootInaccessibleError) Unwrap() error {
	return e.Underlying
}

// MultiError aggregates several non-fatal errors encountered during a walk
// or rebuild (e.g. several ReadErrors). It satisfies error and Unwrap()
// []error for errors.Is/As against any of its members.
type MultiError struct {
	Errors []error
}

func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

func (e *MultiError) Unwrap() []error {
	return e.Errors
}
