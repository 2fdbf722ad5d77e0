// Package scanner implements the File Scanner (C2): a recursive walk of
// a project root that yields eligible files and their contents.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/prismd/internal/debug"
	prismerrors "github.com/standardbeagle/prismd/internal/errors"
	"github.com/standardbeagle/prismd/internal/filter"
	"github.com/standardbeagle/prismd/pkg/pathutil"
)

// File is one emission of Walk: an eligible path (canonical, relative to
// root) paired with its contents.
type File struct {
	Path  string
	Bytes []byte
}

// Options configures a Walk.
type Options struct {
	MaxFileSize int64       // per-file byte cap; 0 means no cap
	Workers     int         // parallel content readers; <=0 means runtime.GOMAXPROCS
	Scope       *filter.Scope // optional extra include/exclude layer on top of C1
}

// Walk recursively traverses root and returns every eligible file found,
// reading each one's contents with bounded parallelism. File discovery
// itself is sequential (directory order must be deterministic for
// duplicate-free emission); only content reads are parallelized.
//
// Symbolic links are never followed, matching §4.2. Unreadable entries
// and files over MaxFileSize are skipped and logged, not reported as
// fatal errors. Each per-file stat or read failure is accumulated into
// the returned []error so a caller can surface it (e.g. in a reindex
// Summary) without the walk itself aborting; oversized or binary-looking
// files and unreadable directories add no entry there. Walk as a whole
// fails only when root itself is inaccessible.
func Walk(ctx context.Context, root string, opts Options) ([]File, []error, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, prismerrors.NewRootInaccessibleError(root, err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, nil, prismerrors.NewRootInaccessibleError(absRoot, err)
	}

	paths, err := discover(absRoot, opts.Scope)
	if err != nil {
		return nil, nil, err
	}

	files, errs := readAll(ctx, absRoot, paths, opts)
	return files, errs, nil
}

// discover walks the tree depth-first, collecting canonical relative
// paths of eligible files. Visited real directories are tracked to
// guard against symlink cycles, mirroring the teacher's
// walkDirectoryWithVisited.
func discover(absRoot string, scope *filter.Scope) ([]string, error) {
	var paths []string
	visited := make(map[string]bool)

	var walkDir func(dir string) error
	walkDir = func(dir string) error {
		info, err := os.Lstat(dir)
		if err != nil {
			return nil
		}
		realDir := dir
		if info.Mode()&os.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(dir)
			if err != nil {
				return nil
			}
			realDir = resolved
		}
		if visited[realDir] {
			return nil
		}
		visited[realDir] = true

		entries, err := os.ReadDir(dir)
		if err != nil {
			debug.LogScan("cannot read directory %s: %v", dir, err)
			return nil
		}

		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())

			if entry.Type()&os.ModeSymlink != 0 {
				continue
			}

			if entry.IsDir() {
				rel := pathutil.Canonical(full, absRoot)
				if filter.DirDenied(rel) {
					continue
				}
				if err := walkDir(full); err != nil {
					return err
				}
				continue
			}

			rel := pathutil.Canonical(full, absRoot)
			if !filter.Eligible(rel) {
				continue
			}
			if scope != nil && !scope.InScope(rel) {
				continue
			}
			paths = append(paths, rel)
		}
		return nil
	}

	if err := walkDir(absRoot); err != nil {
		return nil, err
	}
	return paths, nil
}

func readAll(ctx context.Context, absRoot string, paths []string, opts Options) ([]File, []error) {
	results := make([]File, len(paths))
	present := make([]bool, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	for i, rel := range paths {
		i, rel := i, rel
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			default:
			}

			full := filepath.Join(absRoot, filepath.FromSlash(rel))
			content, ok, readErr := readOne(full, rel, opts.MaxFileSize)
			if ok {
				results[i] = File{Path: rel, Bytes: content}
				present[i] = true
			}
			errs[i] = readErr
			return nil
		})
	}

	g.Wait()

	out := make([]File, 0, len(paths))
	var scanErrs []error
	for i, ok := range present {
		if ok {
			out = append(out, results[i])
		}
		if errs[i] != nil {
			scanErrs = append(scanErrs, errs[i])
		}
	}
	return out, scanErrs
}

// readOne reads one eligible file's contents. A non-nil error is always
// a non-fatal ReadError — ok is false alongside it, but the caller is
// expected to log/accumulate rather than abort the walk. A file skipped
// for being oversized or binary-looking reports ok=false with a nil
// error: that's a deliberate exclusion, not a failure.
func readOne(full, rel string, maxSize int64) ([]byte, bool, error) {
	info, err := os.Lstat(full)
	if err != nil {
		debug.LogScan("cannot stat %s: %v", rel, err)
		return nil, false, prismerrors.NewReadError("stat", rel, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, false, nil
	}
	if maxSize > 0 && info.Size() > maxSize {
		debug.LogScan("skipping %s: %d bytes exceeds cap of %d", rel, info.Size(), maxSize)
		return nil, false, nil
	}

	content, err := os.ReadFile(full)
	if err != nil {
		debug.LogScan("cannot read %s: %v", rel, err)
		return nil, false, prismerrors.NewReadError("read", rel, err)
	}

	headerLen := len(content)
	if headerLen > 512 {
		headerLen = 512
	}
	if looksBinary(content[:headerLen]) {
		debug.LogScan("skipping %s: looks binary despite source extension", rel)
		return nil, false, nil
	}

	return content, true, nil
}
