// Package filter implements the Path Filter (C1): a single predicate
// deciding whether a scanned path belongs in the index.
package filter

import (
	"path"
	"strings"
)

// deniedSegments names directories that are never indexed, regardless of
// depth. Fixed per spec §4.1: "compile-time constants in the MVP; they
// are not user-configurable in the core."
var deniedSegments = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	".next":        true,
	".prism":       true, // the tool's own state directory
}

// allowedExtensions is the fixed allow-set; a path must end in one of
// these (including the leading dot) to be eligible.
var allowedExtensions = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".py": true, ".go": true, ".rs": true,
	".java": true, ".cs": true, ".php": true, ".rb": true,
	".md": true, ".json": true, ".yaml": true, ".yml": true,
}

// Eligible reports whether p should be indexed. p is expected to be a
// canonical, forward-slash relative path (see pkg/pathutil.Canonical).
//
// Eligible never fails: malformed input (empty, absolute, or escaping
// the root via ".." once cleaned) simply reports false, per §4.1's
// failure semantics.
func Eligible(p string) bool {
	if p == "" {
		return false
	}
	if strings.HasPrefix(p, "/") {
		return false
	}

	clean := path.Clean(p)
	if clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return false
	}

	for _, seg := range strings.Split(clean, "/") {
		if deniedSegments[seg] {
			return false
		}
	}

	return allowedExtensions[extensionOf(clean)]
}

// DirDenied reports whether rel names a directory the walk should not
// descend into at all (any segment is in the fixed deny-set). Lets the
// scanner prune whole subtrees like node_modules/ instead of visiting
// every file beneath them only to reject each individually.
func DirDenied(rel string) bool {
	clean := path.Clean(rel)
	if clean == "." {
		return false
	}
	for _, seg := range strings.Split(clean, "/") {
		if deniedSegments[seg] {
			return true
		}
	}
	return false
}

// extensionOf returns the final segment's extension, lowercased, with
// its leading dot. "Dockerfile" and other extension-less names yield "".
func extensionOf(p string) string {
	base := path.Base(p)
	idx := strings.LastIndexByte(base, '.')
	if idx <= 0 {
		return ""
	}
	return strings.ToLower(base[idx:])
}
