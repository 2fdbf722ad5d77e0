// Package delta implements the Delta Planner (C7): comparing a fresh
// filesystem scan against the Index Store's stored hashes to classify
// each path without mutating anything.
package delta

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/prismd/internal/index"
	"github.com/standardbeagle/prismd/internal/scanner"
)

// Plan is the classification of every path considered in one
// classify() call, per §4.7.
type Plan struct {
	Added     []scanner.File
	Modified  []scanner.File
	Deleted   []string
	Unchanged []string
}

// Classify compares scanned against store's current state. It performs
// no mutation; the Coordinator applies InsertOrReplaceFile for
// Added+Modified and RemoveFile for Deleted.
//
// The comparison uses the Index Store's cached xxhash
// (Store.FastHashOf) as a cheap pre-check before falling back to the
// authoritative sha256 comparison: an xxhash match is treated as
// "unchanged" without hashing again, and only a miss pays for a
// sha256 computation. This mirrors the teacher's
// internal/core/file_content_store.go two-tier FastHash/ContentHash
// lookup.
func Classify(store *index.Store, scanned []scanner.File) Plan {
	var plan Plan

	seen := make(map[string]bool, len(scanned))
	for _, f := range scanned {
		seen[f.Path] = true

		fastHash, hadFast := store.FastHashOf(f.Path)
		storedHash, existed := store.ContentHashOf(f.Path)

		if !existed {
			plan.Added = append(plan.Added, f)
			continue
		}

		if hadFast && fastHash == xxhash.Sum64(f.Bytes) {
			plan.Unchanged = append(plan.Unchanged, f.Path)
			continue
		}

		sum := sha256.Sum256(f.Bytes)
		if hex.EncodeToString(sum[:]) == storedHash {
			plan.Unchanged = append(plan.Unchanged, f.Path)
			continue
		}

		plan.Modified = append(plan.Modified, f)
	}

	sn := store.Snapshot()
	for _, f := range sn.Files {
		if !seen[f.Path] {
			plan.Deleted = append(plan.Deleted, f.Path)
		}
	}

	return plan
}
