// Package index holds the core data model (C3 data shapes) and the two
// components built directly on it: the Inverted Index Builder (C4) and
// the Index Store (C5).
package index

import "time"

// LineRecord is one non-empty line of a FileRecord. Line is 1-based;
// empty or whitespace-only lines never produce a LineRecord but are
// still counted in the owning FileRecord's TotalLines.
type LineRecord struct {
	Line   int
	Text   string
	Length int
}

// FileRecord is one eligible file as held by the Index Store, keyed by
// its canonical relative path.
type FileRecord struct {
	Path        string
	Language    string
	TotalLines  int
	Lines       []LineRecord
	ContentHash string // hex sha256 of the raw bytes
	LastSeen    time.Time
}

// Posting is one occurrence of a term within a specific file and line.
// FileIndex/LineIndex are positions into the owning IndexStore's file
// array and that file's Lines slice, respectively — not stable across
// mutation, which is why C5 rebuilds affected postings on every write.
type Posting struct {
	FileIndex int
	LineIndex int
	BaseScore float64
	LineNum   int
}

// InvertedIndex maps a lowercase term to its postings in insertion
// order; no sort is required for correctness (§3).
type InvertedIndex map[string][]Posting
