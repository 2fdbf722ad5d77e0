package index

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Delta describes the outcome of an insert_or_replace_file call.
type Delta string

const (
	DeltaAdded    Delta = "added"
	DeltaModified Delta = "modified"
)

// snapshot is the immutable state readers dereference without taking
// Store.mu. Every mutation builds a new snapshot and swaps it in with a
// single atomic.Pointer store, per §5's "one logical writer, many
// readers" model — grounded on the teacher's
// internal/indexing/master_index.go FileSnapshot/atomic.Pointer pair.
type snapshot struct {
	version   string
	createdAt time.Time
	root      string
	files     []*FileRecord
	fileIdx   map[string]int // path -> index into files
	inverted  InvertedIndex
	hashes    map[string]string // path -> hex sha256, the file-hash map of §3
}

func emptySnapshot(root, version string) *snapshot {
	return &snapshot{
		version:   version,
		createdAt: time.Now(),
		root:      root,
		files:     nil,
		fileIdx:   make(map[string]int),
		inverted:  make(InvertedIndex),
		hashes:    make(map[string]string),
	}
}

// Store is the Index Store (C5): the in-memory authoritative state of
// files, postings, and content hashes. A single mutex serializes
// insert_or_replace_file/remove_file; reads go through Snapshot(),
// which never blocks on the mutex.
type Store struct {
	mu  sync.Mutex // serializes writers only; readers never take it
	ptr atomic.Pointer[snapshot]

	// fastHashes caches a cheap xxhash per path purely as a pre-check
	// for the Delta Planner (C7); it is not part of the data model in
	// §3 and is never persisted by the Snapshot Codec.
	fastMu    sync.Mutex
	fastHashes map[string]uint64

	// onCommit, if set, runs immediately before every s.ptr.Store call
	// that publishes a new snapshot — including Restore. The
	// Coordinator wires this to the Search Engine's InvalidateCache so
	// the result cache is always purged strictly before a reader can
	// observe the new state, never after.
	onCommit func()
}

// New creates an empty Store rooted at root, tagged with version.
func New(root, version string) *Store {
	s := &Store{fastHashes: make(map[string]uint64)}
	s.ptr.Store(emptySnapshot(root, version))
	return s
}

// SetOnCommit installs fn to run before every subsequent snapshot
// publish. Call once, before the Store is shared with any reader.
func (s *Store) SetOnCommit(fn func()) {
	s.onCommit = fn
}

func (s *Store) commit(next *snapshot) {
	if s.onCommit != nil {
		s.onCommit()
	}
	s.ptr.Store(next)
}

// Snapshot returns the current immutable state. Safe for concurrent
// use with writers; never blocks.
type Snapshot struct {
	Version   string
	CreatedAt time.Time
	Root      string
	Files     []*FileRecord
	Inverted  InvertedIndex
	Hashes    map[string]string
}

func (s *Store) Snapshot() Snapshot {
	sn := s.ptr.Load()
	return Snapshot{
		Version:   sn.version,
		CreatedAt: sn.createdAt,
		Root:      sn.root,
		Files:     sn.files,
		Inverted:  sn.inverted,
		Hashes:    sn.hashes,
	}
}

// FileCount returns the number of FileRecords currently held.
func (s *Store) FileCount() int {
	return len(s.ptr.Load().files)
}

// GetFile returns the FileRecord for path, if present.
func (s *Store) GetFile(path string) (*FileRecord, bool) {
	sn := s.ptr.Load()
	i, ok := sn.fileIdx[path]
	if !ok {
		return nil, false
	}
	return sn.files[i], true
}

// ContentHashOf returns the stored hash for path, if present.
func (s *Store) ContentHashOf(path string) (string, bool) {
	sn := s.ptr.Load()
	h, ok := sn.hashes[path]
	return h, ok
}

// FastHashOf returns the cached xxhash pre-check value for path, if one
// has been computed by a prior insert_or_replace_file call.
func (s *Store) FastHashOf(path string) (uint64, bool) {
	s.fastMu.Lock()
	defer s.fastMu.Unlock()
	h, ok := s.fastHashes[path]
	return h, ok
}

// InsertOrReplaceFile builds a FileRecord + LineRecords from bytes via
// C3/C4, replaces any prior record for path, and atomically swaps in
// the updated snapshot. Returns DeltaAdded or DeltaModified.
func (s *Store) InsertOrReplaceFile(path string, content []byte) Delta {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.ptr.Load()
	lang := LanguageOf(path)
	totalLines, lines := Extract(content)
	hash := sha256.Sum256(content)
	hexHash := hex.EncodeToString(hash[:])

	rec := &FileRecord{
		Path:        path,
		Language:    lang,
		TotalLines:  totalLines,
		Lines:       lines,
		ContentHash: hexHash,
		LastSeen:    time.Now(),
	}

	next := &snapshot{
		version:   prev.version,
		createdAt: prev.createdAt,
		root:      prev.root,
		files:     make([]*FileRecord, 0, len(prev.files)+1),
		fileIdx:   make(map[string]int, len(prev.fileIdx)+1),
		inverted:  make(InvertedIndex, len(prev.inverted)),
		hashes:    make(map[string]string, len(prev.hashes)+1),
	}

	delta := DeltaAdded
	for p, i := range prev.fileIdx {
		if p == path {
			delta = DeltaModified
			continue // dropped; replaced below
		}
		next.files = append(next.files, prev.files[i])
	}
	next.files = append(next.files, rec)

	for i, f := range next.files {
		next.fileIdx[f.Path] = i
	}
	for p, h := range prev.hashes {
		if p != path {
			next.hashes[p] = h
		}
	}
	next.hashes[path] = hexHash

	newFileIndex := next.fileIdx[path]
	for term, postings := range prev.inverted {
		for _, p := range postings {
			if prev.files[p.FileIndex].Path == path {
				continue // belongs to the replaced record; rebuilt below
			}
			carried := p
			carried.FileIndex = next.fileIdx[prev.files[p.FileIndex].Path]
			next.inverted[term] = append(next.inverted[term], carried)
		}
	}
	for lineIdx, rec := range rec.Lines {
		addLine(next.inverted, lang, newFileIndex, lineIdx, rec)
	}

	s.commit(next)

	s.fastMu.Lock()
	s.fastHashes[path] = xxhash.Sum64(content)
	s.fastMu.Unlock()

	return delta
}

// RemoveFile removes path's FileRecord, its postings, and its hash.
// Returns whether a record existed for path.
func (s *Store) RemoveFile(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.ptr.Load()
	if _, ok := prev.fileIdx[path]; !ok {
		return false
	}

	next := &snapshot{
		version:   prev.version,
		createdAt: prev.createdAt,
		root:      prev.root,
		files:     make([]*FileRecord, 0, len(prev.files)),
		fileIdx:   make(map[string]int, len(prev.fileIdx)),
		inverted:  make(InvertedIndex, len(prev.inverted)),
		hashes:    make(map[string]string, len(prev.hashes)),
	}

	for p, i := range prev.fileIdx {
		if p == path {
			continue
		}
		next.files = append(next.files, prev.files[i])
	}
	for i, f := range next.files {
		next.fileIdx[f.Path] = i
	}
	for p, h := range prev.hashes {
		if p != path {
			next.hashes[p] = h
		}
	}
	for term, postings := range prev.inverted {
		for _, p := range postings {
			if prev.files[p.FileIndex].Path == path {
				continue
			}
			carried := p
			carried.FileIndex = next.fileIdx[prev.files[p.FileIndex].Path]
			next.inverted[term] = append(next.inverted[term], carried)
		}
	}

	s.commit(next)

	s.fastMu.Lock()
	delete(s.fastHashes, path)
	s.fastMu.Unlock()

	return true
}

// Restore replaces the Store's entire state from a previously decoded
// snapshot (used by the Snapshot Codec and the Coordinator's full
// rebuild path). It is the one mutation that bypasses the normal
// insert/remove diffing because it installs a whole new state at once.
func (s *Store) Restore(version, root string, files []*FileRecord, inverted InvertedIndex, hashes map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fileIdx := make(map[string]int, len(files))
	for i, f := range files {
		fileIdx[f.Path] = i
	}

	s.commit(&snapshot{
		version:   version,
		createdAt: time.Now(),
		root:      root,
		files:     files,
		fileIdx:   fileIdx,
		inverted:  inverted,
		hashes:    hashes,
	})

	s.fastMu.Lock()
	s.fastHashes = make(map[string]uint64)
	s.fastMu.Unlock()
}
