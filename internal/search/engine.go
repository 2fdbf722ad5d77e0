// Package search implements the Search Engine (C8): resolving a query
// string into a ranked, bounded list of Results against the Index
// Store, with an LRU result cache.
package search

import (
	"sort"
	"strings"

	prismerrors "github.com/standardbeagle/prismd/internal/errors"
	"github.com/standardbeagle/prismd/internal/index"
	"github.com/standardbeagle/prismd/internal/metrics"
)

// Config tunes the Engine's validation limits, ranking bound, and
// cache size. Mirrors internal/config.Search 1:1; kept as its own type
// so this package doesn't depend on internal/config.
type Config struct {
	DefaultLimit         int
	MaxLimit             int
	MaxQueryLength       int
	ResultCacheCapacity  int
	CandidateBoundFactor int
}

// DefaultConfig matches internal/config.Default's Search section.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:         10,
		MaxLimit:             100,
		MaxQueryLength:       10000,
		ResultCacheCapacity:  100,
		CandidateBoundFactor: 3,
	}
}

// Engine answers Search/ExplainUsage against an *index.Store.
type Engine struct {
	store   *index.Store
	cfg     Config
	cache   *resultCache
	counters *metrics.Counters
}

func NewEngine(store *index.Store, cfg Config) *Engine {
	return &Engine{
		store:    store,
		cfg:      cfg,
		cache:    newResultCache(cfg.ResultCacheCapacity),
		counters: metrics.New(),
	}
}

// Counters exposes the Engine's cache/search counters for stats().
func (e *Engine) Counters() *metrics.Counters {
	return e.counters
}

// InvalidateCache purges every cached result. The Coordinator installs
// it as the Index Store's onCommit hook, so it runs before every Index
// Store mutation is published (full rebuild, incremental apply, watcher
// dispatch), per §5's requirement that a mutation invalidate the cache
// wholesale rather than selectively.
func (e *Engine) InvalidateCache() {
	e.cache.purge()
}

type bucket struct {
	fileIndex, lineIndex int
	matchedTerms         int
}

type bucketPos struct {
	fileIndex, lineIndex int
}

// Search runs the §4.8 pipeline against the Index Store's current
// snapshot. An empty/whitespace query returns (nil, nil) without
// touching the cache; a query over MaxQueryLength returns an error.
func (e *Engine) Search(query string, limit int) ([]Result, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, nil
	}
	if len(query) > e.cfg.MaxQueryLength {
		e.counters.RecordError()
		return nil, prismerrors.NewInvalidQueryError(query, "exceeds maximum query length")
	}

	limit = e.normalizeLimit(limit)
	e.counters.RecordSearch()

	key := cacheKey{query: trimmed, limit: limit}
	if cached, ok := e.cache.get(key); ok {
		e.counters.RecordCacheHit()
		return cached, nil
	}
	e.counters.RecordCacheMiss()

	sn := e.store.Snapshot()
	terms := dedupeKeepOrder(index.Tokenize(trimmed))
	queryLower := strings.ToLower(trimmed)

	var results []Result
	if len(terms) > 0 && allTermsIndexed(sn.Inverted, terms) {
		results = e.invertedSearch(sn, terms, queryLower, limit)
	} else {
		results = linearSearch(sn, queryLower)
	}

	results = rankAndBound(results, limit)
	attachContext(sn, results)

	e.cache.set(key, results)
	return results, nil
}

func (e *Engine) normalizeLimit(limit int) int {
	if limit <= 0 {
		return e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		return e.cfg.MaxLimit
	}
	return limit
}

func allTermsIndexed(inv index.InvertedIndex, terms []string) bool {
	for _, t := range terms {
		if _, ok := inv[t]; !ok {
			return false
		}
	}
	return true
}

// invertedSearch implements §4.8 steps 4-5: bucket postings by
// (file, line) across all query terms, verify the phrase match, score.
//
// Bucket discovery order follows the deterministic order terms were
// parsed in, and each term's postings slice (insertion order) — never
// Go's randomized map iteration — so the candidate-bound cutoff below
// always admits the same subset for a given IndexStore state and
// query, satisfying the determinism requirement.
func (e *Engine) invertedSearch(sn index.Snapshot, terms []string, queryLower string, limit int) []Result {
	bound := e.cfg.CandidateBoundFactor * limit

	order := make([]bucketPos, 0)
	buckets := make(map[bucketPos]*bucket)

	for _, term := range terms {
		for _, p := range sn.Inverted[term] {
			k := bucketPos{p.FileIndex, p.LineIndex}
			b, ok := buckets[k]
			if !ok {
				if len(order) >= bound {
					continue
				}
				b = &bucket{fileIndex: p.FileIndex, lineIndex: p.LineIndex}
				buckets[k] = b
				order = append(order, k)
			}
			b.matchedTerms++
		}
	}

	results := make([]Result, 0, len(order))
	for _, pos := range order {
		f := sn.Files[pos.fileIndex]
		line := f.Lines[pos.lineIndex]
		if !strings.Contains(strings.ToLower(line.Text), queryLower) {
			continue
		}

		b := buckets[pos]
		base := index.BaseScore(f.Language, line.Length)
		ratio := float64(b.matchedTerms) / float64(len(terms))
		score := clamp01(base + 0.5 + 0.3*ratio)

		results = append(results, Result{
			Path:     f.Path,
			Line:     line.Line,
			Text:     line.Text,
			Score:    score,
			Language: f.Language,
		})
	}

	return results
}

// linearSearch implements §4.8 step 6: scan every LineRecord, admit
// substring matches against the full query.
func linearSearch(sn index.Snapshot, queryLower string) []Result {
	var results []Result
	for _, f := range sn.Files {
		for _, line := range f.Lines {
			if !strings.Contains(strings.ToLower(line.Text), queryLower) {
				continue
			}
			base := index.BaseScore(f.Language, line.Length)
			score := clamp01(base + 0.5)

			results = append(results, Result{
				Path:     f.Path,
				Line:     line.Line,
				Text:     line.Text,
				Score:    score,
				Language: f.Language,
			})
		}
	}
	return results
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// rankAndBound implements §4.8 step 7's sort/truncate (the candidate
// bound itself is already applied during inverted collection).
func rankAndBound(results []Result, limit int) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Path != results[j].Path {
			return results[i].Path < results[j].Path
		}
		return results[i].Line < results[j].Line
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// attachContext implements §4.8 step 8: ±1 neighboring lines from the
// same file's LineRecord sequence, when available.
func attachContext(sn index.Snapshot, results []Result) {
	pathIndex := make(map[string]*index.FileRecord, len(sn.Files))
	for _, f := range sn.Files {
		pathIndex[f.Path] = f
	}

	for i := range results {
		f, ok := pathIndex[results[i].Path]
		if !ok {
			continue
		}
		pos := -1
		for j, l := range f.Lines {
			if l.Line == results[i].Line {
				pos = j
				break
			}
		}
		if pos < 0 {
			continue
		}

		var ctx []string
		if pos > 0 {
			ctx = append(ctx, f.Lines[pos-1].Text)
		}
		ctx = append(ctx, f.Lines[pos].Text)
		if pos+1 < len(f.Lines) {
			ctx = append(ctx, f.Lines[pos+1].Text)
		}
		results[i].Context = ctx
	}
}

func dedupeKeepOrder(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ExplainUsage searches symbol and splits the results into a
// definition (the first result whose file is a major code language)
// and the remaining usages, per §4.8's explain_usage wrapper.
func (e *Engine) ExplainUsage(symbol string, limit int) (definition *Result, usages []Result, err error) {
	results, err := e.Search(symbol, limit)
	if err != nil {
		return nil, nil, err
	}

	for _, r := range results {
		if definition == nil && index.IsMajorCodeLanguage(r.Language) {
			def := r
			definition = &def
			continue
		}
		usages = append(usages, r)
	}
	return definition, usages, nil
}
