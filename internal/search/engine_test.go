package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/prismd/internal/index"
)

func newTestStore(files map[string]string) *index.Store {
	store := index.New("/project", "2.0")
	for path, content := range files {
		store.InsertOrReplaceFile(path, []byte(content))
	}
	return store
}

func TestSearchEmptyQueryReturnsNilWithoutError(t *testing.T) {
	e := NewEngine(newTestStore(nil), DefaultConfig())
	results, err := e.Search("   ", 10)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestSearchRejectsOverlongQuery(t *testing.T) {
	e := NewEngine(newTestStore(nil), DefaultConfig())
	_, err := e.Search(strings.Repeat("a", 10001), 10)
	require.Error(t, err)
}

func TestSearchFindsMatchInInvertedMode(t *testing.T) {
	store := newTestStore(map[string]string{
		"main.go": "package main\n\nfunc computeTotal() int {\n\treturn 42\n}\n",
	})
	e := NewEngine(store, DefaultConfig())

	results, err := e.Search("computeTotal", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "main.go", results[0].Path)
	assert.Equal(t, 3, results[0].Line)
}

func TestSearchFallsBackToLinearForUnindexedTerm(t *testing.T) {
	// A single-character query never survives Tokenize's length>=2 rule,
	// so it can never be a key in the InvertedIndex: allTermsIndexed is
	// vacuously false for a zero-term query, forcing the linear path.
	store := newTestStore(map[string]string{
		"readme.md": "x marks the spot\n",
	})
	e := NewEngine(store, DefaultConfig())

	results, err := e.Search("x", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "readme.md", results[0].Path)
}

func TestSearchAttachesContextLines(t *testing.T) {
	store := newTestStore(map[string]string{
		"f.go": "line one\nfindme here\nline three\n",
	})
	e := NewEngine(store, DefaultConfig())

	results, err := e.Search("findme", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"line one", "findme here", "line three"}, results[0].Context)
}

func TestSearchRejectsCoOccurrenceWithoutPhraseMatch(t *testing.T) {
	// All three query terms are individually indexed (each appears
	// somewhere in b.go), so mode selection picks inverted search. But
	// the literal phrase "parse config file" never appears on one
	// line, so §4.8 step 5's substring verification must reject the
	// bucket rather than admit it on term co-occurrence alone.
	store := newTestStore(map[string]string{
		"a.go": "func parseConfigFile() {}\n",
		"b.go": "parse the config, then the file separately\n",
	})
	e := NewEngine(store, DefaultConfig())

	results, err := e.Search("parse config file", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchIsDeterministicAcrossRepeatedCalls(t *testing.T) {
	store := newTestStore(map[string]string{
		"a.go": "func handleRequest() {}\n",
		"b.go": "func handleRequest() { return }\n",
		"c.go": "// handleRequest is called from main\n",
	})
	e := NewEngine(store, DefaultConfig())

	first, err := e.Search("handleRequest", 10)
	require.NoError(t, err)
	e.InvalidateCache()
	second, err := e.Search("handleRequest", 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSearchRespectsLimit(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 20; i++ {
		files["f"+string(rune('a'+i))+".go"] = "func target() {}\n"
	}
	store := newTestStore(files)
	e := NewEngine(store, DefaultConfig())

	results, err := e.Search("target", 5)
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestSearchUsesCacheOnRepeatedQuery(t *testing.T) {
	store := newTestStore(map[string]string{"f.go": "func cached() {}\n"})
	e := NewEngine(store, DefaultConfig())

	first, err := e.Search("cached", 10)
	require.NoError(t, err)
	store.InsertOrReplaceFile("g.go", []byte("func cached() {}\n"))
	// Without invalidation, a cache hit returns the stale pre-mutation
	// result set — this is the behavior the onCommit hook the
	// Coordinator wires to InvalidateCache prevents in practice.
	second, err := e.Search("cached", 10)
	require.NoError(t, err)
	assert.Len(t, second, len(first))

	e.InvalidateCache()
	third, err := e.Search("cached", 10)
	require.NoError(t, err)
	assert.Len(t, third, 2)
}

func TestExplainUsageSplitsDefinitionFromUsages(t *testing.T) {
	store := newTestStore(map[string]string{
		"impl.go": "func widget() {}\n",
		"doc.md":  "the widget function is documented here\n",
	})
	e := NewEngine(store, DefaultConfig())

	def, usages, err := e.ExplainUsage("widget", 10)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, "impl.go", def.Path)
	require.Len(t, usages, 1)
	assert.Equal(t, "doc.md", usages[0].Path)
}

func TestExplainUsageWithNoMatchesReturnsNilDefinition(t *testing.T) {
	e := NewEngine(newTestStore(nil), DefaultConfig())
	def, usages, err := e.ExplainUsage("nothing", 10)
	require.NoError(t, err)
	assert.Nil(t, def)
	assert.Empty(t, usages)
}
