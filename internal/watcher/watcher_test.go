package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeDispatcher struct {
	mu        sync.Mutex
	inserted  map[string][]byte
	removed   map[string]bool
	saveCalls int
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{inserted: make(map[string][]byte), removed: make(map[string]bool)}
}

func (f *fakeDispatcher) InsertOrReplaceFile(path string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted[path] = content
}

func (f *fakeDispatcher) RemoveFile(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed[path] = true
	delete(f.inserted, path)
}

func (f *fakeDispatcher) Save() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
}

func (f *fakeDispatcher) has(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.inserted[path]
	return ok
}

func (f *fakeDispatcher) wasRemoved(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removed[path]
}

func testConfig() Config {
	return Config{DebounceMs: 30, SaveEveryDispatches: 1000, SaveEveryInterval: time.Hour}
}

func TestWatcherDispatchesCreatedFile(t *testing.T) {
	dir := t.TempDir()
	disp := newFakeDispatcher()

	w, err := New(dir, disp, testConfig())
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	path := filepath.Join(dir, "new.go")
	require.NoError(t, os.WriteFile(path, []byte("package p\n"), 0o644))

	waitFor(t, func() bool { return disp.has("new.go") })
}

func TestWatcherDropsIneligiblePaths(t *testing.T) {
	dir := t.TempDir()
	disp := newFakeDispatcher()

	w, err := New(dir, disp, testConfig())
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	path := filepath.Join(dir, "notes.bin")
	require.NoError(t, os.WriteFile(path, []byte("binary junk"), 0o644))

	time.Sleep(150 * time.Millisecond)
	assert.False(t, disp.has("notes.bin"), "expected ineligible extension to be dropped by the Path Filter")
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	disp := newFakeDispatcher()

	w, err := New(dir, disp, testConfig())
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	path := filepath.Join(dir, "churn.go")
	for i := 0; i < 5; i++ {
		os.WriteFile(path, []byte("package p\n// v"+string(rune('0'+i))+"\n"), 0o644)
		time.Sleep(5 * time.Millisecond)
	}

	waitFor(t, func() bool { return disp.has("churn.go") })

	stats := w.Stats()
	assert.LessOrEqual(t, stats.EventsHandled, int64(2), "expected the rapid writes collapsed to one dispatch")
}

func TestWatcherDispatchesRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.go")
	require.NoError(t, os.WriteFile(path, []byte("package p\n"), 0o644))

	disp := newFakeDispatcher()
	w, err := New(dir, disp, testConfig())
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.Remove(path))

	waitFor(t, func() bool { return disp.wasRemoved("gone.go") })
}

func TestWatcherSavesAfterDispatchThreshold(t *testing.T) {
	dir := t.TempDir()
	disp := newFakeDispatcher()

	cfg := Config{DebounceMs: 10, SaveEveryDispatches: 2, SaveEveryInterval: time.Hour}
	w, err := New(dir, disp, cfg)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	os.WriteFile(filepath.Join(dir, "a.go"), []byte("package p\n"), 0o644)
	time.Sleep(60 * time.Millisecond)
	os.WriteFile(filepath.Join(dir, "b.go"), []byte("package p\n"), 0o644)

	waitFor(t, func() bool {
		disp.mu.Lock()
		defer disp.mu.Unlock()
		return disp.saveCalls >= 1
	})
}

func TestWatcherStopReleasesGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	disp := newFakeDispatcher()
	w, err := New(dir, disp, testConfig())
	require.NoError(t, err)
	w.Start()
	w.Stop()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
